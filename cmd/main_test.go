package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/adapters/repository/sqlite"
	app "github.com/okian/reto/internal/app"
	"github.com/okian/reto/internal/config"
	"github.com/okian/reto/pkg/logger"
	"github.com/okian/reto/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("RETO_ADDR", ":8080")
			_ = os.Setenv("RETO_QUEUE_SIZE", "1000")
			_ = os.Setenv("RETO_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("RETO_ADDR")
				_ = os.Unsetenv("RETO_QUEUE_SIZE")
				_ = os.Unsetenv("RETO_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load()
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When opening stores", func() {
			ctx := context.Background()

			convey.Convey("Then memory is the default", func() {
				cfg := config.New()
				store, err := openStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Close(), convey.ShouldBeNil)
			})

			convey.Convey("Then sqlite opens the configured file", func() {
				cfg := config.New()
				cfg.Store = config.StoreSQLite
				cfg.SQLitePath = filepath.Join(t.TempDir(), "reto.db")
				store, err := openStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*sqlite.Store)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Close(), convey.ShouldBeNil)
			})

			convey.Convey("Then unknown backends are rejected", func() {
				cfg := config.New()
				cfg.Store = "mongo"
				_, err := openStore(ctx, cfg)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, config.ErrUnknownStore), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				convey.So(metrics.NewManager(), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServiceOptions(t *testing.T) {
	convey.Convey("Given a configuration with a roster and shortcuts", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 3
		cfg.DefaultParticipants = map[string]string{"zoe": "Zoe", "ana": "Ana"}
		cfg.BoostShortcuts = []config.BoostShortcut{{ParticipantID: "ana", Points: 3, Label: "+3 Ana"}}

		convey.Convey("When the service is built from it", func() {
			svc := app.New(repository.NewMemoryStore(), serviceOptions(cfg, logger.Get())...)

			convey.Convey("Then the options are applied", func() {
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 3)
				convey.So(svc.BoostShortcuts(), convey.ShouldHaveLength, 1)
				convey.So(svc.BoostShortcuts()[0].Points, convey.ShouldEqual, 3)
			})

			convey.Convey("Then the configured roster is seeded in id order", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				defer func() { _ = svc.Stop(context.Background()) }()
				convey.So(svc.WaitReady(ctx), convey.ShouldBeNil)

				deadline := time.Now().Add(2 * time.Second)
				for len(svc.Participants()) < 2 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				ps := svc.Participants()
				convey.So(ps, convey.ShouldHaveLength, 2)
				convey.So(ps[0].ID, convey.ShouldEqual, "ana")
				convey.So(ps[1].ID, convey.ShouldEqual, "zoe")
			})
		})
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given the full router over a running service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cfg := config.New()
		svc := app.New(repository.NewMemoryStore(), serviceOptions(cfg, logger.Get())...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()
		convey.So(svc.WaitReady(ctx), convey.ShouldBeNil)

		r := newRouter(ctx, cfg, svc)

		convey.Convey("Then every surface is mounted", func() {
			for _, path := range []string{"/", "/healthz", "/readyz", "/stats", "/api-docs", "/openapi.yaml", "/api/seasons", "/api/participants"} {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then /ws refuses plain HTTP requests", func() {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		svc := app.New(repository.NewMemoryStore())

		convey.Convey("Then they stop with their context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then single updates do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
