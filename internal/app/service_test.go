package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/okian/reto/internal/app"
	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(repository.NewMemoryStore())

		Convey("Then it should not be ready or started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Ready(), ShouldBeFalse)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Then intents should refuse to run", func() {
			err := svc.SeedRoster(context.Background())
			So(err, ShouldEqual, service.ErrNotStarted)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(repository.NewMemoryStore(),
			service.WithWorkerCount(2),
			service.WithQueueSize(50),
			service.WithDedupeSize(25),
			service.WithConfirmTTL(time.Second),
			service.WithSessionTTL(time.Minute),
			service.WithBoostShortcuts([]types.BoostShortcut{{ParticipantID: "ana", Points: 5, Label: "+5 Ana"}}),
		)

		Convey("Then the options should be applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 50)
			So(stats["dedupeSize"], ShouldEqual, 25)
			So(svc.BoostShortcuts(), ShouldHaveLength, 1)
			So(svc.BoostShortcuts()[0].Label, ShouldEqual, "+5 Ana")
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(repository.NewMemoryStore())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("Then it becomes ready and reports stats", func() {
			So(svc.WaitReady(ctx), ShouldBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["ready"], ShouldEqual, true)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When stopping the service", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("Then stopping again is a no-op", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_RosterSeeding(t *testing.T) {
	Convey("Given a service over an empty store", t, func() {
		svc := startService(t, nil)

		Convey("Then the default roster is seeded", func() {
			waitRoster(t, svc, 4)
			So(svc.Participants(), ShouldResemble, []model.Participant{
				{ID: "ana", Name: "Ana"},
				{ID: "david", Name: "David"},
				{ID: "kevin", Name: "Kevin"},
				{ID: "laura", Name: "Laura"},
			})

			Convey("And seeding a second time changes nothing", func() {
				first := svc.Participants()
				So(svc.SeedRoster(context.Background()), ShouldBeNil)
				So(eventually(func() bool { return svc.GetStats()["applied"] == int64(2) }), ShouldBeTrue)
				So(svc.Participants(), ShouldResemble, first)
			})
		})
	})

	Convey("Given a store that already has a roster", t, func() {
		store := repository.NewMemoryStore()
		So(store.UpsertParticipants(context.Background(), model.Participant{ID: "x", Name: "X"}), ShouldBeNil)
		svc := startService(t, store, service.WithDefaultRoster(abc))

		Convey("Then nothing is seeded", func() {
			time.Sleep(50 * time.Millisecond)
			So(svc.GetStats()["applied"], ShouldEqual, int64(0))
			So(svc.Participants(), ShouldResemble, []model.Participant{{ID: "x", Name: "X"}})
		})
	})
}

func TestService_Subscribe(t *testing.T) {
	Convey("Given a subscriber to read model changes", t, func() {
		svc := startService(t, nil, service.WithDefaultRoster(abc))
		waitRoster(t, svc, 3)
		changes, cancel := svc.Subscribe()
		defer cancel()

		Convey("When a participant is added", func() {
			_, added, err := svc.Session("s1").AddParticipant(context.Background(), "Dora")
			So(err, ShouldBeNil)
			So(added, ShouldBeTrue)

			Convey("Then a change is signalled", func() {
				select {
				case <-changes:
				case <-time.After(2 * time.Second):
					So("no change signalled", ShouldBeEmpty)
				}
				waitRoster(t, svc, 4)
			})
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a service with a fake clock", t, func() {
		clock := newFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local))
		svc := startService(t, nil,
			service.WithClock(clock.Now),
			service.WithSessionTTL(time.Minute),
			service.WithSweepInterval(5*time.Millisecond),
			service.WithDefaultRoster(abc),
		)

		Convey("When the same session id is used twice", func() {
			a := svc.Session("same")
			b := svc.Session("same")

			Convey("Then the same session is returned", func() {
				So(a, ShouldEqual, b)
				So(a.ID(), ShouldEqual, "same")
			})
		})

		Convey("When a session idles past its TTL", func() {
			sess := svc.Session("idle")
			sess.Select("whatever")
			clock.Advance(2 * time.Minute)

			Convey("Then it is swept and a fresh one takes its place", func() {
				So(eventually(func() bool { return svc.GetStats()["sessions"] == 0 }), ShouldBeTrue)
				fresh := svc.Session("idle")
				So(fresh, ShouldNotEqual, sess)
			})
		})
	})
}
