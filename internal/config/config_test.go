package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/reto/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 1)
			convey.So(cfg.ConfirmTTL(), convey.ShouldEqual, 2*time.Minute)
			convey.So(cfg.SessionTTL(), convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid values", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"unknown store":     func(c *config.Config) { c.Store = "mongo" },
			"sqlite w/o path":   func(c *config.Config) { c.Store = config.StoreSQLite; c.SQLitePath = "" },
			"redis w/o url":     func(c *config.Config) { c.Store = config.StoreRedis; c.RedisURL = "" },
			"zero queue":        func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":      func(c *config.Config) { c.WorkerCount = 0 },
			"zero dedupe":       func(c *config.Config) { c.DedupeSize = 0 },
			"zero confirm ttl":  func(c *config.Config) { c.ConfirmTTLSeconds = 0 },
			"zero session ttl":  func(c *config.Config) { c.SessionTTLMinutes = 0 },
			"bad boost":         func(c *config.Config) { c.BoostShortcuts = []config.BoostShortcut{{ParticipantID: "kevin"}} },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+name+" should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
