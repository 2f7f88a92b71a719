package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/reto/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.DefaultParticipants, convey.ShouldResemble, config.DefaultRoster())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RETO_ADDR", ":8080")
			_ = os.Setenv("RETO_QUEUE_SIZE", "500")
			_ = os.Setenv("RETO_WORKER_COUNT", "2")
			_ = os.Setenv("RETO_STORE", "SQLite")
			_ = os.Setenv("RETO_CONFIRM_TTL_SECONDS", "30")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.ConfirmTTLSeconds, convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
queue_size: 300
default_participants:
  jose-a: José A.
  maria: María
boost_shortcuts:
  - participant_id: kevin
    points: 11
    label: "Kevin +11"
`)
			_ = os.Setenv("RETO_CONFIG", tmpFile)
			_ = os.Setenv("RETO_ADDR", ":8081")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should merge file values under env values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 1)
				convey.So(cfg.DefaultParticipants, convey.ShouldResemble, map[string]string{"jose-a": "José A.", "maria": "María"})
				convey.So(cfg.BoostShortcuts, convey.ShouldResemble, []config.BoostShortcut{{ParticipantID: "kevin", Points: 11, Label: "Kevin +11"}})
			})
		})

		convey.Convey("When loading config from a .env file", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "test.env")
			convey.So(os.WriteFile(path, []byte("RETO_LOG_LEVEL=debug\nRETO_PUBLIC_URL=https://reto.example\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("RETO_ENV_FILE", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then the .env values should be applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.PublicURL, convey.ShouldEqual, "https://reto.example")
			})
		})

		convey.Convey("When the explicit .env file is missing", func() {
			_ = os.Setenv("RETO_ENV_FILE", "/non/existent/.env")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("RETO_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RETO_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store", func() {
			_ = os.Setenv("RETO_STORE", "mongo")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RETO_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"RETO_CONFIG", "RETO_ENV_FILE", "RETO_ADDR", "RETO_QUEUE_SIZE", "RETO_WORKER_COUNT",
		"RETO_STORE", "RETO_CONFIRM_TTL_SECONDS", "RETO_LOG_LEVEL", "RETO_PUBLIC_URL",
	} {
		_ = os.Unsetenv(key)
	}
}
