// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers .env, YAML and env on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// BoostShortcut is a configured admin boost button.
type BoostShortcut struct {
	ParticipantID string `koanf:"participant_id" json:"participant_id"`
	Points        int    `koanf:"points" json:"points"`
	Label         string `koanf:"label" json:"label"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the event store backend: memory, sqlite or redis.
	Store string `koanf:"store"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// RedisURL and RedisPrefix configure the redis backend.
	RedisURL    string `koanf:"redis_url"`
	RedisPrefix string `koanf:"redis_prefix"`

	// QueueSize bounds the in-memory mutation queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of mutation workers. One keeps submission order.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the idempotency key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ConfirmTTLSeconds is how long a pending destructive action can be confirmed.
	ConfirmTTLSeconds int `koanf:"confirm_ttl_seconds"`

	// SessionTTLMinutes expires idle sessions.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// PublicURL is the externally reachable base URL used in share links.
	PublicURL string `koanf:"public_url"`

	// DefaultParticipants is the roster seeded when the store has none (id -> name).
	DefaultParticipants map[string]string `koanf:"default_participants"`

	// BoostShortcuts lists the admin boost buttons.
	BoostShortcuts []BoostShortcut `koanf:"boost_shortcuts"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		Store:             StoreMemory,
		SQLitePath:        "reto.db",
		RedisURL:          "redis://localhost:6379/0",
		RedisPrefix:       "reto",
		QueueSize:         10_000,
		WorkerCount:       1,
		DedupeSize:        10_000,
		ConfirmTTLSeconds: 120,
		SessionTTLMinutes: 24 * 60,
		PublicURL:         "http://localhost:9080",
	}
}

// DefaultRoster is the roster seeded when none is configured.
func DefaultRoster() map[string]string {
	return map[string]string{
		"kevin": "Kevin",
		"ana":   "Ana",
		"david": "David",
		"laura": "Laura",
	}
}

// ConfirmTTL returns the confirmation window as a duration.
func (c *Config) ConfirmTTL() time.Duration {
	return time.Duration(c.ConfirmTTLSeconds) * time.Second
}

// SessionTTL returns the idle session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Store) {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownStore, c.Store)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize <= 0 {
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	}
	if c.ConfirmTTLSeconds <= 0 {
		return fmt.Errorf("%w: confirm_ttl_seconds must be positive", ErrInvalidConfig)
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("%w: session_ttl_minutes must be positive", ErrInvalidConfig)
	}
	for i, b := range c.BoostShortcuts {
		if b.ParticipantID == "" || b.Points <= 0 {
			return fmt.Errorf("%w: boost_shortcuts[%d] needs a participant_id and positive points", ErrInvalidConfig, i)
		}
	}
	return nil
}
