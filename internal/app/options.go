package service

import (
	"time"

	"github.com/okian/reto/internal/adapters/mq/worker"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/types"
	"github.com/okian/reto/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of mutation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the mutation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithConfirmTTL sets how long a destructive action waits for its confirmation.
func WithConfirmTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.confirmTTL = ttl
		}
	}
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithSweepInterval sets how often expired sessions and confirmations are dropped.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithDefaultRoster sets the participants seeded into an empty roster.
func WithDefaultRoster(ps []model.Participant) Option {
	return func(s *Service) {
		if len(ps) > 0 {
			s.defaultRoster = ps
		}
	}
}

// WithBoostShortcuts sets the configured admin boost buttons.
func WithBoostShortcuts(shortcuts []types.BoostShortcut) Option {
	return func(s *Service) {
		s.shortcuts = shortcuts
	}
}

// WithClock replaces time.Now for sessions and confirmations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerOptions passes opts to every mutation worker.
func WithWorkerOptions(opts ...worker.Option) Option {
	return func(s *Service) {
		s.workerOpts = append(s.workerOpts, opts...)
	}
}
