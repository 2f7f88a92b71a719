// Package service is the single state holder of the scoreboard.
//
// It keeps a read model built from store snapshots, hands out per-caller
// sessions carrying the active season, and turns session intents into
// mutations that a worker pool applies to the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/reto/internal/adapters/mq/queue"
	"github.com/okian/reto/internal/adapters/mq/worker"
	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/domain/confirm"
	"github.com/okian/reto/internal/domain/dedupe"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/types"
	"github.com/okian/reto/pkg/logger"
	"github.com/okian/reto/pkg/metrics"
)

const topicView = "view"

// Service owns the read model, the sessions and the mutation pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	queue   queue.Queue
	pool    *worker.Pool
	deduper dedupe.Deduper
	gate    *confirm.Gate
	changes *repository.Hub

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	confirmTTL    time.Duration
	sessionTTL    time.Duration
	sweepInterval time.Duration
	defaultRoster []model.Participant
	shortcuts     []types.BoostShortcut
	now           func() time.Time
	workerOpts    []worker.Option

	// Read model
	seasons      []model.Season
	participants []model.Participant
	events       map[string][]model.Event
	pending      inflight
	loaded       loadState
	seeding      bool
	watchers     map[string]*eventWatch
	ready        chan struct{}
	readyOnce    sync.Once

	// intentMu orders check-then-queue intents so each sees the writes
	// queued before it.
	intentMu sync.Mutex

	sessionsMu sync.Mutex
	sessions   map[string]*Session

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

type loadState struct {
	seasons      bool
	participants bool
	events       map[string]bool
}

// New constructs a Service over store with default configuration.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		workerCount:   1,
		queueSize:     10_000,
		dedupeSize:    10_000,
		confirmTTL:    2 * time.Minute,
		sessionTTL:    24 * time.Hour,
		sweepInterval: time.Minute,
		now:           time.Now,
		defaultRoster: []model.Participant{
			{ID: "ana", Name: "Ana"},
			{ID: "david", Name: "David"},
			{ID: "kevin", Name: "Kevin"},
			{ID: "laura", Name: "Laura"},
		},
		changes:  repository.NewHub(),
		events:   make(map[string][]model.Event),
		pending:  newInflight(),
		loaded:   loadState{events: make(map[string]bool)},
		watchers: make(map[string]*eventWatch),
		ready:    make(chan struct{}),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start builds the mutation pipeline and subscribes to the store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting scoreboard service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.gate = confirm.NewGate(confirm.WithTTL(s.confirmTTL), confirm.WithClock(s.now))
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.queue = q

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	workerOpts := append([]worker.Option{worker.WithObserver(s.observe)}, s.workerOpts...)
	s.pool = worker.NewPool(s.workerCount, q, s.store, workerOpts...)
	s.pool.Start(runCtx)

	seasons, err := s.store.WatchSeasons(runCtx)
	if err != nil {
		cancel()
		_ = s.pool.Shutdown(ctx)
		return fmt.Errorf("subscribe to seasons: %w", err)
	}
	participants, err := s.store.WatchParticipants(runCtx)
	if err != nil {
		cancel()
		_ = s.pool.Shutdown(ctx)
		return fmt.Errorf("subscribe to participants: %w", err)
	}

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		for snap := range seasons {
			s.replaceSeasons(runCtx, snap)
		}
	}()
	go func() {
		defer s.wg.Done()
		for snap := range participants {
			s.replaceParticipants(runCtx, snap)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.sweepLoop(runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "scoreboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains pending mutations, stops the watchers and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool, cancel := s.pool, s.cancel
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping scoreboard service...")

	var errs []error
	if err := pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain mutations: %w", err))
	}
	cancel()
	s.wg.Wait()
	s.changes.Close()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.logger.Info(ctx, "scoreboard service stopped")
	return errors.Join(errs...)
}

// Ready reports whether the first snapshots of every collection arrived.
func (s *Service) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until Ready or ctx ends.
func (s *Service) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe signals after every read model replacement. Signals coalesce.
func (s *Service) Subscribe() (<-chan struct{}, func()) {
	return s.changes.Subscribe(topicView)
}

// Session returns the session with id, creating it on first use.
func (s *Service) Session(id string) *Session {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{id: id, svc: s}
		s.sessions[id] = sess
		metrics.UpdateSessions(len(s.sessions))
	}
	sess.touch(s.now())
	return sess
}

// BoostShortcuts returns the configured admin boost buttons.
func (s *Service) BoostShortcuts() []types.BoostShortcut {
	out := make([]types.BoostShortcut, len(s.shortcuts))
	copy(out, s.shortcuts)
	return out
}

// Participants returns the roster sorted by id.
func (s *Service) Participants() []model.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participants
}

// Seasons returns every season in store order.
func (s *Service) Seasons() []model.Season {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seasons
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	stats := map[string]any{
		"started":      s.started,
		"ready":        s.Ready(),
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"seasons":      len(s.seasons),
		"participants": len(s.participants),
	}
	events := 0
	for _, evs := range s.events {
		events += len(evs)
	}
	stats["events"] = events
	queued := 0
	for _, evs := range s.pending.events {
		queued += len(evs)
	}
	stats["queuedEvents"] = queued
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["pendingConfirmations"] = s.gate.Len()
		stats["idempotencyKeys"] = s.deduper.Size()
		stats["applied"] = s.pool.Applied()
	}
	s.mu.RUnlock()

	s.sessionsMu.Lock()
	stats["sessions"] = len(s.sessions)
	s.sessionsMu.Unlock()
	return stats
}

func (s *Service) today() string {
	return s.now().Format(model.DateLayout)
}

// date normalizes a requested calendar date; blank means today.
func (s *Service) date(d string) (string, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return s.today(), nil
	}
	if !model.ValidDate(d) {
		return "", fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrValidation, d)
	}
	return d, nil
}

func (s *Service) idempotency() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

func (s *Service) confirmGate() *confirm.Gate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gate
}

// enqueue hands m to the worker pool without waiting for the store.
func (s *Service) enqueue(ctx context.Context, m queue.Mutation) error { //nolint:gocritic // hugeParam
	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	err := q.Enqueue(ctx, m)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, queue.ErrFull), errors.Is(err, queue.ErrClosed):
		s.logger.Warn(ctx, "mutation dropped",
			logger.String("kind", string(m.Kind)),
			logger.String("season", m.SeasonID),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrBackpressure, err)
	default:
		return err
	}
}

func (s *Service) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep drops idle sessions and expired confirmations.
func (s *Service) sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.sessionTTL)

	s.sessionsMu.Lock()
	dropped := 0
	for id, sess := range s.sessions {
		if sess.lastSeen().Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
	}
	metrics.UpdateSessions(len(s.sessions))
	s.sessionsMu.Unlock()

	expired := 0
	if s.gate != nil {
		expired = s.gate.Sweep()
	}
	if dropped > 0 || expired > 0 {
		s.logger.Debug(ctx, "swept idle state",
			logger.Int("sessions", dropped),
			logger.Int("confirmations", expired),
		)
	}
}
