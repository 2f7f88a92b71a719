// Package worker applies queued mutations to the store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/reto/internal/adapters/mq/queue"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/pkg/logger"
	"github.com/okian/reto/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Writer is the write half of the store.
type Writer interface {
	CreateSeason(ctx context.Context, s model.Season) (string, error)
	CreateEvent(ctx context.Context, seasonID string, e model.Event) (string, error)
	UpsertParticipants(ctx context.Context, ps ...model.Participant) error
	PatchEvent(ctx context.Context, seasonID, eventID string, points int) error
	DeleteEventsForSeason(ctx context.Context, seasonID string) error
	DeleteEvent(ctx context.Context, seasonID, eventID string) error
	DeleteSeason(ctx context.Context, seasonID string) error
}

// Queue defines how workers receive mutations.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Mutation
}

// Worker applies mutations until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown waits for the worker to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker reads mutations off a queue and writes them to the store.
type InMemoryWorker struct {
	queue    Queue
	writer   Writer
	name     string
	observer Observer

	applied atomic.Int64
	done    chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, w Writer, opts ...Option) *InMemoryWorker {
	wk := &InMemoryWorker{
		queue:  q,
		writer: w,
		name:   "worker",
		done:   make(chan struct{}),
		logger: logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(wk)
	}
	if wk.name != "worker" {
		wk.logger = wk.logger.With(logger.String("worker", wk.name))
	}
	return wk
}

// Run starts the worker loop. It returns when ctx is done or the queue
// channel is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	mutations := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-mutations:
			if !ok {
				return
			}
			err := w.apply(ctx, m)
			if err != nil {
				w.logger.Error(ctx, "mutation failed",
					logger.String("kind", string(m.Kind)),
					logger.String("season", m.SeasonID),
					logger.Error(err),
				)
			}
			w.applied.Add(1)
			if w.observer != nil {
				w.observer(m, err)
			}
		}
	}
}

// Shutdown waits for Run to return. Close the queue first so it can drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Applied returns how many mutations this worker has handled.
func (w *InMemoryWorker) Applied() int64 {
	return w.applied.Load()
}

func (w *InMemoryWorker) apply(ctx context.Context, m queue.Mutation) error { //nolint:gocritic // hugeParam: Mutation is passed by value for channel semantics
	start := time.Now()
	err := w.write(ctx, m)
	metrics.RecordStoreMutation(string(m.Kind), err == nil, float64(time.Since(start).Microseconds())/1000)
	return err
}

func (w *InMemoryWorker) write(ctx context.Context, m queue.Mutation) error { //nolint:gocritic // hugeParam
	switch m.Kind {
	case queue.KindCreateSeason:
		_, err := w.writer.CreateSeason(ctx, m.Season)
		return err
	case queue.KindCreateEvent:
		_, err := w.writer.CreateEvent(ctx, m.SeasonID, m.Event)
		return err
	case queue.KindUpsertParticipants:
		return w.writer.UpsertParticipants(ctx, m.Participants...)
	case queue.KindPatchEvent:
		return w.writer.PatchEvent(ctx, m.SeasonID, m.EventID, m.Points)
	case queue.KindDeleteEvent:
		return w.writer.DeleteEvent(ctx, m.SeasonID, m.EventID)
	case queue.KindResetSeason:
		return w.writer.DeleteEventsForSeason(ctx, m.SeasonID)
	case queue.KindDeleteSeason:
		// Events first, then the season record.
		if err := w.writer.DeleteEventsForSeason(ctx, m.SeasonID); err != nil {
			return err
		}
		return w.writer.DeleteSeason(ctx, m.SeasonID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. Counts below one mean one:
// a single writer keeps per-season mutation order.
func NewPool(workerCount int, q Queue, w Writer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, w, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			if l, ok := p.queue.(interface{ Len(context.Context) int }); ok {
				metrics.UpdateQueueSize(l.Len(ctx))
			}
		}
	}
}

// Applied returns how many mutations the pool has handled.
func (p *Pool) Applied() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Applied()
	}
	return n
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return err
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
