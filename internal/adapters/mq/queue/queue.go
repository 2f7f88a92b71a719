// Package queue is the bounded in-memory buffer between intents and the store.
//
// Enqueue never blocks: a full queue refuses the mutation and the caller
// decides what to tell the user.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/reto/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds m to the queue or returns ErrFull / ErrClosed.
	Enqueue(ctx context.Context, m Mutation) error

	// Dequeue returns the channel workers read from. It is closed by Close
	// once the remaining mutations have been read.
	Dequeue(ctx context.Context) <-chan Mutation

	// Len returns the current number of queued mutations.
	Len(ctx context.Context) int

	// Close stops accepting mutations.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	mutations chan Mutation
	capacity  int
	mu        sync.RWMutex
	closed    bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.mutations = make(chan Mutation, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a mutation to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Mutation) error { //nolint:gocritic // hugeParam: Mutation is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}
	if m.EnqueuedAt.IsZero() {
		m.EnqueuedAt = time.Now()
	}

	select {
	case q.mutations <- m:
		metrics.UpdateQueueSize(len(q.mutations))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns the channel mutations are delivered on.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Mutation {
	return q.mutations
}

// Len returns the current number of queued mutations.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.mutations)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting mutations. Already queued ones can still be read.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.mutations)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
