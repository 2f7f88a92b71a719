// Package worker applies queued mutations to the store.
package worker

import (
	"github.com/okian/reto/internal/adapters/mq/queue"
	"github.com/okian/reto/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// Observer is told about every applied mutation and its outcome.
type Observer func(m queue.Mutation, err error)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithObserver registers fn to run after each mutation. Observers given more
// than once all run, in registration order.
func WithObserver(fn Observer) Option {
	return func(w *InMemoryWorker) {
		if fn == nil {
			return
		}
		prev := w.observer
		if prev == nil {
			w.observer = fn
			return
		}
		w.observer = func(m queue.Mutation, err error) {
			prev(m, err)
			fn(m, err)
		}
	}
}
