package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/reto/pkg/logger"
	"github.com/okian/reto/pkg/metrics"
)

// Watch turns hub notifications on topic into full snapshots produced by load.
//
// The first snapshot is loaded before Watch returns, so a load error is
// reported to the caller. Later reload errors are logged and skipped. The
// returned channel is closed when ctx ends or the hub closes.
func Watch[T any](ctx context.Context, hub *Hub, topic string, load func(context.Context) (T, error)) (<-chan T, error) {
	signals, cancel := hub.Subscribe(topic)

	first, err := load(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", topic, err)
	}

	out := make(chan T, 1)
	out <- first
	metrics.RecordSnapshot(topicLabel(topic))

	go func() {
		defer close(out)
		defer cancel()
		log := logger.Get().Named("store")
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				snap, err := load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Warn(ctx, "snapshot reload failed", logger.String("topic", topic), logger.Error(err))
					continue
				}
				offer(out, snap)
				metrics.RecordSnapshot(topicLabel(topic))
			}
		}
	}()
	return out, nil
}

// offer replaces any undelivered snapshot with v. ch must have exactly one sender.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}

func topicLabel(topic string) string {
	if strings.HasPrefix(topic, topicEventsPrefix) {
		return "events"
	}
	return topic
}
