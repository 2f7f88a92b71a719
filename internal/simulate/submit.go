package simulate

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/reto/pkg/logger"
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeCapped
	outcomeThrottled
	outcomeFailed
)

// submitRequests sends plan through cfg.Workers workers, every request sent
// twice with the same idempotency key to exercise replays. It returns the
// accepted events.
func submitRequests(ctx context.Context, cfg *Config, client *HTTPClient, plan []Request, stats *Stats) []Event {
	log := logger.Get().Named("simulate")
	log.Info(ctx, "submitting requests", logger.Int("requests", len(plan)), logger.Int("workers", cfg.Workers))

	var (
		mu        sync.Mutex
		accepted  = make([]Event, 0, len(plan))
		capped    int64
		throttled int64
		failed    int64
		replayed  int64
		done      int64
	)

	work := make(chan Request, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for range max(cfg.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range work {
				e, res := submitSingle(ctx, client, r)
				switch res {
				case outcomeAccepted:
					mu.Lock()
					accepted = append(accepted, e)
					mu.Unlock()
					if replay, ok := submitSingle(ctx, client, r); ok == outcomeAccepted && replay.ID == e.ID {
						atomic.AddInt64(&replayed, 1)
					}
				case outcomeCapped:
					atomic.AddInt64(&capped, 1)
				case outcomeThrottled:
					atomic.AddInt64(&throttled, 1)
				case outcomeFailed:
					atomic.AddInt64(&failed, 1)
				}
				if n := atomic.AddInt64(&done, 1); cfg.Verbose && n%100 == 0 {
					log.Info(ctx, "progress", logger.Int("done", int(n)), logger.Int("total", len(plan)))
				}
			}
		}()
	}

	start := time.Now()
feed:
	for _, r := range plan {
		select {
		case <-ctx.Done():
			break feed
		case work <- r:
		}
	}
	close(work)
	wg.Wait()

	stats.Accepted = len(accepted)
	stats.Replayed = int(replayed)
	stats.Capped = int(capped)
	stats.Throttled = int(throttled)
	stats.Failed = int(failed)

	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("replayed", stats.Replayed),
		logger.Int("capped", stats.Capped),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Duration("took", time.Since(start)),
	)
	return accepted
}

// submitSingle sends one grant or boost.
func submitSingle(ctx context.Context, client *HTTPClient, r Request) (Event, outcome) { //nolint:gocritic // hugeParam
	var (
		e    Event
		err  error
		path = "/api/points"
		body any
	)
	if r.Boost {
		path = "/api/boosts"
		body = map[string]any{"participant_id": r.ParticipantID, "points": r.Points}
	} else {
		body = map[string]any{"participant_id": r.ParticipantID, "date": r.Date}
	}
	_, err = client.Do(ctx, http.MethodPost, path, body, &e, "Idempotency-Key", r.Key)

	var se *StatusError
	switch {
	case err == nil:
		e.Boost = r.Boost
		return e, outcomeAccepted
	case errors.As(err, &se) && se.Code == StatusUnprocessableEntity:
		return Event{}, outcomeCapped
	case errors.As(err, &se) && se.Code == StatusTooManyRequests:
		return Event{}, outcomeThrottled
	default:
		return Event{}, outcomeFailed
	}
}
