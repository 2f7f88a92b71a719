package confirm

import "time"

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithTTL sets how long a pending action stays confirmable.
func WithTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}
