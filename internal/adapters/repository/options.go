package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithHub shares hub with other components instead of a private one.
func WithHub(hub *Hub) Option {
	return func(s *MemoryStore) {
		if hub != nil {
			s.hub = hub
		}
	}
}

// WithIDGenerator replaces NewID for assigned ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
