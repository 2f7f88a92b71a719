package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/okian/reto/internal/domain/model"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu           sync.RWMutex
	seasons      []model.Season
	participants map[string]model.Participant
	events       map[string][]model.Event // season id -> events in creation order
	closed       bool

	hub   *Hub
	newID func() string
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		participants: make(map[string]model.Participant),
		events:       make(map[string][]model.Event),
		hub:          NewHub(),
		newID:        NewID,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) ListSeasons(_ context.Context) ([]model.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Season, len(s.seasons))
	for i, season := range s.seasons {
		out[i] = cloneSeason(season)
	}
	return out, nil
}

func (s *MemoryStore) ListParticipants(_ context.Context) ([]model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Participant, 0, len(s.participants))
	for _, id := range slices.Sorted(maps.Keys(s.participants)) {
		out = append(out, s.participants[id])
	}
	return out, nil
}

func (s *MemoryStore) ListEvents(_ context.Context, seasonID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return slices.Clone(s.events[seasonID]), nil
}

func (s *MemoryStore) WatchSeasons(ctx context.Context) (<-chan []model.Season, error) {
	return Watch(ctx, s.hub, TopicSeasons, s.ListSeasons)
}

func (s *MemoryStore) WatchParticipants(ctx context.Context) (<-chan []model.Participant, error) {
	return Watch(ctx, s.hub, TopicParticipants, s.ListParticipants)
}

func (s *MemoryStore) WatchEvents(ctx context.Context, seasonID string) (<-chan []model.Event, error) {
	return Watch(ctx, s.hub, TopicEvents(seasonID), func(ctx context.Context) ([]model.Event, error) {
		return s.ListEvents(ctx, seasonID)
	})
}

func (s *MemoryStore) CreateSeason(_ context.Context, season model.Season) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	season = cloneSeason(season)
	if season.ID == "" {
		season.ID = s.newID()
	}
	if season.CreatedAt.IsZero() {
		season.CreatedAt = s.now().UTC()
	}
	replaced := false
	for i := range s.seasons {
		if s.seasons[i].ID == season.ID {
			s.seasons[i] = season
			replaced = true
			break
		}
	}
	if !replaced {
		s.seasons = append(s.seasons, season)
	}
	s.mu.Unlock()

	s.hub.Publish(TopicSeasons)
	return season.ID, nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, seasonID string, e model.Event) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	e.SeasonID = seasonID
	list := s.events[seasonID]
	if i := indexEvent(list, e.ID); i >= 0 {
		list[i] = e
	} else {
		s.events[seasonID] = append(list, e)
	}
	s.mu.Unlock()

	s.hub.Publish(TopicEvents(seasonID))
	return e.ID, nil
}

func (s *MemoryStore) UpsertParticipants(_ context.Context, ps ...model.Participant) error {
	if len(ps) == 0 {
		return nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	for _, p := range ps {
		s.participants[p.ID] = p
	}
	s.mu.Unlock()

	s.hub.Publish(TopicParticipants)
	return nil
}

func (s *MemoryStore) PatchEvent(_ context.Context, seasonID, eventID string, points int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	list := s.events[seasonID]
	i := indexEvent(list, eventID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: event %s/%s", ErrNotFound, seasonID, eventID)
	}
	list[i].Points = points
	s.mu.Unlock()

	s.hub.Publish(TopicEvents(seasonID))
	return nil
}

func (s *MemoryStore) DeleteEventsForSeason(_ context.Context, seasonID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	delete(s.events, seasonID)
	s.mu.Unlock()

	s.hub.Publish(TopicEvents(seasonID))
	return nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, seasonID, eventID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	list := s.events[seasonID]
	if i := indexEvent(list, eventID); i >= 0 {
		s.events[seasonID] = slices.Delete(list, i, i+1)
	}
	s.mu.Unlock()

	s.hub.Publish(TopicEvents(seasonID))
	return nil
}

func (s *MemoryStore) DeleteSeason(_ context.Context, seasonID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seasons = slices.DeleteFunc(s.seasons, func(season model.Season) bool { return season.ID == seasonID })
	s.mu.Unlock()

	s.hub.Publish(TopicSeasons)
	return nil
}

// Close ends all watches. Further calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.Close()
	return nil
}

func indexEvent(list []model.Event, id string) int {
	return slices.IndexFunc(list, func(e model.Event) bool { return e.ID == id })
}

func cloneSeason(s model.Season) model.Season {
	s.Participants = slices.Clone(s.Participants)
	s.InitialPoints = maps.Clone(s.InitialPoints)
	return s
}
