package service

import (
	"github.com/okian/reto/internal/adapters/mq/queue"
	"github.com/okian/reto/internal/domain/model"
)

// inflight holds writes that are queued but not yet in a store snapshot.
// Reads merge them in so a caller always sees its own writes, and the daily
// cap counts them. All methods must be called with Service.mu held.
type inflight struct {
	events  map[string][]model.Event // season id -> queued events
	seasons map[string]struct{}
}

func newInflight() inflight {
	return inflight{
		events:  make(map[string][]model.Event),
		seasons: make(map[string]struct{}),
	}
}

func (f *inflight) addEvent(e model.Event) { //nolint:gocritic // hugeParam
	f.events[e.SeasonID] = append(f.events[e.SeasonID], e)
}

func (f *inflight) removeEvent(seasonID, eventID string) {
	list := f.events[seasonID]
	for i, e := range list {
		if e.ID == eventID {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	f.setEvents(seasonID, list)
}

// patchEvent keeps a queued edit visible until the event reaches a snapshot.
func (f *inflight) patchEvent(seasonID, eventID string, points int) {
	for i, e := range f.events[seasonID] {
		if e.ID == eventID {
			f.events[seasonID][i].Points = points
			return
		}
	}
}

func (f *inflight) dropSeason(seasonID string) {
	delete(f.events, seasonID)
}

// settleEvents forgets every queued event that snap already holds.
func (f *inflight) settleEvents(seasonID string, snap []model.Event) {
	list := f.events[seasonID]
	if len(list) == 0 {
		return
	}
	stored := make(map[string]struct{}, len(snap))
	for _, e := range snap {
		stored[e.ID] = struct{}{}
	}
	kept := list[:0:0]
	for _, e := range list {
		if _, ok := stored[e.ID]; !ok {
			kept = append(kept, e)
		}
	}
	f.setEvents(seasonID, kept)
}

func (f *inflight) setEvents(seasonID string, list []model.Event) {
	if len(list) == 0 {
		delete(f.events, seasonID)
		return
	}
	f.events[seasonID] = list
}

// merged returns snap followed by the season's queued events.
func (f *inflight) merged(seasonID string, snap []model.Event) []model.Event {
	list := f.events[seasonID]
	if len(list) == 0 {
		return snap
	}
	out := make([]model.Event, 0, len(snap)+len(list))
	out = append(out, snap...)
	return append(out, list...)
}

func (f *inflight) addSeason(id string) { f.seasons[id] = struct{}{} }

func (f *inflight) removeSeason(id string) { delete(f.seasons, id) }

func (f *inflight) settleSeasons(snap []model.Season) {
	for _, s := range snap {
		delete(f.seasons, s.ID)
	}
}

// observe settles the overlay after the worker handled m.
func (s *Service) observe(m queue.Mutation, err error) { //nolint:gocritic // hugeParam
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m.Kind {
	case queue.KindCreateEvent:
		if err != nil {
			s.pending.removeEvent(m.SeasonID, m.Event.ID)
		}
	case queue.KindCreateSeason:
		if err != nil {
			s.pending.removeSeason(m.Season.ID)
		}
	case queue.KindDeleteEvent:
		s.pending.removeEvent(m.SeasonID, m.EventID)
	case queue.KindResetSeason, queue.KindDeleteSeason:
		s.pending.dropSeason(m.SeasonID)
	}
}

// track adds e to the overlay; the returned func takes it out again.
func (s *Service) track(e model.Event) func() { //nolint:gocritic // hugeParam
	s.mu.Lock()
	s.pending.addEvent(e)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.pending.removeEvent(e.SeasonID, e.ID)
		s.mu.Unlock()
	}
}

// trackSeason counts id as queued until a seasons snapshot holds it.
func (s *Service) trackSeason(id string) func() {
	s.mu.Lock()
	s.pending.addSeason(id)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.pending.removeSeason(id)
		s.mu.Unlock()
	}
}

func (s *Service) patchTracked(seasonID, eventID string, points int) {
	s.mu.Lock()
	s.pending.patchEvent(seasonID, eventID, points)
	s.mu.Unlock()
}
