package service

import (
	"context"

	"github.com/okian/reto/internal/adapters/mq/queue"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/roster"
	"github.com/okian/reto/pkg/logger"
	"github.com/okian/reto/pkg/metrics"
)

// eventWatch is the live subscription to one season's events.
type eventWatch struct {
	cancel context.CancelFunc
}

// replaceSeasons swaps in a seasons snapshot and keeps one event watcher per season.
func (s *Service) replaceSeasons(ctx context.Context, snap []model.Season) {
	live := make(map[string]struct{}, len(snap))
	for _, season := range snap {
		live[season.ID] = struct{}{}
	}

	type starting struct {
		id string
		w  *eventWatch
		c  context.Context
	}
	var start []starting

	s.mu.Lock()
	var removed []string
	for _, season := range s.seasons {
		if _, ok := live[season.ID]; !ok {
			removed = append(removed, season.ID)
		}
	}
	s.seasons = snap
	s.loaded.seasons = true
	s.pending.settleSeasons(snap)
	for id, w := range s.watchers {
		if _, ok := live[id]; !ok {
			w.cancel()
			delete(s.watchers, id)
			delete(s.events, id)
			delete(s.loaded.events, id)
			s.pending.dropSeason(id)
		}
	}
	for _, season := range snap {
		if _, ok := s.watchers[season.ID]; ok {
			continue
		}
		wctx, cancel := context.WithCancel(ctx)
		w := &eventWatch{cancel: cancel}
		s.watchers[season.ID] = w
		start = append(start, starting{id: season.ID, w: w, c: wctx})
	}
	s.mu.Unlock()

	for _, p := range start {
		s.watchEvents(p.c, p.id, p.w)
	}
	if len(removed) > 0 {
		s.forgetSeasons(removed)
	}
	s.changed()
}

func (s *Service) watchEvents(ctx context.Context, seasonID string, w *eventWatch) {
	ch, err := s.store.WatchEvents(ctx, seasonID)
	if err != nil {
		s.logger.Error(ctx, "subscribe to events failed", logger.String("season", seasonID), logger.Error(err))
		// The next seasons snapshot retries.
		s.mu.Lock()
		if s.watchers[seasonID] == w {
			delete(s.watchers, seasonID)
			s.loaded.events[seasonID] = true
		}
		s.mu.Unlock()
		w.cancel()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for snap := range ch {
			s.replaceEvents(seasonID, w, snap)
		}
	}()
}

// replaceEvents swaps in one season's events unless the season is gone.
func (s *Service) replaceEvents(seasonID string, w *eventWatch, snap []model.Event) {
	s.mu.Lock()
	if s.watchers[seasonID] != w {
		s.mu.Unlock()
		return
	}
	s.events[seasonID] = snap
	s.loaded.events[seasonID] = true
	s.pending.settleEvents(seasonID, snap)
	s.mu.Unlock()
	s.changed()
}

// replaceParticipants swaps in the roster and seeds the defaults into an empty one.
func (s *Service) replaceParticipants(ctx context.Context, snap []model.Participant) {
	s.mu.Lock()
	s.participants = snap
	s.loaded.participants = true
	seed := len(snap) == 0 && !s.seeding && len(s.defaultRoster) > 0
	if seed {
		s.seeding = true
	}
	if len(snap) > 0 {
		s.seeding = false
	}
	s.mu.Unlock()

	if seed {
		if err := s.SeedRoster(ctx); err != nil {
			s.logger.Warn(ctx, "seeding default roster failed", logger.Error(err))
			s.mu.Lock()
			s.seeding = false
			s.mu.Unlock()
		}
	}
	s.changed()
}

// SeedRoster writes the default participants. Writing them again is harmless:
// each one lands on the same id with the same name.
func (s *Service) SeedRoster(ctx context.Context) error {
	ps := make([]model.Participant, len(s.defaultRoster))
	copy(ps, s.defaultRoster)
	if err := s.enqueue(ctx, queue.Mutation{Kind: queue.KindUpsertParticipants, Participants: ps}); err != nil {
		return err
	}
	metrics.RecordRosterSeeded()
	s.logger.Info(ctx, "seeding default roster", logger.Int("participants", len(ps)))
	return nil
}

// forgetSeasons clears every session whose explicit selection was just deleted.
// seasonCount counts stored seasons and the ones still queued.
func (s *Service) seasonCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seasons) + len(s.pending.seasons)
}

func (s *Service) forgetSeasons(ids []string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	for _, sess := range s.sessions {
		sess.forget(ids)
	}
}

// changed marks ready once everything loaded and wakes the live feed.
func (s *Service) changed() {
	s.mu.RLock()
	complete := s.loaded.seasons && s.loaded.participants
	if complete {
		for _, season := range s.seasons {
			if !s.loaded.events[season.ID] {
				complete = false
				break
			}
		}
	}
	seasons, participants := len(s.seasons), len(s.participants)
	s.mu.RUnlock()

	metrics.UpdateReadModel(seasons, participants)
	if complete {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	s.changes.Publish(topicView)
}

// seasonContext is everything a season-scoped read needs, taken from one
// snapshot plus the writes still queued for it.
type seasonContext struct {
	season  model.Season
	members []model.Participant
	all     []model.Participant
	events  []model.Event
}

// seasonContext resolves the season with id.
func (s *Service) seasonContext(id string) (seasonContext, bool) {
	return s.contextFor(func(seasons []model.Season) (model.Season, bool) {
		return model.FindSeason(seasons, id)
	})
}

func (s *Service) contextFor(sel func([]model.Season) (model.Season, bool)) (seasonContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	season, ok := sel(s.seasons)
	if !ok {
		return seasonContext{}, false
	}
	return seasonContext{
		season:  season,
		members: roster.FilterForSeason(season, s.participants),
		all:     s.participants,
		events:  s.pending.merged(season.ID, s.events[season.ID]),
	}, true
}
