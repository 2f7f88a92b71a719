// Package redis provides a shared Redis-backed event store.
//
// Every write is announced on a pub/sub channel, so watchers in all
// processes sharing the same Redis and key prefix see each other's changes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/pkg/logger"
)

// Store keeps records in Redis hashes ordered by sorted sets.
//
// Layout under prefix p:
//
//	p:seq                 creation counter
//	p:seasons             zset season id -> seq
//	p:seasons:data        hash season id -> JSON
//	p:participants        hash participant id -> name
//	p:events:<sid>        zset event id -> seq
//	p:events:<sid>:data   hash event id -> JSON
//	p:changes             pub/sub channel carrying change topics
type Store struct {
	client    *goredis.Client
	ownClient bool
	prefix    string
	hub       *repository.Hub
	now       func() time.Time
	log       logger.Logger

	pubsub *goredis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

var _ repository.Store = (*Store)(nil)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithHub shares hub for change notification.
func WithHub(hub *repository.Hub) Option {
	return func(s *Store) {
		if hub != nil {
			s.hub = hub
		}
	}
}

// Open connects to redisURL and starts relaying change notifications.
func Open(ctx context.Context, redisURL, prefix string, opts ...Option) (*Store, error) {
	client, err := Connect(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, client, prefix, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.ownClient = true
	return s, nil
}

// New wraps an existing client. The client stays open on Close.
func New(ctx context.Context, client *goredis.Client, prefix string, opts ...Option) (*Store, error) {
	if prefix == "" {
		prefix = "reto"
	}
	s := &Store{
		client: client,
		prefix: prefix,
		hub:    repository.NewHub(),
		now:    time.Now,
		log:    logger.Get().Named("redis"),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.pubsub = client.Subscribe(ctx, s.key("changes"))
	// Wait for the subscription so no change published after New returns is missed.
	if _, err := s.pubsub.Receive(ctx); err != nil {
		_ = s.pubsub.Close()
		return nil, fmt.Errorf("subscribe changes: %w", err)
	}
	relayCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.relay(relayCtx)
	return s, nil
}

// relay forwards change topics from Redis to the local hub.
func (s *Store) relay(ctx context.Context) {
	defer close(s.done)
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.hub.Publish(msg.Payload)
		}
	}
}

// Close stops the relay, ends all watches and closes an owned client.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		<-s.done
		s.hub.Close()
		if s.ownClient {
			if cerr := s.client.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

func (s *Store) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// notify announces topic locally and to other processes.
func (s *Store) notify(ctx context.Context, topic string) {
	s.hub.Publish(topic)
	if err := s.client.Publish(ctx, s.key("changes"), topic).Err(); err != nil {
		s.log.Warn(ctx, "publish change failed", logger.String("topic", topic), logger.Error(err))
	}
}

func (s *Store) ListSeasons(ctx context.Context) ([]model.Season, error) {
	var out []model.Season
	err := s.listOrdered(ctx, s.key("seasons"), s.key("seasons", "data"), func(raw string) error {
		var season model.Season
		if err := json.Unmarshal([]byte(raw), &season); err != nil {
			return err
		}
		out = append(out, season)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	if out == nil {
		out = []model.Season{}
	}
	return out, nil
}

func (s *Store) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	all, err := s.client.HGetAll(ctx, s.key("participants")).Result()
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	out := make([]model.Participant, 0, len(all))
	for id, name := range all {
		out = append(out, model.Participant{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListEvents(ctx context.Context, seasonID string) ([]model.Event, error) {
	var out []model.Event
	err := s.listOrdered(ctx, s.key("events", seasonID), s.key("events", seasonID, "data"), func(raw string) error {
		var e model.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if out == nil {
		out = []model.Event{}
	}
	return out, nil
}

// listOrdered reads ids from the zset in score order and decodes their hash values.
func (s *Store) listOrdered(ctx context.Context, orderKey, dataKey string, decode func(string) error) error {
	ids, err := s.client.ZRange(ctx, orderKey, 0, -1).Result()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	values, err := s.client.HMGet(ctx, dataKey, ids...).Result()
	if err != nil {
		return err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Deleted between the two reads.
			continue
		}
		if err := decode(raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) WatchSeasons(ctx context.Context) (<-chan []model.Season, error) {
	return repository.Watch(ctx, s.hub, repository.TopicSeasons, s.ListSeasons)
}

func (s *Store) WatchParticipants(ctx context.Context) (<-chan []model.Participant, error) {
	return repository.Watch(ctx, s.hub, repository.TopicParticipants, s.ListParticipants)
}

func (s *Store) WatchEvents(ctx context.Context, seasonID string) (<-chan []model.Event, error) {
	return repository.Watch(ctx, s.hub, repository.TopicEvents(seasonID), func(ctx context.Context) ([]model.Event, error) {
		return s.ListEvents(ctx, seasonID)
	})
}

// put stores raw under id, keeping the original position when id exists.
func (s *Store) put(ctx context.Context, orderKey, dataKey, id string, raw []byte) error {
	seq, err := s.client.Incr(ctx, s.key("seq")).Result()
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZAddNX(ctx, orderKey, goredis.Z{Score: float64(seq), Member: id})
		p.HSet(ctx, dataKey, id, raw)
		return nil
	})
	return err
}

func (s *Store) CreateSeason(ctx context.Context, season model.Season) (string, error) {
	if season.ID == "" {
		season.ID = repository.NewID()
	}
	if season.CreatedAt.IsZero() {
		season.CreatedAt = s.now().UTC()
	}
	raw, err := json.Marshal(season)
	if err != nil {
		return "", fmt.Errorf("encode season: %w", err)
	}
	if err := s.put(ctx, s.key("seasons"), s.key("seasons", "data"), season.ID, raw); err != nil {
		return "", fmt.Errorf("create season: %w", err)
	}
	s.notify(ctx, repository.TopicSeasons)
	return season.ID, nil
}

func (s *Store) CreateEvent(ctx context.Context, seasonID string, e model.Event) (string, error) {
	if e.ID == "" {
		e.ID = repository.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	e.SeasonID = seasonID
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	if err := s.put(ctx, s.key("events", seasonID), s.key("events", seasonID, "data"), e.ID, raw); err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	s.notify(ctx, repository.TopicEvents(seasonID))
	return e.ID, nil
}

func (s *Store) UpsertParticipants(ctx context.Context, ps ...model.Participant) error {
	if len(ps) == 0 {
		return nil
	}
	values := make([]any, 0, 2*len(ps))
	for _, p := range ps {
		values = append(values, p.ID, p.Name)
	}
	if err := s.client.HSet(ctx, s.key("participants"), values...).Err(); err != nil {
		return fmt.Errorf("upsert participants: %w", err)
	}
	s.notify(ctx, repository.TopicParticipants)
	return nil
}

// maxPatchAttempts bounds optimistic retries when a concurrent write touches the event.
const maxPatchAttempts = 5

// PatchEvent rewrites one event's points under WATCH, so a concurrent delete
// either wins outright or makes the patch report ErrNotFound.
func (s *Store) PatchEvent(ctx context.Context, seasonID, eventID string, points int) error {
	indexKey := s.key("events", seasonID)
	dataKey := s.key("events", seasonID, "data")
	notFound := fmt.Errorf("%w: event %s/%s", repository.ErrNotFound, seasonID, eventID)

	patch := func(tx *goredis.Tx) error {
		if _, err := tx.ZScore(ctx, indexKey, eventID).Result(); errors.Is(err, goredis.Nil) {
			return notFound
		} else if err != nil {
			return err
		}
		raw, err := tx.HGet(ctx, dataKey, eventID).Result()
		if errors.Is(err, goredis.Nil) {
			return notFound
		}
		if err != nil {
			return err
		}
		var e model.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return fmt.Errorf("decode event %s: %w", eventID, err)
		}
		e.Points = points
		updated, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.HSet(ctx, dataKey, eventID, updated)
			return nil
		})
		return err
	}

	for range maxPatchAttempts {
		err := s.client.Watch(ctx, patch, indexKey, dataKey)
		switch {
		case err == nil:
			s.notify(ctx, repository.TopicEvents(seasonID))
			return nil
		case errors.Is(err, goredis.TxFailedErr):
			continue
		case errors.Is(err, repository.ErrNotFound):
			return err
		default:
			return fmt.Errorf("patch event: %w", err)
		}
	}
	return fmt.Errorf("patch event %s: %w", eventID, goredis.TxFailedErr)
}

func (s *Store) DeleteEventsForSeason(ctx context.Context, seasonID string) error {
	if err := s.client.Del(ctx, s.key("events", seasonID), s.key("events", seasonID, "data")).Err(); err != nil {
		return fmt.Errorf("delete season events: %w", err)
	}
	s.notify(ctx, repository.TopicEvents(seasonID))
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, seasonID, eventID string) error {
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZRem(ctx, s.key("events", seasonID), eventID)
		p.HDel(ctx, s.key("events", seasonID, "data"), eventID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.notify(ctx, repository.TopicEvents(seasonID))
	return nil
}

func (s *Store) DeleteSeason(ctx context.Context, seasonID string) error {
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZRem(ctx, s.key("seasons"), seasonID)
		p.HDel(ctx, s.key("seasons", "data"), seasonID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete season: %w", err)
	}
	s.notify(ctx, repository.TopicSeasons)
	return nil
}
