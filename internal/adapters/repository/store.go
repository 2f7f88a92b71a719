// Package repository defines the event store contract shared by every backend,
// the change hub that drives snapshot delivery, and the in-memory backend.
package repository

import (
	"context"

	"github.com/okian/reto/internal/domain/model"
)

// Store is the source of truth for seasons, participants and point events.
//
// Lists return whole collections. Watch* deliver the current collection
// immediately and again after every change; a slow reader only ever sees the
// newest snapshot. Ordering: seasons and events in creation order,
// participants by id.
type Store interface {
	ListSeasons(ctx context.Context) ([]model.Season, error)
	ListParticipants(ctx context.Context) ([]model.Participant, error)
	ListEvents(ctx context.Context, seasonID string) ([]model.Event, error)

	WatchSeasons(ctx context.Context) (<-chan []model.Season, error)
	WatchParticipants(ctx context.Context) (<-chan []model.Participant, error)
	WatchEvents(ctx context.Context, seasonID string) (<-chan []model.Event, error)

	// CreateSeason stores s and returns its id, assigning one when s.ID is empty.
	CreateSeason(ctx context.Context, s model.Season) (string, error)
	// CreateEvent appends e to the season and returns its id, assigning one when e.ID is empty.
	CreateEvent(ctx context.Context, seasonID string, e model.Event) (string, error)
	// UpsertParticipants writes each participant at its id, overwriting the name.
	UpsertParticipants(ctx context.Context, ps ...model.Participant) error
	// PatchEvent overwrites the points of one event. Unknown events yield ErrNotFound.
	PatchEvent(ctx context.Context, seasonID, eventID string, points int) error

	DeleteEventsForSeason(ctx context.Context, seasonID string) error
	DeleteEvent(ctx context.Context, seasonID, eventID string) error
	DeleteSeason(ctx context.Context, seasonID string) error

	Close() error
}

// Change topics published on a Hub.
const (
	TopicSeasons      = "seasons"
	TopicParticipants = "participants"
	topicEventsPrefix = "events/"
)

// TopicEvents is the change topic of one season's events.
func TopicEvents(seasonID string) string {
	return topicEventsPrefix + seasonID
}
