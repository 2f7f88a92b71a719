package queue

import (
	"time"

	"github.com/okian/reto/internal/domain/model"
)

// Kind names a store mutation.
type Kind string

// Mutation kinds, one per store write.
const (
	KindCreateSeason       Kind = "create_season"
	KindCreateEvent        Kind = "create_event"
	KindUpsertParticipants Kind = "upsert_participants"
	KindPatchEvent         Kind = "patch_event"
	KindDeleteEvent        Kind = "delete_event"
	KindResetSeason        Kind = "reset_season"
	KindDeleteSeason       Kind = "delete_season"
)

// Mutation is a store write waiting to be applied. Only the fields its Kind
// needs are set.
type Mutation struct {
	Kind         Kind
	SeasonID     string
	EventID      string
	Season       model.Season
	Event        model.Event
	Participants []model.Participant
	Points       int
	EnqueuedAt   time.Time
}
