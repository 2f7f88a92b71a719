package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/reto/internal/adapters/mq/queue"
	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/domain/adjust"
	"github.com/okian/reto/internal/domain/confirm"
	"github.com/okian/reto/internal/domain/dailycap"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/roster"
	"github.com/okian/reto/internal/domain/scoring"
	"github.com/okian/reto/internal/domain/season"
	"github.com/okian/reto/internal/domain/types"
	"github.com/okian/reto/pkg/logger"
	"github.com/okian/reto/pkg/metrics"
)

// Confirmation prompts shown before destructive actions.
const (
	promptDeleteEvent  = "¿Seguro que quieres borrar esta actividad?"
	promptResetSeason  = "¿Seguro que quieres borrar TODAS las actividades de %s?"
	promptDeleteSeason = "¿Seguro que quieres borrar la temporada %s y todas sus actividades?"
)

// Session is one caller's view of the scoreboard. It holds the active season
// selection, which is never persisted.
type Session struct {
	id  string
	svc *Service

	mu   sync.Mutex
	sel  season.Selection
	seen time.Time
}

// Correction is the outcome of Correct.
type Correction struct {
	Delta   int
	Written bool
	Event   *model.Event
}

// ID returns the session id.
func (ss *Session) ID() string { return ss.id }

func (ss *Session) touch(t time.Time) {
	ss.mu.Lock()
	ss.seen = t
	ss.mu.Unlock()
}

func (ss *Session) lastSeen() time.Time {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.seen
}

func (ss *Session) selection() season.Selection {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.sel
}

// forget clears an explicit selection of any of ids.
func (ss *Session) forget(ids []string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.sel.Explicit && slices.Contains(ids, ss.sel.ID) {
		ss.sel = ss.sel.Clear()
	}
}

// Select makes seasonID active for this session. An id no season has leaves
// the session without an active season; an empty id goes back to the default.
func (ss *Session) Select(seasonID string) {
	seasonID = strings.TrimSpace(seasonID)
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if seasonID == "" {
		ss.sel = ss.sel.Clear()
		return
	}
	ss.sel = season.Select(seasonID)
}

func (ss *Session) active() (seasonContext, bool) {
	sel := ss.selection()
	return ss.svc.contextFor(func(seasons []model.Season) (model.Season, bool) {
		return season.Resolve(seasons, sel)
	})
}

// ActiveSeason resolves the session's active season against the latest snapshot.
func (ss *Session) ActiveSeason() (model.Season, bool) {
	sc, ok := ss.active()
	return sc.season, ok
}

// Seasons lists every season and marks the active one.
func (ss *Session) Seasons() types.SeasonList {
	out := types.SeasonList{Seasons: types.FromSeasons(ss.svc.Seasons())}
	if active, ok := ss.ActiveSeason(); ok {
		out.ActiveID = active.ID
	}
	return out
}

// Scoreboard ranks the active season's participants.
func (ss *Session) Scoreboard() ([]types.Entry, error) {
	sc, ok := ss.active()
	if !ok {
		return nil, ErrNoActiveSeason
	}
	return sc.scoreboard(), nil
}

// DayStatus reports each participant's points on date; blank means today.
func (ss *Session) DayStatus(date string) (types.Day, error) {
	date, err := ss.svc.date(date)
	if err != nil {
		return types.Day{}, err
	}
	sc, ok := ss.active()
	if !ok {
		return types.Day{}, ErrNoActiveSeason
	}
	return sc.day(date), nil
}

// History lists the active season's events, optionally for one participant.
func (ss *Session) History(participantID string) ([]types.HistoryEntry, error) {
	sc, ok := ss.active()
	if !ok {
		return nil, ErrNoActiveSeason
	}
	return sc.history(strings.TrimSpace(participantID)), nil
}

// View is everything the live page shows for date.
func (ss *Session) View(date string) types.View {
	v := types.View{
		Type:       types.ViewType,
		Seasons:    types.FromSeasons(ss.svc.Seasons()),
		Scoreboard: []types.Entry{},
		History:    []types.HistoryEntry{},
	}
	sc, ok := ss.active()
	if !ok {
		return v
	}
	active := types.FromSeason(sc.season)
	v.ActiveSeason = &active
	v.Scoreboard = sc.scoreboard()
	v.History = sc.history("")
	if d, err := ss.svc.date(date); err == nil {
		day := sc.day(d)
		v.DayStatus = &day
	}
	return v
}

// CreateSeason validates d and queues the new season. It does not become active.
func (ss *Session) CreateSeason(ctx context.Context, d season.Draft) (model.Season, error) {
	ss.svc.intentMu.Lock()
	defer ss.svc.intentMu.Unlock()

	s, err := season.Build(d, ss.svc.seasonCount(), ss.svc.Participants())
	if err != nil {
		return model.Season{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	s.ID = repository.NewID()
	s.CreatedAt = ss.svc.now().UTC()

	untrack := ss.svc.trackSeason(s.ID)
	if err := ss.svc.enqueue(ctx, queue.Mutation{Kind: queue.KindCreateSeason, SeasonID: s.ID, Season: s}); err != nil {
		untrack()
		return model.Season{}, err
	}
	metrics.RecordSeasonCreated()
	ss.svc.logger.Info(ctx, "season created", logger.String("season", s.ID), logger.String("name", s.Name))
	return s, nil
}

// AddParticipant adds name to the roster. Blank names are ignored: added is false.
// Adding a name whose id exists overwrites the display name.
func (ss *Session) AddParticipant(ctx context.Context, name string) (p model.Participant, added bool, err error) {
	name, ok := roster.Normalize(name)
	if !ok {
		return model.Participant{}, false, nil
	}
	p = model.Participant{ID: roster.NewID(name), Name: name}
	if err := ss.svc.enqueue(ctx, queue.Mutation{Kind: queue.KindUpsertParticipants, Participants: []model.Participant{p}}); err != nil {
		return model.Participant{}, false, err
	}
	metrics.RecordParticipantAdded()
	return p, true, nil
}

// Grant adds one point to participantID on date (blank means today) if the
// daily cap allows it. A repeated idempotency key returns the first result
// without writing again.
func (ss *Session) Grant(ctx context.Context, participantID, date, key string) (model.Event, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return model.Event{}, fmt.Errorf("%w: participant is required", ErrValidation)
	}
	date, err := ss.svc.date(date)
	if err != nil {
		return model.Event{}, err
	}
	sc, ok := ss.active()
	if !ok {
		return model.Event{}, ErrNoActiveSeason
	}

	e := model.Event{
		SeasonID:      sc.season.ID,
		ParticipantID: participantID,
		Date:          date,
		Points:        1,
	}
	return ss.append(ctx, key, e, func() error {
		// Re-read under the intent lock so grants queued a moment ago count.
		sc, ok := ss.svc.seasonContext(e.SeasonID)
		if !ok {
			return ErrNoActiveSeason
		}
		if err := dailycap.Allow(sc.season, sc.events, participantID, date, 1); err != nil {
			var limit *dailycap.LimitError
			if errors.As(err, &limit) {
				metrics.RecordGrant(false)
				return &CapExceededError{Limit: limit.Limit}
			}
			return err
		}
		return nil
	}, func() { metrics.RecordGrant(true) })
}

// Boost adds points to participantID today, bypassing the daily cap.
func (ss *Session) Boost(ctx context.Context, participantID string, points float64, key string) (model.Event, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return model.Event{}, fmt.Errorf("%w: participant is required", ErrValidation)
	}
	p, err := adjust.Boost(points)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	sc, ok := ss.active()
	if !ok {
		return model.Event{}, ErrNoActiveSeason
	}

	e := model.Event{
		SeasonID:      sc.season.ID,
		ParticipantID: participantID,
		Date:          ss.svc.today(),
		Points:        p,
	}
	return ss.append(ctx, key, e, nil, metrics.RecordBoost)
}

// append claims key, runs check and queues e. The key is released when e is
// not queued so the request can be retried. A replayed key returns the event
// its first use produced; reusing it for a different write is a validation error.
func (ss *Session) append(ctx context.Context, key string, e model.Event, check func() error, done func()) (model.Event, error) { //nolint:gocritic // hugeParam
	e.ID = repository.NewID()
	e.CreatedAt = ss.svc.now().UTC()

	key = strings.TrimSpace(key)
	deduper := ss.svc.idempotency()
	if key != "" && deduper != nil {
		key = ss.id + "|" + key
		if stored, seen := deduper.Claim(ctx, key, e); seen {
			if !sameWrite(stored, e) {
				return model.Event{}, fmt.Errorf("%w: idempotency key was used for a different request", ErrValidation)
			}
			metrics.RecordIdempotentReplay()
			return stored, nil
		}
	}
	release := func() {
		if key != "" && deduper != nil {
			deduper.Release(ctx, key)
		}
	}

	ss.svc.intentMu.Lock()
	defer ss.svc.intentMu.Unlock()

	if check != nil {
		if err := check(); err != nil {
			release()
			return model.Event{}, err
		}
	}
	untrack := ss.svc.track(e)
	if err := ss.svc.enqueue(ctx, queue.Mutation{Kind: queue.KindCreateEvent, SeasonID: e.SeasonID, Event: e}); err != nil {
		untrack()
		release()
		return model.Event{}, err
	}
	if done != nil {
		done()
	}
	return e, nil
}

// sameWrite reports whether a and b describe the same point write.
func sameWrite(a, b model.Event) bool { //nolint:gocritic // hugeParam
	return a.SeasonID == b.SeasonID &&
		a.ParticipantID == b.ParticipantID &&
		a.Date == b.Date &&
		a.Points == b.Points
}

// Correct brings participantID's total to newTotal by appending the difference
// dated today. currentTotal is the total the caller saw; nil uses the latest
// snapshot. Matching totals write nothing.
func (ss *Session) Correct(ctx context.Context, participantID string, newTotal float64, currentTotal *int) (Correction, error) {
	participantID = strings.TrimSpace(participantID)
	ss.svc.intentMu.Lock()
	defer ss.svc.intentMu.Unlock()

	sc, ok := ss.active()
	if !ok {
		return Correction{}, ErrNoActiveSeason
	}

	current := 0
	if currentTotal != nil {
		current = *currentTotal
	} else {
		total, found := scoring.TotalOf(sc.standings(), participantID)
		if !found {
			metrics.RecordCorrection("invalid")
			return Correction{}, fmt.Errorf("%w: %s is not on the scoreboard", ErrValidation, participantID)
		}
		current = total
	}

	delta, write, err := adjust.Correction(newTotal, current)
	if err != nil {
		metrics.RecordCorrection("invalid")
		return Correction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !write {
		metrics.RecordCorrection("noop")
		return Correction{}, nil
	}

	e := model.Event{
		ID:            repository.NewID(),
		SeasonID:      sc.season.ID,
		ParticipantID: participantID,
		Date:          ss.svc.today(),
		Points:        delta,
		CreatedAt:     ss.svc.now().UTC(),
	}
	untrack := ss.svc.track(e)
	if err := ss.svc.enqueue(ctx, queue.Mutation{Kind: queue.KindCreateEvent, SeasonID: e.SeasonID, Event: e}); err != nil {
		untrack()
		return Correction{}, err
	}
	metrics.RecordCorrection("written")
	return Correction{Delta: delta, Written: true, Event: &e}, nil
}

// EditEvent overwrites the points of one event in the active season. Points
// that are not a non-negative whole number are ignored without error.
func (ss *Session) EditEvent(ctx context.Context, eventID string, points float64) error {
	p, valid := adjust.EditPoints(points)
	if !valid {
		return nil
	}
	sc, ok := ss.active()
	if !ok {
		return ErrNoActiveSeason
	}
	if _, found := sc.event(eventID); !found {
		return fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	if err := ss.svc.enqueue(ctx, queue.Mutation{Kind: queue.KindPatchEvent, SeasonID: sc.season.ID, EventID: eventID, Points: p}); err != nil {
		return err
	}
	ss.svc.patchTracked(sc.season.ID, eventID, p)
	metrics.RecordEventEdited()
	return nil
}

// RequestDeleteEvent asks for confirmation before deleting one event.
func (ss *Session) RequestDeleteEvent(eventID string) (confirm.Pending, error) {
	sc, ok := ss.active()
	if !ok {
		return confirm.Pending{}, ErrNoActiveSeason
	}
	if _, found := sc.event(eventID); !found {
		return confirm.Pending{}, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	return ss.request(confirm.Action{
		Kind:     confirm.KindDeleteEvent,
		SeasonID: sc.season.ID,
		EventID:  eventID,
		Prompt:   promptDeleteEvent,
	})
}

// RequestResetSeason asks for confirmation before deleting every event of the active season.
func (ss *Session) RequestResetSeason() (confirm.Pending, error) {
	sc, ok := ss.active()
	if !ok {
		return confirm.Pending{}, ErrNoActiveSeason
	}
	return ss.request(confirm.Action{
		Kind:     confirm.KindResetSeason,
		SeasonID: sc.season.ID,
		Prompt:   fmt.Sprintf(promptResetSeason, sc.season.Name),
	})
}

// RequestDeleteSeason asks for confirmation before deleting the active season.
func (ss *Session) RequestDeleteSeason() (confirm.Pending, error) {
	sc, ok := ss.active()
	if !ok {
		return confirm.Pending{}, ErrNoActiveSeason
	}
	return ss.request(confirm.Action{
		Kind:     confirm.KindDeleteSeason,
		SeasonID: sc.season.ID,
		Prompt:   fmt.Sprintf(promptDeleteSeason, sc.season.Name),
	})
}

func (ss *Session) request(a confirm.Action) (confirm.Pending, error) {
	gate := ss.svc.confirmGate()
	if gate == nil {
		return confirm.Pending{}, ErrNotStarted
	}
	p := gate.Request(ss.id, a)
	metrics.RecordConfirmation(string(a.Kind), "requested")
	return p, nil
}

// Confirm runs the action behind token. Tokens are single-use and only valid
// for the session that requested them.
func (ss *Session) Confirm(ctx context.Context, token string) (confirm.Action, error) {
	gate := ss.svc.confirmGate()
	if gate == nil {
		return confirm.Action{}, ErrNotStarted
	}
	taken, err := gate.TakePending(ss.id, token)
	if err != nil {
		if errors.Is(err, confirm.ErrExpired) {
			metrics.RecordConfirmation("unknown", "expired")
		}
		return confirm.Action{}, fmt.Errorf("%w: %w", ErrUnknownConfirmation, err)
	}
	a := taken.Action

	m := queue.Mutation{SeasonID: a.SeasonID, EventID: a.EventID}
	switch a.Kind {
	case confirm.KindDeleteEvent:
		m.Kind = queue.KindDeleteEvent
	case confirm.KindResetSeason:
		m.Kind = queue.KindResetSeason
	case confirm.KindDeleteSeason:
		m.Kind = queue.KindDeleteSeason
	default:
		return confirm.Action{}, fmt.Errorf("%w: action %q", ErrUnknownConfirmation, a.Kind)
	}
	if err := ss.svc.enqueue(ctx, m); err != nil {
		// Nothing ran; the same token can be confirmed again.
		gate.Restore(taken)
		return confirm.Action{}, err
	}
	if a.Kind == confirm.KindDeleteSeason {
		ss.forget([]string{a.SeasonID})
	}

	metrics.RecordConfirmation(string(a.Kind), "confirmed")
	ss.svc.logger.Info(ctx, "destructive action confirmed",
		logger.String("action", string(a.Kind)),
		logger.String("season", a.SeasonID),
		logger.String("event", a.EventID),
	)
	return a, nil
}

// Cancel discards the action behind token.
func (ss *Session) Cancel(token string) error {
	gate := ss.svc.confirmGate()
	if gate == nil {
		return ErrNotStarted
	}
	a, err := gate.Cancel(ss.id, token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownConfirmation, err)
	}
	metrics.RecordConfirmation(string(a.Kind), "cancelled")
	return nil
}
