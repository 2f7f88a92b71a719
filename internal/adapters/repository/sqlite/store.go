// Package sqlite provides a durable SQLite-backed event store.
//
// Change notification is process-local: watchers see writes made through
// the same Store value.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/reto/internal/domain/model"
)

// Store persists seasons, participants and events in SQLite.
type Store struct {
	sqlDB *sql.DB
	hub   *repository.Hub
	now   func() time.Time
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

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes writers and avoids SQLITE_BUSY between them.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{sqlDB: sqlDB, hub: repository.NewHub(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close ends all watches and closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	s.hub.Close()
	return s.sqlDB.Close()
}

func (s *Store) ListSeasons(ctx context.Context) ([]model.Season, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, start_date, daily_limit, participants, initial_points, created_at
FROM seasons ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	out := []model.Season{}
	for rows.Next() {
		var (
			season       model.Season
			participants sql.NullString
			initial      string
			createdAt    int64
		)
		if err := rows.Scan(&season.ID, &season.Name, &season.StartDate, &season.DailyLimit,
			&participants, &initial, &createdAt); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		if participants.Valid {
			if err := json.Unmarshal([]byte(participants.String), &season.Participants); err != nil {
				return nil, fmt.Errorf("decode season %s participants: %w", season.ID, err)
			}
		}
		if err := json.Unmarshal([]byte(initial), &season.InitialPoints); err != nil {
			return nil, fmt.Errorf("decode season %s initial points: %w", season.ID, err)
		}
		if len(season.InitialPoints) == 0 {
			season.InitialPoints = nil
		}
		season.CreatedAt = fromMillis(createdAt)
		out = append(out, season)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	return out, nil
}

func (s *Store) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name FROM participants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

func (s *Store) ListEvents(ctx context.Context, seasonID string) ([]model.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, season_id, participant_id, date, points, created_at
FROM events WHERE season_id = ? ORDER BY seq`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var (
			e         model.Event
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.SeasonID, &e.ParticipantID, &e.Date, &e.Points, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
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

func (s *Store) CreateSeason(ctx context.Context, season model.Season) (string, error) {
	if season.ID == "" {
		season.ID = repository.NewID()
	}
	if season.CreatedAt.IsZero() {
		season.CreatedAt = s.now()
	}
	var participants sql.NullString
	if len(season.Participants) > 0 {
		raw, err := json.Marshal(season.Participants)
		if err != nil {
			return "", fmt.Errorf("encode participants: %w", err)
		}
		participants = sql.NullString{String: string(raw), Valid: true}
	}
	initial := season.InitialPoints
	if initial == nil {
		initial = map[string]int{}
	}
	rawInitial, err := json.Marshal(initial)
	if err != nil {
		return "", fmt.Errorf("encode initial points: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO seasons (id, name, start_date, daily_limit, participants, initial_points, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    start_date = excluded.start_date,
    daily_limit = excluded.daily_limit,
    participants = excluded.participants,
    initial_points = excluded.initial_points`,
		season.ID, season.Name, season.StartDate, season.DailyLimit, participants, string(rawInitial), toMillis(season.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert season: %w", err)
	}
	s.hub.Publish(repository.TopicSeasons)
	return season.ID, nil
}

func (s *Store) CreateEvent(ctx context.Context, seasonID string, e model.Event) (string, error) {
	if e.ID == "" {
		e.ID = repository.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO events (id, season_id, participant_id, date, points, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    participant_id = excluded.participant_id,
    date = excluded.date,
    points = excluded.points`,
		e.ID, seasonID, e.ParticipantID, e.Date, e.Points, toMillis(e.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	s.hub.Publish(repository.TopicEvents(seasonID))
	return e.ID, nil
}

func (s *Store) UpsertParticipants(ctx context.Context, ps ...model.Participant) error {
	if len(ps) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert participants: %w", err)
	}
	now := toMillis(s.now())
	for _, p := range ps {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO participants (id, name, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
			p.ID, p.Name, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert participant %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit participants: %w", err)
	}
	s.hub.Publish(repository.TopicParticipants)
	return nil
}

func (s *Store) PatchEvent(ctx context.Context, seasonID, eventID string, points int) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE events SET points = ? WHERE season_id = ? AND id = ?`, points, seasonID, eventID)
	if err != nil {
		return fmt.Errorf("patch event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("patch event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: event %s/%s", repository.ErrNotFound, seasonID, eventID)
	}
	s.hub.Publish(repository.TopicEvents(seasonID))
	return nil
}

func (s *Store) DeleteEventsForSeason(ctx context.Context, seasonID string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM events WHERE season_id = ?`, seasonID); err != nil {
		return fmt.Errorf("delete season events: %w", err)
	}
	s.hub.Publish(repository.TopicEvents(seasonID))
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, seasonID, eventID string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM events WHERE season_id = ? AND id = ?`, seasonID, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.hub.Publish(repository.TopicEvents(seasonID))
	return nil
}

func (s *Store) DeleteSeason(ctx context.Context, seasonID string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM seasons WHERE id = ?`, seasonID); err != nil {
		return fmt.Errorf("delete season: %w", err)
	}
	s.hub.Publish(repository.TopicSeasons)
	return nil
}
