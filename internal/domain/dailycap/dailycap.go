// Package dailycap enforces the per-participant, per-day point limit of a season.
package dailycap

import (
	"errors"
	"fmt"

	"github.com/okian/reto/internal/domain/model"
)

// DefaultLimit applies when a season carries no usable daily limit.
const DefaultLimit = 2

// ErrLimitReached is returned when a grant would push a day over the limit.
var ErrLimitReached = errors.New("daily limit reached")

// LimitError names the limit that refused a grant.
type LimitError struct {
	Limit   int
	Current int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily limit of %d points reached (already %d)", e.Limit, e.Current)
}

func (e *LimitError) Unwrap() error { return ErrLimitReached }

// Limit returns the season's limit, DefaultLimit when unset.
func Limit(s model.Season) int {
	if s.DailyLimit <= 0 {
		return DefaultLimit
	}
	return s.DailyLimit
}

// PointsForDay sums the points participantID holds on date among events.
func PointsForDay(events []model.Event, participantID, date string) int {
	if date == "" {
		return 0
	}
	total := 0
	for _, e := range events {
		if e.ParticipantID == participantID && e.Date == date {
			total += e.Points
		}
	}
	return total
}

// Allow checks whether increment more points fit under the season's limit on date.
// It returns a *LimitError when they do not.
func Allow(s model.Season, events []model.Event, participantID, date string, increment int) error {
	current := PointsForDay(events, participantID, date)
	limit := Limit(s)
	if current+increment > limit {
		return &LimitError{Limit: limit, Current: current}
	}
	return nil
}

// Remaining is how many points participantID can still earn on date, never negative.
func Remaining(s model.Season, events []model.Event, participantID, date string) int {
	left := Limit(s) - PointsForDay(events, participantID, date)
	if left < 0 {
		return 0
	}
	return left
}
