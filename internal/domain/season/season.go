// Package season builds new seasons from loosely typed drafts and resolves the active one.
package season

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/okian/reto/internal/domain/dailycap"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/roster"
)

// ErrInvalidStartDate is returned for a start date that is not YYYY-MM-DD.
var ErrInvalidStartDate = errors.New("invalid start date")

// Draft is a season creation request. Every field is optional.
type Draft struct {
	Name      string
	StartDate string
	// DailyLimit is nil when unset. Non-finite or sub-1 values fall back to the default.
	DailyLimit *float64
	// Participants defaults to the whole roster when empty.
	Participants []string
	// InitialPoints is read for the selected participants only; non-finite values become 0.
	InitialPoints map[string]float64
}

// DefaultName is the name given to the n-th season.
func DefaultName(n int) string {
	return fmt.Sprintf("Temporada %d", n)
}

// Build applies defaults and coercions to d. existing is the current season
// count and all is the current roster. The returned season has no id.
func Build(d Draft, existing int, all []model.Participant) (model.Season, error) {
	s := model.Season{
		Name:       strings.TrimSpace(d.Name),
		StartDate:  model.NormalizeDate(d.StartDate),
		DailyLimit: coerceLimit(d.DailyLimit),
	}
	if s.Name == "" {
		s.Name = DefaultName(existing + 1)
	}
	if !model.ValidDate(s.StartDate) {
		return model.Season{}, fmt.Errorf("%w: %q", ErrInvalidStartDate, s.StartDate)
	}

	s.Participants = uniqueIDs(d.Participants)
	if len(s.Participants) == 0 {
		s.Participants = roster.IDs(all)
	}

	s.InitialPoints = make(map[string]int, len(s.Participants))
	for _, id := range s.Participants {
		s.InitialPoints[id] = coercePoints(d.InitialPoints[id])
	}
	return s, nil
}

func coerceLimit(v *float64) int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return dailycap.DefaultLimit
	}
	limit := math.Floor(*v)
	if limit < 1 || limit > math.MaxInt32 {
		return dailycap.DefaultLimit
	}
	return int(limit)
}

func coercePoints(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return 0
	}
	return int(math.Trunc(v))
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Selection is a session's choice of active season.
// Without an explicit choice the first season in store order is active.
type Selection struct {
	ID       string
	Explicit bool
}

// Select pins id as the active season. Unknown ids are allowed.
func Select(id string) Selection {
	return Selection{ID: id, Explicit: true}
}

// Clear drops an explicit choice so the active season re-resolves.
func (sel Selection) Clear() Selection {
	return Selection{}
}

// Resolve returns the active season among seasons, ok=false when there is none.
func Resolve(seasons []model.Season, sel Selection) (model.Season, bool) {
	if !sel.Explicit {
		if len(seasons) == 0 {
			return model.Season{}, false
		}
		return seasons[0], true
	}
	return model.FindSeason(seasons, sel.ID)
}
