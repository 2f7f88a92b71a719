// Package scoring turns a season's point events into a ranked leaderboard.
package scoring

import (
	"sort"

	"github.com/okian/reto/internal/domain/model"
)

// Badge marks the first three positions of a leaderboard.
type Badge string

// Badges awarded to positions 1-3 with a positive total.
const (
	BadgeNone   Badge = ""
	BadgeGold   Badge = "gold"
	BadgeSilver Badge = "silver"
	BadgeBronze Badge = "bronze"
)

var podium = [...]Badge{BadgeGold, BadgeSilver, BadgeBronze}

// Standing is one leaderboard row. Rank is 0 when the participant is unranked.
type Standing struct {
	Participant model.Participant
	Total       int
	Rank        int
	Badge       Badge
}

// Ranked reports whether the standing carries a position.
func (s Standing) Ranked() bool { return s.Rank > 0 }

// Compute totals every roster participant and orders them.
//
// A total is the sum of the participant's events plus initialPoints (0 when
// absent). Events for ids outside roster are ignored. Rows are sorted by
// total descending; ties keep roster order. A zero total is unranked, and
// badges only go to positions 1-3 with a positive total.
func Compute(events []model.Event, initialPoints map[string]int, roster []model.Participant) []Standing {
	totals := make(map[string]int, len(roster))
	for _, p := range roster {
		totals[p.ID] = initialPoints[p.ID]
	}
	for _, e := range events {
		if _, ok := totals[e.ParticipantID]; ok {
			totals[e.ParticipantID] += e.Points
		}
	}

	out := make([]Standing, len(roster))
	for i, p := range roster {
		out[i] = Standing{Participant: p, Total: totals[p.ID]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })

	for i := range out {
		if out[i].Total != 0 {
			out[i].Rank = i + 1
		}
		if i < len(podium) && out[i].Total > 0 {
			out[i].Badge = podium[i]
		}
	}
	return out
}

// TotalOf returns the computed total of participantID, and whether it is on the board.
func TotalOf(standings []Standing, participantID string) (int, bool) {
	for _, s := range standings {
		if s.Participant.ID == participantID {
			return s.Total, true
		}
	}
	return 0, false
}
