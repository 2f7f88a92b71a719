// Package types contains the view shapes shared by the HTTP API and the live feed.
package types

import (
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/scoring"
)

// Season is the public view of a season.
type Season struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	StartDate     string         `json:"start_date"`
	DailyLimit    int            `json:"daily_limit"`
	Participants  []string       `json:"participants"`
	InitialPoints map[string]int `json:"initial_points"`
}

// Entry is one leaderboard row. Rank is null when unranked.
type Entry struct {
	Rank          *int   `json:"rank"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Badge         string `json:"badge,omitempty"`
}

// DayStatus is a participant's standing against the daily cap.
type DayStatus struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Remaining     int    `json:"remaining"`
	CanAdd        bool   `json:"can_add"`
}

// Day groups the day statuses of a season for one date.
type Day struct {
	Date         string      `json:"date"`
	Limit        int         `json:"limit"`
	Participants []DayStatus `json:"participants"`
}

// HistoryEntry is a point event with its participant's display name.
type HistoryEntry struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Date          string `json:"date"`
	Points        int    `json:"points"`
}

// View is the full picture a session sees, pushed over the live feed.
type View struct {
	Type         string         `json:"type"`
	Seasons      []Season       `json:"seasons"`
	ActiveSeason *Season        `json:"active_season"`
	Scoreboard   []Entry        `json:"scoreboard"`
	DayStatus    *Day           `json:"day_status"`
	History      []HistoryEntry `json:"history"`
}

// ViewType tags View messages on the feed.
const ViewType = "view"

// FromSeason converts a model season.
func FromSeason(s model.Season) Season {
	out := Season{
		ID:            s.ID,
		Name:          s.Name,
		StartDate:     s.StartDate,
		DailyLimit:    s.DailyLimit,
		Participants:  s.Participants,
		InitialPoints: s.InitialPoints,
	}
	if out.Participants == nil {
		out.Participants = []string{}
	}
	if out.InitialPoints == nil {
		out.InitialPoints = map[string]int{}
	}
	return out
}

// FromSeasons converts a slice of model seasons.
func FromSeasons(ss []model.Season) []Season {
	out := make([]Season, len(ss))
	for i, s := range ss {
		out[i] = FromSeason(s)
	}
	return out
}

// FromStandings converts computed standings to leaderboard entries.
func FromStandings(standings []scoring.Standing) []Entry {
	out := make([]Entry, len(standings))
	for i, s := range standings {
		out[i] = Entry{
			ParticipantID: s.Participant.ID,
			Name:          s.Participant.Name,
			Points:        s.Total,
			Badge:         string(s.Badge),
		}
		if s.Ranked() {
			rank := s.Rank
			out[i].Rank = &rank
		}
	}
	return out
}

// BoostShortcut is a configured one-click admin boost.
type BoostShortcut struct {
	ParticipantID string `json:"participant_id"`
	Points        int    `json:"points"`
	Label         string `json:"label"`
}

// SeasonList is the season selector: every season plus the session's active one.
type SeasonList struct {
	Seasons  []Season `json:"seasons"`
	ActiveID string   `json:"active_id,omitempty"`
}
