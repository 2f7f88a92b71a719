package model

import "time"

// Season is a scoring period with its own roster snapshot, daily cap and seed scores.
type Season struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StartDate  string `json:"start_date"`
	DailyLimit int    `json:"daily_limit"`
	// Participants is the roster snapshot taken at creation. Empty means the whole roster.
	Participants  []string       `json:"participants,omitempty"`
	InitialPoints map[string]int `json:"initial_points,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// HasSnapshot reports whether the season restricts its roster.
func (s Season) HasSnapshot() bool {
	return len(s.Participants) > 0
}

// Enrolls reports whether participantID takes part in the season.
func (s Season) Enrolls(participantID string) bool {
	if !s.HasSnapshot() {
		return true
	}
	for _, id := range s.Participants {
		if id == participantID {
			return true
		}
	}
	return false
}

// Initial returns the seed score of participantID, 0 when absent.
func (s Season) Initial(participantID string) int {
	return s.InitialPoints[participantID]
}

// FindSeason returns the season with id from seasons.
func FindSeason(seasons []Season, id string) (Season, bool) {
	for _, s := range seasons {
		if s.ID == id {
			return s, true
		}
	}
	return Season{}, false
}
