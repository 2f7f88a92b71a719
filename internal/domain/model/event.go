// Package model contains domain models passed between layers.
package model

import "time"

// Event is a signed point delta for one participant on one calendar day of a season.
// Grants (+1), boosts and corrections share this shape; only Points is mutable.
type Event struct {
	ID            string    `json:"id"`
	SeasonID      string    `json:"season_id"`
	ParticipantID string    `json:"participant_id"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Points        int       `json:"points"`
	CreatedAt     time.Time `json:"created_at"`
}

// SumFor returns the total points events hold for participantID.
func SumFor(events []Event, participantID string) int {
	total := 0
	for _, e := range events {
		if e.ParticipantID == participantID {
			total += e.Points
		}
	}
	return total
}
