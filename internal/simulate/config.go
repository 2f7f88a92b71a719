package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Requests   int           // Number of grant/boost requests to send
	Days       int           // Spread grants over this many days ending today
	BoostRatio float64       // Share of requests sent as boosts
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for the scoreboard to catch up
	Cleanup    bool          // Delete the simulated season afterwards
	OutputFile string        // Output file for accepted events
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
	Seed       uint64        // Random seed; 0 picks one
}

// Request is one planned write.
type Request struct {
	Key           string `json:"key"`
	ParticipantID string `json:"participant_id"`
	Date          string `json:"date,omitempty"`
	Points        int    `json:"points"`
	Boost         bool   `json:"boost"`
}

// Event is an accepted write as returned by the service.
type Event struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	Date          string `json:"date"`
	Points        int    `json:"points"`
	Boost         bool   `json:"boost,omitempty"`
}

// Entry represents a scoreboard row.
type Entry struct {
	Rank          *int   `json:"rank"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Badge         string `json:"badge"`
}

// Season is the subset of the season view the simulation reads.
type Season struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	DailyLimit    int            `json:"daily_limit"`
	Participants  []string       `json:"participants"`
	InitialPoints map[string]int `json:"initial_points"`
}

// Stats holds run statistics.
type Stats struct {
	RequestsPlanned int
	Accepted        int
	Replayed        int
	Capped          int
	Throttled       int
	Failed          int
	Overshoot       int
	Participants    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
