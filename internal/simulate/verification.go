package simulate

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/okian/reto/pkg/logger"
)

// Expected sums initial points and accepted events per participant.
func Expected(season Season, accepted []Event) map[string]int {
	out := make(map[string]int, len(season.Participants))
	for _, id := range season.Participants {
		out[id] = season.InitialPoints[id]
	}
	for _, e := range accepted {
		out[e.ParticipantID] += e.Points
	}
	return out
}

// Diff lists participants whose scoreboard total differs from want.
func Diff(want map[string]int, board []Entry) []string {
	got := make(map[string]int, len(board))
	for _, e := range board {
		got[e.ParticipantID] = e.Points
	}
	var out []string
	for id, w := range want {
		if got[id] != w {
			out = append(out, fmt.Sprintf("%s: want %d, got %d", id, w, got[id]))
		}
	}
	sort.Strings(out)
	return out
}

// Overshoot returns, per "participant date", how many accepted grants went
// past limit. Boosts are not capped and are skipped.
func Overshoot(limit int, accepted []Event) map[string]int {
	grants := make(map[string]int)
	for _, e := range accepted {
		if !e.Boost {
			grants[e.ParticipantID+" "+e.Date] += e.Points
		}
	}
	out := make(map[string]int)
	for k, n := range grants {
		if n > limit {
			out[k] = n - limit
		}
	}
	return out
}

// reportOvershoot logs grants that slipped past the daily cap while the read
// model lagged behind the store.
func reportOvershoot(ctx context.Context, season Season, accepted []Event, stats *Stats) {
	over := Overshoot(season.DailyLimit, accepted)
	log := logger.Get().Named("simulate")
	for k, n := range over {
		stats.Overshoot += n
		log.Warn(ctx, "daily cap overshoot", logger.String("day", k), logger.Int("extra", n), logger.Int("limit", season.DailyLimit))
	}
}

// verifyScoreboard polls the scoreboard until it matches the accepted writes
// or cfg.Settle passes.
func verifyScoreboard(ctx context.Context, cfg *Config, client *HTTPClient, season Season, accepted []Event) ([]Entry, error) {
	log := logger.Get().Named("simulate")
	want := Expected(season, accepted)
	deadline := time.Now().Add(cfg.Settle)

	var (
		board []Entry
		diff  []string
	)
	for {
		board = board[:0]
		if _, err := client.Do(ctx, http.MethodGet, "/api/scoreboard", nil, &board); err != nil {
			return nil, fmt.Errorf("read scoreboard: %w", err)
		}
		if diff = Diff(want, board); len(diff) == 0 {
			break
		}
		if time.Now().After(deadline) {
			return board, fmt.Errorf("scoreboard did not converge: %v", diff)
		}
		select {
		case <-ctx.Done():
			return board, ctx.Err()
		case <-time.After(PollInterval):
		}
	}

	if err := verifyOrdering(board); err != nil {
		return board, err
	}
	log.Info(ctx, "scoreboard verified", logger.Int("participants", len(board)))
	return board, nil
}

// verifyOrdering checks the board is sorted by points and every non-zero
// total is ranked by its position.
func verifyOrdering(board []Entry) error {
	for i, e := range board {
		if i > 0 && e.Points > board[i-1].Points {
			return fmt.Errorf("scoreboard not sorted: entry %d has more points than entry %d", i, i-1)
		}
		switch {
		case e.Points == 0 && e.Rank != nil:
			return fmt.Errorf("%s has no points but rank %d", e.ParticipantID, *e.Rank)
		case e.Points != 0 && (e.Rank == nil || *e.Rank != i+1):
			return fmt.Errorf("%s at position %d has the wrong rank", e.ParticipantID, i+1)
		}
	}
	return nil
}

// displayTopPerformers logs the podium.
func displayTopPerformers(board []Entry) {
	log := logger.Get().Named("simulate")
	for _, e := range board {
		if e.Badge == "" {
			break
		}
		log.Info(context.Background(), "podium",
			logger.Int("rank", *e.Rank),
			logger.String("participant", e.Name),
			logger.Int("points", e.Points),
			logger.String("badge", e.Badge),
		)
	}
}
