package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/reto/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a complete simulation against cfg.BaseURL: it creates a
// season, sends the planned writes, then checks the scoreboard adds up.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting reto simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client, err := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return err
	}

	// Step 1: Check service readiness
	if err := checkServiceReady(ctx, client); err != nil {
		return fmt.Errorf("service readiness check failed: %w", err)
	}

	// Step 2: Create and select a fresh season
	season, err := createSeason(ctx, cfg, client, stats.StartTime)
	if err != nil {
		return fmt.Errorf("season setup failed: %w", err)
	}
	stats.Participants = len(season.Participants)

	// Step 3: Plan and submit writes
	plan := Plan(cfg, season.Participants, time.Now())
	stats.RequestsPlanned = len(plan)
	accepted := submitRequests(ctx, cfg, client, plan, stats)
	reportOvershoot(ctx, season, accepted, stats)

	// Step 4: Verify the scoreboard converges
	board, verr := verifyScoreboard(ctx, cfg, client, season, accepted)
	if verr == nil {
		displayTopPerformers(board)
	}

	// Step 5: Save accepted events
	if cfg.OutputFile != "" {
		if err := saveEvents(cfg.OutputFile, accepted); err != nil {
			log.Warn(ctx, "failed to save events to file", logger.Error(err))
		}
	}

	// Step 6: Remove the season
	if cfg.Cleanup {
		if err := deleteSeason(ctx, client); err != nil {
			log.Warn(ctx, "failed to delete simulated season", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verr != nil {
		return fmt.Errorf("result verification failed: %w", verr)
	}
	log.Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceReady verifies the service has loaded its data.
func checkServiceReady(ctx context.Context, client *HTTPClient) error {
	if _, err := client.Do(ctx, http.MethodGet, "/readyz", nil, nil); err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	return nil
}

// createSeason creates a season over the whole roster, selects it for this
// session and waits until it is listed.
func createSeason(ctx context.Context, cfg *Config, client *HTTPClient, now time.Time) (Season, error) {
	var season Season
	body := map[string]any{
		"name":       seasonName(now),
		"start_date": now.AddDate(0, 0, -max(cfg.Days, 1)).Format("2006-01-02"),
	}
	if _, err := client.Do(ctx, http.MethodPost, "/api/seasons", body, &season); err != nil {
		return Season{}, fmt.Errorf("create season: %w", err)
	}
	if len(season.Participants) == 0 {
		return Season{}, fmt.Errorf("season %s has no participants", season.ID)
	}

	deadline := time.Now().Add(cfg.Settle)
	for {
		var list struct {
			Seasons []Season `json:"seasons"`
		}
		if _, err := client.Do(ctx, http.MethodGet, "/api/seasons", nil, &list); err != nil {
			return Season{}, fmt.Errorf("list seasons: %w", err)
		}
		if containsSeason(list.Seasons, season.ID) {
			break
		}
		if time.Now().After(deadline) {
			return Season{}, fmt.Errorf("season %s never became visible", season.ID)
		}
		select {
		case <-ctx.Done():
			return Season{}, ctx.Err()
		case <-time.After(PollInterval):
		}
	}

	if _, err := client.Do(ctx, http.MethodPut, "/api/session", map[string]string{"season_id": season.ID}, nil); err != nil {
		return Season{}, fmt.Errorf("select season: %w", err)
	}
	logger.Get().Named("simulate").Info(ctx, "season ready", logger.String("season", season.ID), logger.String("name", season.Name))
	return season, nil
}

func containsSeason(seasons []Season, id string) bool {
	for _, s := range seasons {
		if s.ID == id {
			return true
		}
	}
	return false
}

// deleteSeason requests and confirms deletion of the session's active season.
func deleteSeason(ctx context.Context, client *HTTPClient) error {
	var pending struct {
		Token string `json:"token"`
	}
	if _, err := client.Do(ctx, http.MethodDelete, "/api/season", nil, &pending); err != nil {
		return err
	}
	_, err := client.Do(ctx, http.MethodPost, "/api/confirmations/"+pending.Token, nil, nil)
	return err
}

// saveEvents writes the accepted events to filename as JSON.
func saveEvents(filename string, events []Event) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, requestsPerSecond float64
	if stats.RequestsPlanned > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.RequestsPlanned) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsPlanned) / stats.Duration.Seconds()
	}

	logger.Get().Named("simulate").Info(ctx, "final statistics",
		logger.Int("participants", stats.Participants),
		logger.Int("requestsPlanned", stats.RequestsPlanned),
		logger.Int("accepted", stats.Accepted),
		logger.Int("replayed", stats.Replayed),
		logger.Int("capped", stats.Capped),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Int("overshoot", stats.Overshoot),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("requestsPerSecond", requestsPerSecond),
	)
}
