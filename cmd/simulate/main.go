package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/reto/internal/simulate"
)

// Default configuration constants.
const (
	defaultRequests    = 500
	defaultDays        = 7
	defaultBoostRatio  = 0.1
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultSettle      = 10 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		requests   = flag.Int("requests", defaultRequests, "Number of grants and boosts to send")
		days       = flag.Int("days", defaultDays, "Spread grants over this many days")
		boosts     = flag.Float64("boosts", defaultBoostRatio, "Share of requests sent as boosts")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettle, "How long to wait for the scoreboard to converge")
		cleanup    = flag.Bool("cleanup", false, "Delete the simulated season afterwards")
		outputFile = flag.String("output", "", "Write accepted events to this JSON file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		seed       = flag.Uint64("seed", 0, "Random seed (0 picks one)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:    *baseURL,
		Requests:   *requests,
		Days:       *days,
		BoostRatio: *boosts,
		Workers:    *workers,
		Timeout:    *timeout,
		Settle:     *settle,
		Cleanup:    *cleanup,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
		Seed:       *seed,
	}

	if err := simulate.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
}
