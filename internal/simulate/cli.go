package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/reto/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends logs to stdout and, when logFile is set, to that file too.
func SetupLogging(logFile string, verbose bool) error {
	out := io.Writer(os.Stdout)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.InitWith(logger.Options{Output: out}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Reto Simulation Tool
====================

Drives a running reto server with concurrent point grants and boosts from one
session, then checks that the scoreboard adds up.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -requests int
        Number of grants and boosts to send (default 500)
  -days int
        Spread grants over this many days (default 7)
  -boosts float
        Share of requests sent as boosts (default 0.1)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -settle duration
        How long to wait for the scoreboard to converge (default 10s)
  -cleanup
        Delete the simulated season afterwards
  -output string
        Write accepted events to this JSON file
  -log string
        Also write logs to this file
  -seed uint
        Random seed (default random)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/simulate -requests 2000 -workers 16
  go run ./cmd/simulate -cleanup -output events.json
`)
}
