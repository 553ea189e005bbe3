package fixture

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/matchday/engine/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the season seeding tool.
func ShowHelp() {
	os.Stdout.WriteString(`Matchday Season Seeder
======================

Seeds a running matchday engine with a synthetic season: a roster of
players, peer ratings, and a history of completed games.

Usage:
  go run cmd/seed/main.go [options]

Options:
  -url string
        Base URL of the engine (default "http://localhost:9080")
  -players int
        Number of players to create (default 40)
  -games int
        Number of completed games to simulate (default 20)
  -raters int
        Peer ratings each player receives (default 6)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for the generated fixture (default: season_fixture_TIMESTAMP.json)
  -log string
        Log file for seeding output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed with default settings
  go run cmd/seed/main.go

  # Seed a bigger league
  go run cmd/seed/main.go -players 120 -games 60 -url http://localhost:8080

  # Seed with verbose output
  go run cmd/seed/main.go -verbose -games 40
`)
}
