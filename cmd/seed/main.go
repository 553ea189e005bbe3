package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/matchday/engine/internal/fixture"
)

// Default configuration constants.
const (
	defaultNumPlayers  = 40
	defaultNumGames    = 20
	defaultRatersPer   = 6
	defaultSquadSize   = 10
	defaultReserveSize = 4
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSeedTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the engine")
		numPlayers = flag.Int("players", defaultNumPlayers, "Number of players to create")
		numGames   = flag.Int("games", defaultNumGames, "Number of completed games to simulate")
		ratersPer  = flag.Int("raters", defaultRatersPer, "Peer ratings each player receives")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for the generated fixture (default: season_fixture_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for seeding output (default: seed_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fixture.ShowHelp()
		return
	}

	// Setup logging
	if err := fixture.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultSeedTimeout)
	defer cancel()

	// Create seeding configuration
	config := &fixture.Config{
		BaseURL:     *baseURL,
		NumPlayers:  *numPlayers,
		NumGames:    *numGames,
		RatersPer:   *ratersPer,
		SquadSize:   defaultSquadSize,
		ReserveSize: defaultReserveSize,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the seeder
	if err := fixture.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		return
	}
}
