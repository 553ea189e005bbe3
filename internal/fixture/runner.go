package fixture

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/matchday/engine/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete season seeding flow.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting season seeding",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.NumPlayers),
		logger.Int("games", config.NumGames),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check engine health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("engine health check failed: %w", err)
	}

	// Step 2: Generate the fixture
	players := generateRoster(ctx, config)
	ratings := generateRatings(ctx, config, players, stats)
	games := generateSeason(ctx, config, players)

	// Step 3: Create the roster
	if err := createPlayers(ctx, config, players, stats); err != nil {
		return fmt.Errorf("roster creation failed: %w", err)
	}

	// Step 4: Submit peer ratings concurrently
	if err := submitRatings(ctx, config, ratings, stats); err != nil {
		return fmt.Errorf("rating submission failed: %w", err)
	}

	// Step 5: Play the season game by game
	if err := playSeason(ctx, config, games, stats); err != nil {
		return fmt.Errorf("season playback failed: %w", err)
	}

	// Step 6: Verify the engine state
	if err := verifySeededState(ctx, config, players, games); err != nil {
		return fmt.Errorf("state verification failed: %w", err)
	}

	// Step 7: Save the fixture to file
	fx := &Fixture{Players: players, Ratings: ratings, Games: games}
	if err := saveFixtureToFile(ctx, config, fx); err != nil {
		logger.Get().Warn(ctx, "failed to save fixture to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seeding completed successfully")
	return nil
}

// checkServiceHealth verifies the engine is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking engine health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to engine: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the engine returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("engine health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "engine is healthy")
	return nil
}

// playSeason creates, registers, and completes each generated game in order.
func playSeason(ctx context.Context, config *Config, games []GameResult, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	// Kickoffs spread into the past so the season reads as history.
	base := time.Now().Add(-time.Duration(len(games)) * 7 * 24 * time.Hour)

	for i, g := range games {
		kickoff := base.Add(time.Duration(i) * 7 * 24 * time.Hour)
		if err := playSingleGame(ctx, client, config, g, kickoff); err != nil {
			stats.GamesFailed++
			logger.Get().Warn(ctx, "game playback failed",
				logger.String("gameID", g.GameID), logger.Error(err))
			continue
		}
		stats.GamesCompleted++
	}

	logger.Get().Info(ctx, "season playback completed",
		logger.Int("completed", stats.GamesCompleted),
		logger.Int("failed", stats.GamesFailed))

	if stats.GamesCompleted == 0 && len(games) > 0 {
		return fmt.Errorf("all %d games failed to play", len(games))
	}
	return nil
}

// playSingleGame runs one game through its full lifecycle.
func playSingleGame(ctx context.Context, client *HTTPClient, config *Config, g GameResult, kickoff time.Time) error {
	create := map[string]string{
		"id":         g.GameID,
		"kickoff_at": kickoff.UTC().Format(time.RFC3339),
	}
	if err := expectStatus(ctx, client, config.BaseURL+"/games", create, StatusCreated); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	regURL := config.BaseURL + "/games/" + g.GameID + "/registrations"
	for _, id := range append(append([]string{}, g.TeamA...), g.TeamB...) {
		reg := map[string]interface{}{"player_id": id, "status": "selected", "paid": true}
		if err := expectStatus(ctx, client, regURL, reg, StatusCreated); err != nil {
			return fmt.Errorf("register %s: %w", id, err)
		}
	}
	for _, id := range g.Reserves {
		reg := map[string]interface{}{"player_id": id, "status": "reserve"}
		if err := expectStatus(ctx, client, regURL, reg, StatusCreated); err != nil {
			return fmt.Errorf("register reserve %s: %w", id, err)
		}
	}

	complete := map[string]interface{}{
		"team_a":  g.TeamA,
		"team_b":  g.TeamB,
		"score_a": g.ScoreA,
		"score_b": g.ScoreB,
	}
	if err := expectStatus(ctx, client, config.BaseURL+"/games/"+g.GameID+"/complete", complete, StatusOK); err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	return nil
}

// expectStatus posts body to url and fails unless the given status comes back.
func expectStatus(ctx context.Context, client *HTTPClient, url string, body interface{}, want int) error {
	resp, err := client.Post(ctx, url, body)
	if err != nil {
		return err
	}
	payload, _ := readResponseBody(resp)
	if resp.StatusCode != want {
		return fmt.Errorf("status %d (want %d): %s", resp.StatusCode, want, string(payload))
	}
	return nil
}

// saveFixtureToFile saves the generated fixture to a JSON file.
func saveFixtureToFile(ctx context.Context, config *Config, fx *Fixture) error {
	if len(fx.Players) == 0 {
		return fmt.Errorf("no fixture to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "season_fixture_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := marshalJSON(fx)
	if err != nil {
		return fmt.Errorf("failed to marshal fixture: %w", err)
	}

	if err := os.WriteFile(filename, data, logFilePermission); err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}

	logger.Get().Info(ctx, "fixture saved to file", logger.String("filename", filename))
	return nil
}

// verifySeededState samples the seeded engine and checks the read side.
func verifySeededState(ctx context.Context, config *Config, players []Player, games []GameResult) error {
	logger.Get().Info(ctx, "verifying seeded state")

	client := newHTTPClient(config.Timeout)

	// Derived attributes should resolve for a sample of the roster.
	sample := minInt(5, len(players))
	for i := 0; i < sample; i++ {
		url := config.BaseURL + "/players/" + players[i].ID + "/attributes"
		resp, err := client.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("attributes fetch failed for %s: %w", players[i].ID, err)
		}
		_, _ = readResponseBody(resp)
		if resp.StatusCode != StatusOK {
			return fmt.Errorf("attributes for %s returned status %d", players[i].ID, resp.StatusCode)
		}
	}

	// A player who appeared in the last game should have earned experience.
	if len(games) > 0 && len(games[len(games)-1].TeamA) > 0 {
		id := games[len(games)-1].TeamA[0]
		url := config.BaseURL + "/players/" + id + "/xp?formula=step"
		resp, err := client.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("xp fetch failed for %s: %w", id, err)
		}
		_, _ = readResponseBody(resp)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("xp for %s returned status %d", id, resp.StatusCode)
		}
	}

	logger.Get().Info(ctx, "seeded state verified")
	return nil
}

// displayFinalStats prints the final seeding statistics.
func displayFinalStats(stats *Stats) {
	var successRate, ratingsPerSecond float64

	if stats.RatingsSubmitted > 0 {
		successRate = float64(stats.RatingsSuccessful) / float64(stats.RatingsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		ratingsPerSecond = float64(stats.RatingsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("playersCreated", stats.PlayersCreated),
		logger.Int("ratingsGenerated", stats.RatingsGenerated),
		logger.Int("ratingsSubmitted", stats.RatingsSubmitted),
		logger.Int("ratingsSuccessful", stats.RatingsSuccessful),
		logger.Int("ratingsFailed", stats.RatingsFailed),
		logger.Int("gamesCompleted", stats.GamesCompleted),
		logger.Int("gamesFailed", stats.GamesFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("ratingsPerSecond", ratingsPerSecond))
}
