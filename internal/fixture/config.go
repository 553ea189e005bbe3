package fixture

import "time"

// Config holds configuration for the season seeding run
type Config struct {
	BaseURL     string        // Base URL of the engine
	NumPlayers  int           // Number of players to create
	NumGames    int           // Number of completed games to simulate
	RatersPer   int           // Number of peer ratings each player receives
	SquadSize   int           // Players selected per game (split into two teams)
	ReserveSize int           // Reserves registered per game
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for the generated fixture
	LogFile     string        // Log file for seeding output
	Verbose     bool          // Enable verbose logging
}

// Player is one synthetic roster member.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Rating is one synthetic peer rating.
type Rating struct {
	RaterID     string  `json:"rater_id"`
	RatedID     string  `json:"rated_id"`
	Attack      float64 `json:"attack"`
	Defense     float64 `json:"defense"`
	GameIQ      float64 `json:"game_iq"`
	Goalkeeping float64 `json:"goalkeeping"`
}

// GameResult is one synthetic completed game.
type GameResult struct {
	GameID   string   `json:"game_id"`
	TeamA    []string `json:"team_a"`
	TeamB    []string `json:"team_b"`
	Reserves []string `json:"reserves"`
	ScoreA   int      `json:"score_a"`
	ScoreB   int      `json:"score_b"`
}

// Fixture bundles everything the seeder generated, for replay or inspection.
type Fixture struct {
	Players []Player     `json:"players"`
	Ratings []Rating     `json:"ratings"`
	Games   []GameResult `json:"games"`
}

// AckResponse is the acknowledgement returned by write endpoints.
type AckResponse struct {
	Status string `json:"status"`
}

// Stats holds seeding statistics
type Stats struct {
	PlayersCreated    int
	RatingsGenerated  int
	RatingsSubmitted  int
	RatingsSuccessful int
	RatingsFailed     int
	GamesCompleted    int
	GamesFailed       int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
