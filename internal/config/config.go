// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AssignmentCacheTTLMinutes controls how long balanced team
	// assignments stay valid before recomputation.
	AssignmentCacheTTLMinutes int `koanf:"assignment_cache_ttl_minutes"`

	// PairMinGames is the minimum shared appearances for a pair row.
	PairMinGames int `koanf:"pair_min_games"`

	// RivalryMinGames is the minimum head-to-head games for a rivalry row.
	RivalryMinGames int `koanf:"rivalry_min_games"`

	// TrioMinGames is the minimum shared appearances for a trio row.
	TrioMinGames int `koanf:"trio_min_games"`

	// ConfidenceK dampens performance rates for small sample sizes.
	ConfidenceK int `koanf:"confidence_k"`

	// OfferWindowHours is the horizon over which the offered-count
	// fraction scales from one recipient up to the whole waitlist.
	OfferWindowHours float64 `koanf:"offer_window_hours"`

	// AttackWeight and DefenseWeight scale player scores during balancing.
	AttackWeight  float64 `koanf:"attack_weight"`
	DefenseWeight float64 `koanf:"defense_weight"`

	// TokenCap bounds how many shield tokens a player may hold.
	TokenCap int `koanf:"token_cap"`

	// TokenIssueInterval is the played-game cadence for token issuance.
	TokenIssueInterval int `koanf:"token_issue_interval"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		Addr:                      ":9080",
		AssignmentCacheTTLMinutes: 60,
		PairMinGames:              10,
		RivalryMinGames:           5,
		TrioMinGames:              3,
		ConfidenceK:               10,
		OfferWindowHours:          48,
		AttackWeight:              1.0,
		DefenseWeight:             1.0,
		TokenCap:                  4,
		TokenIssueInterval:        10,
	}
}
