package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if MATCHDAY_CONFIG is set
//  3. env (prefix MATCHDAY_)
func Load() (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("MATCHDAY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MATCHDAY_ADDR, MATCHDAY_PAIR_MIN_GAMES, ...
	// Map env keys like MATCHDAY_PAIR_MIN_GAMES -> pair_min_games (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("MATCHDAY_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "matchday_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.AssignmentCacheTTLMinutes <= 0 {
		return fmt.Errorf("%w: assignment_cache_ttl_minutes must be positive", ErrInvalidConfig)
	}
	if c.ConfidenceK < 0 {
		return fmt.Errorf("%w: confidence_k must not be negative", ErrInvalidConfig)
	}
	if c.OfferWindowHours <= 0 {
		return fmt.Errorf("%w: offer_window_hours must be positive", ErrInvalidConfig)
	}
	if c.AttackWeight < 0 || c.DefenseWeight < 0 {
		return fmt.Errorf("%w: balance weights must not be negative", ErrInvalidConfig)
	}
	if c.TokenCap < 0 {
		return fmt.Errorf("%w: token_cap must not be negative", ErrInvalidConfig)
	}
	if c.TokenIssueInterval <= 0 {
		return fmt.Errorf("%w: token_issue_interval must be positive", ErrInvalidConfig)
	}
	return nil
}
