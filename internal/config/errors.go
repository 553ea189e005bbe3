package config

import (
	"errors"
)

// Sentinel error kinds for configuration loading. Callers branch on these
// with errors.Is to distinguish bad values from unreadable sources.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
