package streak

import "errors"

// Sentinel kinds for shield and formula errors.
var (
	ErrNoTokens            = errors.New("no shield tokens available")
	ErrTokenCapReached     = errors.New("shield token cap reached")
	ErrShieldAlreadyActive = errors.New("shield already active")
	ErrUnknownFormula      = errors.New("unknown xp formula")
)
