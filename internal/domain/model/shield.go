package model

import "time"

// ShieldTokenUsage links a token spend to a specific game, freezing the
// streak value at time of use. A usage is closed on convergence, on game
// cancellation, or on an unprotected missed game.
type ShieldTokenUsage struct {
	ID           string
	PlayerID     string
	GameID       string
	FrozenStreak int
	Active       bool
	CreatedAt    time.Time
	ClosedAt     time.Time
}

// TokenAction enumerates shield ledger actions.
type TokenAction string

// Ledger actions.
const (
	TokenIssued        TokenAction = "issued"
	TokenUsed          TokenAction = "used"
	TokenReturned      TokenAction = "returned"
	TokenRemoved       TokenAction = "removed"
	TokenConverged     TokenAction = "converged"
	TokenBroken        TokenAction = "broken"
	TokenProgressReset TokenAction = "progress_reset"
)

// TokenLedgerEntry is an append-only audit record of a token mutation with
// before/after counts.
type TokenLedgerEntry struct {
	ID           string
	PlayerID     string
	GameID       string
	Action       TokenAction
	TokensBefore int
	TokensAfter  int
	Reason       string
	ActorID      string
	At           time.Time
}
