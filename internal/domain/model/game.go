package model

import "time"

// Outcome labels a completed match result from team A's perspective.
type Outcome string

// Match outcomes.
const (
	OutcomeWinA Outcome = "win_a"
	OutcomeWinB Outcome = "win_b"
	OutcomeDraw Outcome = "draw"
)

// RegistrationStatus is a player's state for one game instance.
type RegistrationStatus string

// Registration states.
const (
	StatusPending    RegistrationStatus = "pending"
	StatusSelected   RegistrationStatus = "selected"
	StatusReserve    RegistrationStatus = "reserve"
	StatusDroppedOut RegistrationStatus = "dropped_out"
)

// SelectionMethod records how a registration was promoted to selected.
type SelectionMethod string

// Selection methods.
const (
	SelectionMerit  SelectionMethod = "merit"
	SelectionRandom SelectionMethod = "random"
	SelectionNone   SelectionMethod = "none"
)

// Game is one session instance.
type Game struct {
	ID        string
	KickoffAt time.Time
	Completed bool
	Canceled  bool

	// Result fields, set on completion.
	TeamA   []string // player ids
	TeamB   []string
	ScoreA  int
	ScoreB  int
	Outcome Outcome
}

// DecidedBy reports the outcome implied by the recorded scores.
func (g Game) DecidedBy() Outcome {
	switch {
	case g.ScoreA > g.ScoreB:
		return OutcomeWinA
	case g.ScoreB > g.ScoreA:
		return OutcomeWinB
	default:
		return OutcomeDraw
	}
}

// GameRegistration is a player's registration for one game.
type GameRegistration struct {
	GameID       string
	PlayerID     string
	Status       RegistrationStatus
	Method       SelectionMethod
	Paid         bool
	UsingToken   bool // absence covered by a forgiveness/shield token
	Late         bool // reserve joined after the selection deadline
	RegisteredAt time.Time
}

// OfferStatus tracks a slot offer's lifecycle.
type OfferStatus string

// Offer states.
const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferVoided   OfferStatus = "voided"
)

// SlotOffer is an invitation for a reserve to take a vacated slot.
// Creation is idempotent per (game, player).
type SlotOffer struct {
	ID        string
	GameID    string
	PlayerID  string
	Status    OfferStatus
	CreatedAt time.Time
}
