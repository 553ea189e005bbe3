// Package streak implements the experience scoring system and the shield
// token state machine protecting streak bonuses through absences.
package streak

import (
	"fmt"
	"math"

	"github.com/matchday/engine/internal/domain/model"
)

// Formula selects one of the two XP schemes kept side by side for
// comparison.
type Formula string

// Formula identifiers.
const (
	// FormulaStep uses bracketed recency values and the linear streak
	// modifier.
	FormulaStep Formula = "step"
	// FormulaLinear uses linear recency decay and the diminishing streak
	// modifier.
	FormulaLinear Formula = "linear"
)

// ParseFormula validates a formula identifier.
func ParseFormula(s string) (Formula, error) {
	switch Formula(s) {
	case FormulaStep, FormulaLinear:
		return Formula(s), nil
	case "":
		return FormulaStep, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormula, s)
	}
}

// Appearance is one completed game from a player's participation history,
// ordered most recent first (GamesAgo 0 is the latest completed game).
type Appearance struct {
	GamesAgo   int
	Status     model.RegistrationStatus
	Paid       bool
	DroppedOut bool
	Late       bool
}

// XP configuration constants.
const (
	reserveXP             = 5
	reserveWindow         = 40 // step variant caps reserve credit to recent games
	benchWarmerBonusPct   = 5.0
	registrationBonusPct  = 2.5
	unpaidPenaltyPct      = 50.0
	linearStreakPct       = 10.0
	diminishingFlatStreak = 10 // streak games past this add a flat 1% each
)

// scheme is the strategy behind a Formula identifier. Both variants share
// the interface so no formula logic is duplicated at call sites.
type scheme interface {
	recency(gamesAgo int) float64
	reserveEligible(gamesAgo int) bool
	streakPercent(streak int) float64
}

func schemeFor(f Formula) scheme {
	if f == FormulaLinear {
		return linearScheme{}
	}
	return stepScheme{}
}

// stepScheme awards fixed XP per age bracket and a flat +10% per streak game.
type stepScheme struct{}

func (stepScheme) recency(gamesAgo int) float64 {
	switch {
	case gamesAgo == 0:
		return 20
	case gamesAgo <= 2:
		return 18
	case gamesAgo <= 4:
		return 16
	case gamesAgo <= 9:
		return 14
	case gamesAgo <= 19:
		return 12
	case gamesAgo <= 29:
		return 10
	case gamesAgo <= 39:
		return 5
	default:
		return 0
	}
}

func (stepScheme) reserveEligible(gamesAgo int) bool { return gamesAgo < reserveWindow }

func (stepScheme) streakPercent(streak int) float64 {
	if streak < 0 {
		return 0
	}
	return linearStreakPct * float64(streak)
}

// linearScheme decays recency linearly; old contributions are suppressed by
// the decay itself so reserve credit is uncapped.
type linearScheme struct{}

func (linearScheme) recency(gamesAgo int) float64 {
	v := 20 - 0.5*float64(gamesAgo)
	if v < 1 {
		return 1
	}
	return v
}

func (linearScheme) reserveEligible(int) bool { return true }

// streakPercent applies +10%,+9%,...,+1% for streak games 1..10, then a
// flat +1% per game beyond 10.
func (linearScheme) streakPercent(streak int) float64 {
	if streak <= 0 {
		return 0
	}
	if streak <= diminishingFlatStreak {
		return float64(streak*11) - float64(streak*(streak+1))/2
	}
	return 55 + float64(streak-diminishingFlatStreak)
}

// minActiveMultiplier floors the balancing multiplier so heavy penalties
// rank a player last rather than inverting the score sign.
const minActiveMultiplier = 0.1

// ActiveMultiplier scales a player's team-balancing score by the same
// registration bonus and unpaid penalty percentages the XP modifiers
// apply. A player with no counters is neutral at 1.0.
func ActiveMultiplier(p model.Player) float64 {
	pct := registrationBonusPct*float64(p.RegistrationStreak) - unpaidPenaltyPct*float64(p.UnpaidGames)
	m := 1 + pct/100
	if m < minActiveMultiplier {
		return minActiveMultiplier
	}
	return m
}

// ComputeXP combines recency-weighted participation, reserve credit, and
// the streak/penalty modifiers into a single non-negative integer.
func ComputeXP(p model.Player, history []Appearance, f Formula) int {
	s := schemeFor(f)

	var base float64
	for _, app := range history {
		switch {
		case app.Status == model.StatusSelected && !app.DroppedOut:
			base += s.recency(app.GamesAgo)
		case app.Status == model.StatusReserve && !app.Late && s.reserveEligible(app.GamesAgo):
			base += reserveXP
		}
	}

	pct := s.streakPercent(p.EffectiveStreak())
	if len(history) > 0 && history[0].GamesAgo == 0 && history[0].Status == model.StatusReserve {
		pct += benchWarmerBonusPct
	}
	pct += registrationBonusPct * float64(p.RegistrationStreak)
	pct -= unpaidPenaltyPct * float64(p.UnpaidGames)

	xp := base * (1 + pct/100)
	if xp < 0 {
		return 0
	}
	return int(math.Round(xp))
}
