// Package model contains domain entities passed between layers.
package model

// MaxShieldTokens caps the number of shield tokens a player may hold.
const MaxShieldTokens = 4

// TokenIssueInterval is the number of played games between token grants.
const TokenIssueInterval = 10

// Player holds the aggregate counters kept per player.
type Player struct {
	ID   string
	Name string

	// Attendance counters.
	GamesPlayed        int // completed games as a selected player (caps)
	CurrentStreak      int // consecutive attended games
	RegistrationStreak int // consecutive games with an eligible registration
	UnpaidGames        int // completed games left unpaid, excluding dropouts

	// Shield state. At most one active protection at a time.
	ShieldTokens        int  // 0..MaxShieldTokens
	ShieldActive        bool
	ProtectedStreakBase int // streak frozen at time of shield use
	TokenProgress       int // played games toward the next token; frozen at cap

	// Version guards concurrent shield/streak mutations. Writers must
	// compare against the version they read and retry on mismatch.
	Version int64
}

// EffectiveStreak returns the streak value feeding the XP streak modifier.
// With an active shield the protected base decays toward the natural streak
// as the player resumes attendance; the result never drops below what
// natural attendance alone would earn.
func (p Player) EffectiveStreak() int {
	if !p.ShieldActive {
		return p.CurrentStreak
	}
	decayed := p.ProtectedStreakBase - p.CurrentStreak
	if p.CurrentStreak > decayed {
		return p.CurrentStreak
	}
	return decayed
}
