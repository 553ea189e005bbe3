package streak

import (
	"time"

	"github.com/google/uuid"
	"github.com/matchday/engine/internal/domain/model"
)

// Option applies a configuration option to the shield Engine.
type Option func(*Engine)

// WithTokenCap overrides the maximum token count.
func WithTokenCap(cap int) Option {
	return func(e *Engine) {
		if cap > 0 {
			e.tokenCap = cap
		}
	}
}

// WithIssueInterval overrides the played-game interval between token grants.
func WithIssueInterval(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.issueInterval = n
		}
	}
}

// Engine implements the shield token state machine. All methods mutate the
// passed player in place and return what changed; persistence and ledger
// writes are the caller's concern. Callers must serialize transitions per
// player.
type Engine struct {
	tokenCap      int
	issueInterval int
}

// NewEngine creates a shield engine with the default token policy.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		tokenCap:      model.MaxShieldTokens,
		issueInterval: model.TokenIssueInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Issue grants one token. At the cap this is a no-op reported as
// ineligible.
func (e *Engine) Issue(p *model.Player) error {
	if p.ShieldTokens >= e.tokenCap {
		return ErrTokenCapReached
	}
	p.ShieldTokens++
	return nil
}

// AccrueProgress advances token progress by one played game and reports
// whether a token was granted. Progress is frozen while the player holds
// the maximum number of tokens.
func (e *Engine) AccrueProgress(p *model.Player) bool {
	if p.ShieldTokens >= e.tokenCap {
		return false
	}
	p.TokenProgress++
	if p.TokenProgress < e.issueInterval {
		return false
	}
	p.TokenProgress = 0
	p.ShieldTokens++
	return true
}

// Use spends a token for gameID, freezing the current streak as the
// protected base. Fails without state change when no tokens are available
// or a protection is already active.
func (e *Engine) Use(p *model.Player, gameID string, now time.Time) (model.ShieldTokenUsage, error) {
	if p.ShieldActive {
		return model.ShieldTokenUsage{}, ErrShieldAlreadyActive
	}
	if p.ShieldTokens <= 0 {
		return model.ShieldTokenUsage{}, ErrNoTokens
	}
	p.ShieldTokens--
	p.ShieldActive = true
	p.ProtectedStreakBase = p.CurrentStreak
	return model.ShieldTokenUsage{
		ID:           uuid.NewString(),
		PlayerID:     p.ID,
		GameID:       gameID,
		FrozenStreak: p.CurrentStreak,
		Active:       true,
		CreatedAt:    now,
	}, nil
}

// ConvergencePoint is the natural streak at which protection is removed.
func ConvergencePoint(protectedBase int) int {
	return (protectedBase + 1) / 2 // ceil(base/2)
}

// Converge evaluates an active usage after completedGameID finished. A
// shield spent on that very game is exempt for this cycle; a same-cycle
// check would strip protection before the player has missed an attendance
// opportunity. Returns true when the player caught up and the shield was
// removed.
func (e *Engine) Converge(p *model.Player, u *model.ShieldTokenUsage, completedGameID string, now time.Time) bool {
	if !u.Active || u.GameID == completedGameID {
		return false
	}
	if p.CurrentStreak < ConvergencePoint(u.FrozenStreak) {
		return false
	}
	e.close(p, u, now)
	return true
}

// Break forcibly removes protection when the player neither attended nor
// spent a new shield during the protection window. The natural streak
// resets per normal attendance rules.
func (e *Engine) Break(p *model.Player, u *model.ShieldTokenUsage, now time.Time) {
	if !u.Active {
		return
	}
	e.close(p, u, now)
	p.CurrentStreak = 0
}

// Return closes an unused or canceled usage and restores the token unless
// the player is already at capacity. Reports whether a token was restored.
func (e *Engine) Return(p *model.Player, u *model.ShieldTokenUsage, now time.Time) bool {
	if !u.Active {
		return false
	}
	e.close(p, u, now)
	if p.ShieldTokens >= e.tokenCap {
		return false
	}
	p.ShieldTokens++
	return true
}

func (e *Engine) close(p *model.Player, u *model.ShieldTokenUsage, now time.Time) {
	u.Active = false
	u.ClosedAt = now
	p.ShieldActive = false
	p.ProtectedStreakBase = 0
}
