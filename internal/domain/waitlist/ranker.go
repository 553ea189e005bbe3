// Package waitlist orders reserve players for slot offers and widens the
// offer window as kickoff approaches.
package waitlist

import (
	"math"
	"sort"
	"time"
)

// defaultWindowHours is the pre-game horizon over which offer eligibility
// expands from the single top reserve to the whole list.
const defaultWindowHours = 48

// baseScore anchors the effective-XP multiplier before bonuses/penalties.
const baseScore = 10

// dropoutWeight multiplies accumulated dropout penalties.
const dropoutWeight = 5

// Candidate is one reserve registration with the counters feeding its
// effective XP.
type Candidate struct {
	PlayerID         string
	Caps             int
	Bonuses          int
	Penalties        int
	Streak           int
	DropoutPenalties int
	RegisteredAt     time.Time
}

// EffectiveXP computes the ranking score:
// caps * max(1, 10 + bonuses - penalties + streak - 5*dropouts).
func EffectiveXP(c Candidate) int {
	mult := baseScore + c.Bonuses - c.Penalties + c.Streak - dropoutWeight*c.DropoutPenalties
	if mult < 1 {
		mult = 1
	}
	return c.Caps * mult
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithWindowHours overrides the offer expansion horizon.
func WithWindowHours(h float64) Option {
	return func(r *Ranker) {
		if h > 0 {
			r.windowHours = h
		}
	}
}

// Ranker orders reserves and sizes the eligible offer set.
type Ranker struct {
	windowHours float64
}

// New creates a Ranker with the default 48-hour window.
func New(opts ...Option) *Ranker {
	r := &Ranker{windowHours: defaultWindowHours}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank sorts candidates by effective XP descending; ties go to the earlier
// registration, then to the smaller player id for determinism.
func (r *Ranker) Rank(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		xi, xj := EffectiveXP(out[i]), EffectiveXP(out[j])
		if xi != xj {
			return xi > xj
		}
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// OfferedCount returns how many top-ranked reserves are eligible for a slot
// offer: one at or beyond the window, widening linearly to the whole list by
// game day. offered = ceil(total * (1 - hours/window)), floored at 1 and
// capped at total.
func (r *Ranker) OfferedCount(total int, hoursUntilGame float64) int {
	if total <= 0 {
		return 0
	}
	if hoursUntilGame >= r.windowHours {
		return 1
	}
	if hoursUntilGame < 0 {
		hoursUntilGame = 0
	}
	n := int(math.Ceil(float64(total) * (1 - hoursUntilGame/r.windowHours)))
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}
