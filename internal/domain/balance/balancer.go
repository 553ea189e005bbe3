// Package balance partitions confirmed players into two skill-balanced
// teams using a deterministic zigzag-of-four heuristic.
package balance

import (
	"math"
	"sort"

	"github.com/matchday/engine/internal/domain/types"
)

// Team labels used in assignments.
const (
	TeamA = "A"
	TeamB = "B"
)

// PlayerInput carries everything the balancer needs for one confirmed
// player.
type PlayerInput struct {
	PlayerID   string
	Attack     float64
	Defense    float64
	GameIQ     float64
	Experience int     // XP, used as the tiebreak signal
	Multiplier float64 // active bonus/penalty multiplier; 0 means neutral 1.0
}

// Assignment is the deterministic output of one split.
type Assignment struct {
	TeamA []PlayerInput
	TeamB []PlayerInput
	Stats types.BalanceStats
}

// Option applies a configuration option to the Balancer.
type Option func(*Balancer)

// WithWeights scales the attack/defense contributions of the ranking score.
func WithWeights(attack, defense float64) Option {
	return func(b *Balancer) {
		if attack > 0 {
			b.attackWeight = attack
		}
		if defense > 0 {
			b.defenseWeight = defense
		}
	}
}

// Balancer ranks players by weighted score and assigns them in a zigzag
// pattern over groups of four consecutive ranks.
type Balancer struct {
	attackWeight  float64
	defenseWeight float64
}

// New creates a Balancer with unit weights.
func New(opts ...Option) *Balancer {
	b := &Balancer{attackWeight: 1, defenseWeight: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// score is the ranking signal: weighted attack+defense scaled by the active
// bonus/penalty multiplier.
func (b *Balancer) score(p PlayerInput) float64 {
	mult := p.Multiplier
	if mult == 0 {
		mult = 1
	}
	return (b.attackWeight*p.Attack + b.defenseWeight*p.Defense) * mult
}

// Split assigns each player to exactly one of two teams. Ranks congruent to
// 1 or 0 (mod 4) go to team A, ranks congruent to 2 or 3 go to team B,
// which splits adjacent ranks across teams more often than naive
// alternation. Identical inputs always produce the identical split.
func (b *Balancer) Split(players []PlayerInput) Assignment {
	ranked := make([]PlayerInput, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := b.score(ranked[i]), b.score(ranked[j])
		if si != sj {
			return si > sj
		}
		if ranked[i].Experience != ranked[j].Experience {
			return ranked[i].Experience > ranked[j].Experience
		}
		return ranked[i].PlayerID < ranked[j].PlayerID
	})

	var a, bteam []PlayerInput
	for i, p := range ranked {
		switch (i + 1) % 4 {
		case 1, 0:
			a = append(a, p)
		default:
			bteam = append(bteam, p)
		}
	}

	presentTeam(a)
	presentTeam(bteam)

	return Assignment{
		TeamA: a,
		TeamB: bteam,
		Stats: b.stats(a, bteam),
	}
}

// presentTeam orders members by attack+defense descending for display.
func presentTeam(team []PlayerInput) {
	sort.SliceStable(team, func(i, j int) bool {
		ti := team[i].Attack + team[i].Defense
		tj := team[j].Attack + team[j].Defense
		if ti != tj {
			return ti > tj
		}
		return team[i].PlayerID < team[j].PlayerID
	})
}

func totals(team []PlayerInput) types.TeamTotals {
	var t types.TeamTotals
	for _, p := range team {
		t.Attack += p.Attack
		t.Defense += p.Defense
		t.GameIQ += p.GameIQ
		t.Experience += p.Experience
	}
	return t
}

// stats derives the fairness report: absolute per-attribute differentials
// between the two team sums.
func (b *Balancer) stats(a, bt []PlayerInput) types.BalanceStats {
	ta, tb := totals(a), totals(bt)
	attackDiff := math.Abs(ta.Attack - tb.Attack)
	defenseDiff := math.Abs(ta.Defense - tb.Defense)
	expDiff := math.Abs(float64(ta.Experience - tb.Experience))
	return types.BalanceStats{
		AttackDifferential:     attackDiff,
		DefenseDifferential:    defenseDiff,
		ExperienceDifferential: expDiff,
		TotalDifferential:      attackDiff + defenseDiff + expDiff,
		PerTeamTotals: map[string]types.TeamTotals{
			TeamA: ta,
			TeamB: tb,
		},
	}
}
