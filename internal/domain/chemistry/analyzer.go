// Package chemistry computes confidence-weighted pairwise and trio synergy
// plus head-to-head rivalry statistics from completed match history.
package chemistry

import (
	"sort"

	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/types"
)

// Default sampling thresholds and confidence parameter.
const (
	defaultPairMinGames    = 10
	defaultRivalryMinGames = 5
	defaultTrioMinGames    = 3
	defaultConfidenceK     = 10
	neutralRivalry         = 50.0
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithPairMinGames sets the minimum shared games for a pair statistic.
func WithPairMinGames(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.pairMin = n
		}
	}
}

// WithRivalryMinGames sets the minimum opposing games for a rivalry.
func WithRivalryMinGames(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.rivalryMin = n
		}
	}
}

// WithTrioMinGames sets the minimum shared games for a trio statistic.
func WithTrioMinGames(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.trioMin = n
		}
	}
}

// WithConfidenceK sets K in the confidence factor games/(games+K).
func WithConfidenceK(k int) Option {
	return func(a *Analyzer) {
		if k > 0 {
			a.confidenceK = k
		}
	}
}

// Analyzer computes batch statistics over a candidate pool in a single pass
// of the match history, so the balancer never issues per-pair queries.
type Analyzer struct {
	pairMin     int
	rivalryMin  int
	trioMin     int
	confidenceK int
}

// New creates an Analyzer with the default thresholds.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		pairMin:     defaultPairMinGames,
		rivalryMin:  defaultRivalryMinGames,
		trioMin:     defaultTrioMinGames,
		confidenceK: defaultConfidenceK,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type tally struct {
	games int
	wins  int
	draws int
}

type rivalryTally struct {
	games int
	winsA int // wins of the lexicographically first player
	winsB int
}

type pairKey struct{ a, b string }

type trioKey struct{ a, b, c string }

// orderPair returns the unordered pair key with ids sorted ascending.
func orderPair(x, y string) pairKey {
	if x < y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

func orderTrio(x, y, z string) trioKey {
	ids := []string{x, y, z}
	sort.Strings(ids)
	return trioKey{ids[0], ids[1], ids[2]}
}

// Pairs computes same-team chemistry for every unordered pair of candidates
// meeting the minimum sample. performance_rate = (wins*3+draws)/(games*3)*100,
// confidence = games/(games+K), chemistry = rate * confidence.
func (a *Analyzer) Pairs(candidates []string, history []model.Game) []types.ChemistryRow {
	want := idSet(candidates)
	tallies := make(map[pairKey]*tally)

	for i := range history {
		g := &history[i]
		if !g.Completed || g.Canceled {
			continue
		}
		accumulateTeam(tallies, filterIDs(g.TeamA, want), g.Outcome == model.OutcomeWinA, g.Outcome == model.OutcomeDraw)
		accumulateTeam(tallies, filterIDs(g.TeamB, want), g.Outcome == model.OutcomeWinB, g.Outcome == model.OutcomeDraw)
	}

	rows := make([]types.ChemistryRow, 0, len(tallies))
	for key, t := range tallies {
		if t.games < a.pairMin {
			continue
		}
		rate, conf, score := a.score(t)
		rows = append(rows, types.ChemistryRow{
			PlayerA:         key.a,
			PlayerB:         key.b,
			Games:           t.games,
			Wins:            t.wins,
			Draws:           t.draws,
			PerformanceRate: rate,
			Confidence:      conf,
			ChemistryScore:  score,
		})
	}
	sortChemistryRows(rows)
	return rows
}

// Rivalries computes opposite-team win shares for every unordered pair of
// candidates with enough opposing games. The score is the first player's win
// percentage over decided games; all-draw histories report neutral 50.
func (a *Analyzer) Rivalries(candidates []string, history []model.Game) []types.RivalryRow {
	want := idSet(candidates)
	tallies := make(map[pairKey]*rivalryTally)

	for i := range history {
		g := &history[i]
		if !g.Completed || g.Canceled {
			continue
		}
		teamA := filterIDs(g.TeamA, want)
		teamB := filterIDs(g.TeamB, want)
		for _, x := range teamA {
			for _, y := range teamB {
				key := orderPair(x, y)
				t := tallies[key]
				if t == nil {
					t = &rivalryTally{}
					tallies[key] = t
				}
				t.games++
				switch g.Outcome {
				case model.OutcomeWinA:
					if key.a == x {
						t.winsA++
					} else {
						t.winsB++
					}
				case model.OutcomeWinB:
					if key.a == y {
						t.winsA++
					} else {
						t.winsB++
					}
				case model.OutcomeDraw:
					// Draws are excluded from the win share.
				}
			}
		}
	}

	rows := make([]types.RivalryRow, 0, len(tallies))
	for key, t := range tallies {
		if t.games < a.rivalryMin {
			continue
		}
		score := neutralRivalry
		if decided := t.winsA + t.winsB; decided > 0 {
			score = float64(t.winsA) / float64(decided) * 100
		}
		rows = append(rows, types.RivalryRow{
			PlayerA:      key.a,
			PlayerB:      key.b,
			Games:        t.games,
			WinsA:        t.winsA,
			WinsB:        t.winsB,
			RivalryScore: score,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PlayerA != rows[j].PlayerA {
			return rows[i].PlayerA < rows[j].PlayerA
		}
		return rows[i].PlayerB < rows[j].PlayerB
	})
	return rows
}

// Trios computes same-team chemistry for unordered triples, identical
// formula to pairs with the trio sampling threshold.
func (a *Analyzer) Trios(candidates []string, history []model.Game) []types.TrioRow {
	want := idSet(candidates)
	tallies := make(map[trioKey]*tally)

	for i := range history {
		g := &history[i]
		if !g.Completed || g.Canceled {
			continue
		}
		accumulateTrios(tallies, filterIDs(g.TeamA, want), g.Outcome == model.OutcomeWinA, g.Outcome == model.OutcomeDraw)
		accumulateTrios(tallies, filterIDs(g.TeamB, want), g.Outcome == model.OutcomeWinB, g.Outcome == model.OutcomeDraw)
	}

	rows := make([]types.TrioRow, 0, len(tallies))
	for key, t := range tallies {
		if t.games < a.trioMin {
			continue
		}
		rate, conf, score := a.score(t)
		rows = append(rows, types.TrioRow{
			PlayerA:         key.a,
			PlayerB:         key.b,
			PlayerC:         key.c,
			Games:           t.games,
			Wins:            t.wins,
			Draws:           t.draws,
			PerformanceRate: rate,
			Confidence:      conf,
			ChemistryScore:  score,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PlayerA != rows[j].PlayerA {
			return rows[i].PlayerA < rows[j].PlayerA
		}
		if rows[i].PlayerB != rows[j].PlayerB {
			return rows[i].PlayerB < rows[j].PlayerB
		}
		return rows[i].PlayerC < rows[j].PlayerC
	})
	return rows
}

// score derives (performance_rate, confidence, chemistry_score) from a tally.
func (a *Analyzer) score(t *tally) (float64, float64, float64) {
	rate := float64(t.wins*3+t.draws) / float64(t.games*3) * 100
	conf := float64(t.games) / float64(t.games+a.confidenceK)
	return rate, conf, rate * conf
}

func accumulateTeam(tallies map[pairKey]*tally, team []string, won, drew bool) {
	for i := 0; i < len(team); i++ {
		for j := i + 1; j < len(team); j++ {
			bump(tallies, orderPair(team[i], team[j]), won, drew)
		}
	}
}

func accumulateTrios(tallies map[trioKey]*tally, team []string, won, drew bool) {
	for i := 0; i < len(team); i++ {
		for j := i + 1; j < len(team); j++ {
			for k := j + 1; k < len(team); k++ {
				bump(tallies, orderTrio(team[i], team[j], team[k]), won, drew)
			}
		}
	}
}

func bump[K comparable](tallies map[K]*tally, key K, won, drew bool) {
	t := tallies[key]
	if t == nil {
		t = &tally{}
		tallies[key] = t
	}
	t.games++
	if won {
		t.wins++
	} else if drew {
		t.draws++
	}
}

func sortChemistryRows(rows []types.ChemistryRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PlayerA != rows[j].PlayerA {
			return rows[i].PlayerA < rows[j].PlayerA
		}
		return rows[i].PlayerB < rows[j].PlayerB
	})
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func filterIDs(ids []string, want map[string]struct{}) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := want[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
