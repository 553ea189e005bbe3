// Package types contains the read shapes returned by engine queries.
package types

// TeamMember is one player inside a balanced team, presented with the
// ratings that drove the split.
type TeamMember struct {
	PlayerID   string  `json:"player_id"`
	Attack     float64 `json:"attack"`
	Defense    float64 `json:"defense"`
	GameIQ     float64 `json:"game_iq"`
	Experience int     `json:"experience"`
}

// TeamTotals is the per-team attribute sums of an assignment.
type TeamTotals struct {
	Attack     float64 `json:"attack"`
	Defense    float64 `json:"defense"`
	GameIQ     float64 `json:"game_iq"`
	Experience int     `json:"experience"`
}

// BalanceStats is the fairness report attached to an assignment.
type BalanceStats struct {
	AttackDifferential     float64               `json:"attack_differential"`
	DefenseDifferential    float64               `json:"defense_differential"`
	ExperienceDifferential float64               `json:"experience_differential"`
	TotalDifferential      float64               `json:"total_differential"`
	PerTeamTotals          map[string]TeamTotals `json:"per_team_totals"`
}

// BalancedTeams is the cached, versioned output of the team balancer.
type BalancedTeams struct {
	GameID     string                  `json:"game_id"`
	Teams      map[string][]TeamMember `json:"teams"`
	Stats      BalanceStats            `json:"stats"`
	ComputedAt string                  `json:"computed_at"`
}

// ChemistryRow is one pairwise same-team statistic.
type ChemistryRow struct {
	PlayerA         string  `json:"player_a"`
	PlayerB         string  `json:"player_b"`
	Games           int     `json:"games"`
	Wins            int     `json:"wins"`
	Draws           int     `json:"draws"`
	PerformanceRate float64 `json:"performance_rate"`
	Confidence      float64 `json:"confidence"`
	ChemistryScore  float64 `json:"chemistry_score"`
}

// RivalryRow is one head-to-head opposite-team statistic. Score is the
// first player's win percentage over decided games; 50 is neutral.
type RivalryRow struct {
	PlayerA      string  `json:"player_a"`
	PlayerB      string  `json:"player_b"`
	Games        int     `json:"games"`
	WinsA        int     `json:"wins_a"`
	WinsB        int     `json:"wins_b"`
	RivalryScore float64 `json:"rivalry_score"`
}

// TrioRow is one same-team trio statistic.
type TrioRow struct {
	PlayerA         string  `json:"player_a"`
	PlayerB         string  `json:"player_b"`
	PlayerC         string  `json:"player_c"`
	Games           int     `json:"games"`
	Wins            int     `json:"wins"`
	Draws           int     `json:"draws"`
	PerformanceRate float64 `json:"performance_rate"`
	Confidence      float64 `json:"confidence"`
	ChemistryScore  float64 `json:"chemistry_score"`
}

// ReserveEntry is one row of the ranked waiting list.
type ReserveEntry struct {
	Rank         int    `json:"rank"`
	PlayerID     string `json:"player_id"`
	EffectiveXP  int    `json:"effective_xp"`
	RegisteredAt string `json:"registered_at"`
}
