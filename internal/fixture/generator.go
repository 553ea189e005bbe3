package fixture

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/matchday/engine/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileDivisor     = 6
)

// Constants for rating generation ranges.
const (
	avgPlayerMin      = 3.0
	avgPlayerRange    = 4.0
	strikerAtkMin     = 7.0
	strikerAtkRange   = 2.5
	strikerDefMin     = 2.0
	strikerDefRange   = 3.0
	defenderAtkMin    = 2.0
	defenderAtkRange  = 3.0
	defenderDefMin    = 7.0
	defenderDefRange  = 2.5
	keeperGKMin       = 7.0
	keeperGKRange     = 3.0
	casualMin         = 0.5
	casualRange       = 3.5
	allRounderMin     = 5.0
	allRounderRange   = 3.0
	baselineGKMin     = 0.5
	baselineGKRange   = 2.5
	iqJitterRange     = 2.0
)

// Player profile cases driving the rating distribution.
const (
	caseAverage    = 0
	caseStriker    = 1
	caseDefender   = 2
	caseKeeper     = 3
	caseCasual     = 4
	caseAllRounder = 5
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomIndex returns a random int in [0, n) using crypto/rand.
func randomIndex(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateRoster creates the synthetic player pool with unique IDs.
func generateRoster(ctx context.Context, config *Config) []Player {
	logger.Get().Info(ctx, "generating roster", logger.Int("numPlayers", config.NumPlayers))

	players := make([]Player, config.NumPlayers)
	for i := range players {
		players[i] = Player{
			ID:   "player_" + uuid.New().String(),
			Name: "Player " + strconv.Itoa(i+1),
		}
	}
	return players
}

// playerProfile fixes one archetype per rated player so that every rater
// describes roughly the same footballer, with per-rater noise on top.
type playerProfile struct {
	attack      float64
	defense     float64
	gameIQ      float64
	goalkeeping float64
}

// generateProfile rolls one archetype with varied attribute distribution.
func generateProfile() playerProfile {
	roll, _ := rand.Int(rand.Reader, big.NewInt(profileDivisor))
	switch roll.Int64() {
	case caseStriker:
		return playerProfile{
			attack:      strikerAtkMin + getRandomFloat()*strikerAtkRange,
			defense:     strikerDefMin + getRandomFloat()*strikerDefRange,
			gameIQ:      avgPlayerMin + getRandomFloat()*avgPlayerRange,
			goalkeeping: baselineGKMin + getRandomFloat()*baselineGKRange,
		}
	case caseDefender:
		return playerProfile{
			attack:      defenderAtkMin + getRandomFloat()*defenderAtkRange,
			defense:     defenderDefMin + getRandomFloat()*defenderDefRange,
			gameIQ:      avgPlayerMin + getRandomFloat()*avgPlayerRange,
			goalkeeping: baselineGKMin + getRandomFloat()*baselineGKRange,
		}
	case caseKeeper:
		return playerProfile{
			attack:      casualMin + getRandomFloat()*casualRange,
			defense:     avgPlayerMin + getRandomFloat()*avgPlayerRange,
			gameIQ:      avgPlayerMin + getRandomFloat()*avgPlayerRange,
			goalkeeping: keeperGKMin + getRandomFloat()*keeperGKRange,
		}
	case caseCasual:
		return playerProfile{
			attack:      casualMin + getRandomFloat()*casualRange,
			defense:     casualMin + getRandomFloat()*casualRange,
			gameIQ:      casualMin + getRandomFloat()*casualRange,
			goalkeeping: baselineGKMin + getRandomFloat()*baselineGKRange,
		}
	case caseAllRounder:
		return playerProfile{
			attack:      allRounderMin + getRandomFloat()*allRounderRange,
			defense:     allRounderMin + getRandomFloat()*allRounderRange,
			gameIQ:      allRounderMin + getRandomFloat()*allRounderRange,
			goalkeeping: baselineGKMin + getRandomFloat()*baselineGKRange,
		}
	default:
		return playerProfile{
			attack:      avgPlayerMin + getRandomFloat()*avgPlayerRange,
			defense:     avgPlayerMin + getRandomFloat()*avgPlayerRange,
			gameIQ:      avgPlayerMin + getRandomFloat()*avgPlayerRange,
			goalkeeping: baselineGKMin + getRandomFloat()*baselineGKRange,
		}
	}
}

// jitter adds per-rater noise to a metric, clamped to the 0..10 scale.
func jitter(v float64) float64 {
	out := v + (getRandomFloat()-0.5)*iqJitterRange
	if out < 0 {
		return 0
	}
	if out > 10 {
		return 10
	}
	return out
}

// generateRatings creates peer ratings: each player receives RatersPer
// ratings from distinct teammates, scattered around a fixed archetype.
func generateRatings(ctx context.Context, config *Config, players []Player, stats *Stats) []Rating {
	logger.Get().Info(ctx, "generating peer ratings",
		logger.Int("ratersPerPlayer", config.RatersPer))

	ratings := make([]Rating, 0, len(players)*config.RatersPer)
	for i, rated := range players {
		profile := generateProfile()
		seen := map[int]bool{i: true}
		for r := 0; r < config.RatersPer && r < len(players)-1; r++ {
			j := randomIndex(len(players))
			for seen[j] {
				j = (j + 1) % len(players)
			}
			seen[j] = true
			ratings = append(ratings, Rating{
				RaterID:     players[j].ID,
				RatedID:     rated.ID,
				Attack:      jitter(profile.attack),
				Defense:     jitter(profile.defense),
				GameIQ:      jitter(profile.gameIQ),
				Goalkeeping: jitter(profile.goalkeeping),
			})
		}
	}

	stats.RatingsGenerated = len(ratings)
	logger.Get().Info(ctx, "generated ratings successfully", logger.Int("count", len(ratings)))
	return ratings
}

// generateSeason schedules NumGames games: a rotating selected squad split
// down the middle plus a tail of reserves, with random low scorelines.
func generateSeason(ctx context.Context, config *Config, players []Player) []GameResult {
	logger.Get().Info(ctx, "generating season", logger.Int("numGames", config.NumGames))

	games := make([]GameResult, config.NumGames)
	for g := range games {
		// Rotate the squad so caps spread across the roster.
		squad := make([]string, 0, config.SquadSize)
		reserves := make([]string, 0, config.ReserveSize)
		for i := 0; i < config.SquadSize+config.ReserveSize && i < len(players); i++ {
			id := players[(g*3+i)%len(players)].ID
			if len(squad) < config.SquadSize {
				squad = append(squad, id)
			} else {
				reserves = append(reserves, id)
			}
		}

		half := len(squad) / 2
		games[g] = GameResult{
			GameID:   "game_" + strconv.Itoa(g+1) + "_" + uuid.New().String(),
			TeamA:    squad[:half],
			TeamB:    squad[half:],
			Reserves: reserves,
			ScoreA:   randomIndex(6),
			ScoreB:   randomIndex(6),
		}
	}
	return games
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
