// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/matchday/engine/internal/adapters/repository"
	service "github.com/matchday/engine/internal/app"
	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/streak"
	"github.com/matchday/engine/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Roster and schedule.
	CreatePlayer(ctx context.Context, id, name string) error
	CreateGame(ctx context.Context, id string, kickoffAt time.Time) error
	Register(ctx context.Context, reg model.GameRegistration) error
	Player(ctx context.Context, playerID string) (model.Player, error)

	// Ratings and derived attributes.
	SubmitRating(ctx context.Context, r model.Rating) error
	DeleteRating(ctx context.Context, raterID, ratedID string) error
	PlayerAttributes(ctx context.Context, playerID string) (model.DerivedAttributes, error)

	// Experience and shield tokens.
	PlayerXP(ctx context.Context, playerID, formula string) (int, streak.Formula, error)
	TokenLedger(ctx context.Context, playerID string) ([]model.TokenLedgerEntry, error)
	UseShieldToken(ctx context.Context, playerID, gameID, actorID string) (model.ShieldTokenUsage, error)
	IssueShieldToken(ctx context.Context, playerID, actorID, reason string) error
	RemoveShieldProtection(ctx context.Context, playerID, actorID, reason string) error
	ReturnShieldToken(ctx context.Context, playerID, actorID, reason string) error
	RemoveTokens(ctx context.Context, playerID string, count int, actorID, reason string) error
	ResetTokenProgress(ctx context.Context, playerID, actorID, reason string) error

	// Chemistry batches.
	ChemistryPairs(ctx context.Context, candidates []string) ([]types.ChemistryRow, error)
	ChemistryRivalries(ctx context.Context, candidates []string) ([]types.RivalryRow, error)
	ChemistryTrios(ctx context.Context, candidates []string) ([]types.TrioRow, error)

	// Balancing and waitlist.
	BalancedTeams(ctx context.Context, gameID string) (types.BalancedTeams, error)
	Reserves(ctx context.Context, gameID string) ([]types.ReserveEntry, error)
	OfferCandidates(ctx context.Context, gameID string, hoursUntil float64) ([]types.ReserveEntry, error)
	CreateSlotOffers(ctx context.Context, gameID string, hoursUntil float64) ([]model.SlotOffer, error)
	AcceptSlotOffer(ctx context.Context, gameID, playerID string) error

	// Game lifecycle.
	CompleteGame(ctx context.Context, gameID string, teamA, teamB []string, scoreA, scoreB int, outcome model.Outcome) error
	CancelGame(ctx context.Context, gameID string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	ratingsHandler   *RatingsHandler
	playersHandler   *PlayersHandler
	shieldHandler    *ShieldHandler
	chemistryHandler *ChemistryHandler
	gamesHandler     *GamesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		ratingsHandler:   NewRatingsHandler(deps),
		playersHandler:   NewPlayersHandler(deps),
		shieldHandler:    NewShieldHandler(deps),
		chemistryHandler: NewChemistryHandler(deps),
		gamesHandler:     NewGamesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux using method-qualified patterns.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /ratings", MetricsMiddleware(s.ratingsHandler.HandleSubmit, "ratings"))
	mux.HandleFunc("DELETE /ratings", MetricsMiddleware(s.ratingsHandler.HandleDelete, "ratings"))

	mux.HandleFunc("POST /players", MetricsMiddleware(s.playersHandler.HandleCreate, "players"))
	mux.HandleFunc("GET /players/{id}/attributes", MetricsMiddleware(s.playersHandler.HandleAttributes, "attributes"))
	mux.HandleFunc("GET /players/{id}/xp", MetricsMiddleware(s.playersHandler.HandleXP, "xp"))
	mux.HandleFunc("GET /players/{id}/ledger", MetricsMiddleware(s.playersHandler.HandleLedger, "ledger"))

	mux.HandleFunc("POST /players/{id}/shield/use", MetricsMiddleware(s.shieldHandler.HandleUse, "shield_use"))
	mux.HandleFunc("POST /players/{id}/shield/issue", MetricsMiddleware(RequireActor(s.shieldHandler.HandleIssue), "shield_issue"))
	mux.HandleFunc("POST /players/{id}/shield/remove", MetricsMiddleware(RequireActor(s.shieldHandler.HandleRemove), "shield_remove"))
	mux.HandleFunc("POST /players/{id}/shield/return", MetricsMiddleware(RequireActor(s.shieldHandler.HandleReturn), "shield_return"))
	mux.HandleFunc("POST /players/{id}/tokens/remove", MetricsMiddleware(RequireActor(s.shieldHandler.HandleRemoveTokens), "tokens_remove"))
	mux.HandleFunc("POST /players/{id}/tokens/reset-progress", MetricsMiddleware(RequireActor(s.shieldHandler.HandleResetProgress), "tokens_reset"))

	mux.HandleFunc("POST /chemistry/pairs", MetricsMiddleware(s.chemistryHandler.HandlePairs, "chemistry_pairs"))
	mux.HandleFunc("POST /chemistry/rivalries", MetricsMiddleware(s.chemistryHandler.HandleRivalries, "chemistry_rivalries"))
	mux.HandleFunc("POST /chemistry/trios", MetricsMiddleware(s.chemistryHandler.HandleTrios, "chemistry_trios"))

	mux.HandleFunc("POST /games", MetricsMiddleware(s.gamesHandler.HandleCreate, "games"))
	mux.HandleFunc("POST /games/{id}/registrations", MetricsMiddleware(s.gamesHandler.HandleRegister, "registrations"))
	mux.HandleFunc("GET /games/{id}/teams", MetricsMiddleware(s.gamesHandler.HandleTeams, "teams"))
	mux.HandleFunc("GET /games/{id}/reserves", MetricsMiddleware(s.gamesHandler.HandleReserves, "reserves"))
	mux.HandleFunc("GET /games/{id}/offers", MetricsMiddleware(s.gamesHandler.HandleOfferCandidates, "offers"))
	mux.HandleFunc("POST /games/{id}/offers", MetricsMiddleware(s.gamesHandler.HandleCreateOffers, "offers"))
	mux.HandleFunc("POST /games/{id}/offers/accept", MetricsMiddleware(s.gamesHandler.HandleAcceptOffer, "offers_accept"))
	mux.HandleFunc("POST /games/{id}/complete", MetricsMiddleware(s.gamesHandler.HandleComplete, "complete"))
	mux.HandleFunc("DELETE /games/{id}", MetricsMiddleware(s.gamesHandler.HandleCancel, "cancel"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates the service error taxonomy to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrEligibility):
		writeError(w, http.StatusUnprocessableEntity, "not_eligible", Wrap(op, err))
	case errors.Is(err, service.ErrConsistency):
		writeError(w, http.StatusUnprocessableEntity, "inconsistent", Wrap(op, err))
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, repository.ErrDuplicateOffer):
		writeError(w, http.StatusConflict, "conflict", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return WrapKind("api.decode", ErrBadRequest, err)
	}
	return nil
}
