// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matchday/engine/internal/domain/model"
)

// GamesHandler handles game lifecycle, balancing, and waitlist routes.
type GamesHandler struct {
	deps Dependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps Dependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

type createGameRequest struct {
	ID        string `json:"id"`
	KickoffAt string `json:"kickoff_at"`
}

// HandleCreate handles POST /games requests.
func (h *GamesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_game"
	var req createGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	kickoff, err := time.Parse(time.RFC3339, req.KickoffAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("kickoff_at must be RFC3339")))
		return
	}
	if err := h.deps.CreateGame(r.Context(), req.ID, kickoff); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "created"})
}

type registrationRequest struct {
	PlayerID     string `json:"player_id"`
	Status       string `json:"status,omitempty"`
	Paid         bool   `json:"paid"`
	Late         bool   `json:"late"`
	RegisteredAt string `json:"registered_at,omitempty"`
}

// HandleRegister handles POST /games/{id}/registrations requests.
func (h *GamesHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register"
	var req registrationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	reg := model.GameRegistration{
		GameID:   r.PathValue("id"),
		PlayerID: req.PlayerID,
		Status:   model.RegistrationStatus(req.Status),
		Paid:     req.Paid,
		Late:     req.Late,
	}
	if req.RegisteredAt != "" {
		ts, err := time.Parse(time.RFC3339, req.RegisteredAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("registered_at must be RFC3339")))
			return
		}
		reg.RegisteredAt = ts
	}
	if err := h.deps.Register(r.Context(), reg); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "registered"})
}

// HandleTeams handles GET /games/{id}/teams requests.
func (h *GamesHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.teams"
	teams, err := h.deps.BalancedTeams(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleReserves handles GET /games/{id}/reserves requests.
func (h *GamesHandler) HandleReserves(w http.ResponseWriter, r *http.Request) {
	const op = "api.reserves"
	rows, err := h.deps.Reserves(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// hoursUntil parses the hours_until query parameter.
func hoursUntil(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("hours_until")
	if raw == "" {
		return 0, errors.New("missing hours_until")
	}
	h, err := strconv.ParseFloat(raw, 64)
	if err != nil || h < 0 {
		return 0, errors.New("hours_until must be a non-negative number")
	}
	return h, nil
}

// HandleOfferCandidates handles GET /games/{id}/offers?hours_until=H requests.
func (h *GamesHandler) HandleOfferCandidates(w http.ResponseWriter, r *http.Request) {
	const op = "api.offer_candidates"
	hrs, err := hoursUntil(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	rows, err := h.deps.OfferCandidates(r.Context(), r.PathValue("id"), hrs)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type offerResponse struct {
	OfferID  string `json:"offer_id"`
	PlayerID string `json:"player_id"`
	Status   string `json:"status"`
}

// HandleCreateOffers handles POST /games/{id}/offers?hours_until=H requests.
func (h *GamesHandler) HandleCreateOffers(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_offers"
	hrs, err := hoursUntil(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	offers, err := h.deps.CreateSlotOffers(r.Context(), r.PathValue("id"), hrs)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	out := make([]offerResponse, len(offers))
	for i, o := range offers {
		out[i] = offerResponse{OfferID: o.ID, PlayerID: o.PlayerID, Status: string(o.Status)}
	}
	writeJSON(w, http.StatusOK, out)
}

type acceptOfferRequest struct {
	PlayerID string `json:"player_id"`
}

// HandleAcceptOffer handles POST /games/{id}/offers/accept requests.
func (h *GamesHandler) HandleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	const op = "api.accept_offer"
	var req acceptOfferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.AcceptSlotOffer(r.Context(), r.PathValue("id"), req.PlayerID); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "accepted"})
}

type completeGameRequest struct {
	TeamA   []string `json:"team_a"`
	TeamB   []string `json:"team_b"`
	ScoreA  int      `json:"score_a"`
	ScoreB  int      `json:"score_b"`
	Outcome string   `json:"outcome,omitempty"`
}

// HandleComplete handles POST /games/{id}/complete requests.
func (h *GamesHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.complete_game"
	var req completeGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.ScoreA < 0 || req.ScoreB < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("scores must not be negative")))
		return
	}
	err := h.deps.CompleteGame(r.Context(), r.PathValue("id"),
		req.TeamA, req.TeamB, req.ScoreA, req.ScoreB, model.Outcome(req.Outcome))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "completed"})
}

// HandleCancel handles DELETE /games/{id} requests.
func (h *GamesHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	const op = "api.cancel_game"
	if err := h.deps.CancelGame(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "canceled"})
}
