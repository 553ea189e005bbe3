// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
	"time"
)

// PlayersHandler handles player creation and read queries.
type PlayersHandler struct {
	deps Dependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps Dependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type createPlayerRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleCreate handles POST /players requests.
func (h *PlayersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_player"
	var req createPlayerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.CreatePlayer(r.Context(), req.ID, req.Name); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "created"})
}

// HandleAttributes handles GET /players/{id}/attributes requests.
func (h *PlayersHandler) HandleAttributes(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_attributes"
	d, err := h.deps.PlayerAttributes(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, attributesResponse{
		PlayerID:        d.PlayerID,
		Pace:            d.Pace,
		Shooting:        d.Shooting,
		Passing:         d.Passing,
		Dribbling:       d.Dribbling,
		Defending:       d.Defending,
		Physical:        d.Physical,
		Attack:          d.Attack,
		Defense:         d.Defense,
		GameIQ:          d.GameIQ,
		Goalkeeping:     d.Goalkeeping,
		TopStyle:        d.TopStyle,
		StyleConfidence: d.StyleConfidence,
		StyleSamples:    d.StyleSamples,
	})
}

type attributesResponse struct {
	PlayerID        string  `json:"player_id"`
	Pace            float64 `json:"pace"`
	Shooting        float64 `json:"shooting"`
	Passing         float64 `json:"passing"`
	Dribbling       float64 `json:"dribbling"`
	Defending       float64 `json:"defending"`
	Physical        float64 `json:"physical"`
	Attack          float64 `json:"attack"`
	Defense         float64 `json:"defense"`
	GameIQ          float64 `json:"game_iq"`
	Goalkeeping     float64 `json:"goalkeeping"`
	TopStyle        string  `json:"top_style,omitempty"`
	StyleConfidence float64 `json:"style_confidence"`
	StyleSamples    int     `json:"style_samples"`
}

type xpResponse struct {
	PlayerID string `json:"player_id"`
	Formula  string `json:"formula"`
	XP       int    `json:"xp"`
}

// HandleXP handles GET /players/{id}/xp?formula= requests.
func (h *PlayersHandler) HandleXP(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_xp"
	playerID := r.PathValue("id")
	xp, formula, err := h.deps.PlayerXP(r.Context(), playerID, r.URL.Query().Get("formula"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, xpResponse{PlayerID: playerID, Formula: string(formula), XP: xp})
}

type ledgerEntryResponse struct {
	Action       string `json:"action"`
	GameID       string `json:"game_id,omitempty"`
	TokensBefore int    `json:"tokens_before"`
	TokensAfter  int    `json:"tokens_after"`
	Reason       string `json:"reason,omitempty"`
	ActorID      string `json:"actor_id,omitempty"`
	At           string `json:"at"`
}

// HandleLedger handles GET /players/{id}/ledger requests.
func (h *PlayersHandler) HandleLedger(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_ledger"
	playerID := r.PathValue("id")
	if _, err := h.deps.Player(r.Context(), playerID); err != nil {
		writeServiceError(w, op, err)
		return
	}
	entries, err := h.deps.TokenLedger(r.Context(), playerID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	out := make([]ledgerEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ledgerEntryResponse{
			Action:       string(e.Action),
			GameID:       e.GameID,
			TokensBefore: e.TokensBefore,
			TokensAfter:  e.TokensAfter,
			Reason:       e.Reason,
			ActorID:      e.ActorID,
			At:           e.At.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, out)
}
