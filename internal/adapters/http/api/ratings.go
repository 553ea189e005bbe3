// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/matchday/engine/internal/domain/model"
)

// RatingsHandler handles rating submissions and withdrawals.
type RatingsHandler struct {
	deps Dependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps Dependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// ratingRequest mirrors the OpenAPI schema for POST /ratings.
type ratingRequest struct {
	RaterID     string   `json:"rater_id"`
	RatedID     string   `json:"rated_id"`
	Attack      *float64 `json:"attack,omitempty"`
	Defense     *float64 `json:"defense,omitempty"`
	GameIQ      *float64 `json:"game_iq,omitempty"`
	Goalkeeping *float64 `json:"goalkeeping,omitempty"`
	StyleID     string   `json:"style_id,omitempty"`
	Custom      *struct {
		Pace      bool `json:"pace"`
		Shooting  bool `json:"shooting"`
		Passing   bool `json:"passing"`
		Dribbling bool `json:"dribbling"`
		Defending bool `json:"defending"`
		Physical  bool `json:"physical"`
	} `json:"custom,omitempty"`
}

func (req ratingRequest) toModel() model.Rating {
	r := model.Rating{
		RaterID:     strings.TrimSpace(req.RaterID),
		RatedID:     strings.TrimSpace(req.RatedID),
		Attack:      req.Attack,
		Defense:     req.Defense,
		GameIQ:      req.GameIQ,
		Goalkeeping: req.Goalkeeping,
		StyleID:     req.StyleID,
	}
	if req.Custom != nil {
		r.Custom = &model.StyleFlags{
			Pace:      req.Custom.Pace,
			Shooting:  req.Custom.Shooting,
			Passing:   req.Custom.Passing,
			Dribbling: req.Custom.Dribbling,
			Defending: req.Custom.Defending,
			Physical:  req.Custom.Physical,
		}
	}
	return r
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandleSubmit handles POST /ratings requests.
func (h *RatingsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_rating"
	var req ratingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.SubmitRating(r.Context(), req.toModel()); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandleDelete handles DELETE /ratings?rater_id=&rated_id= requests.
func (h *RatingsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_rating"
	raterID := r.URL.Query().Get("rater_id")
	ratedID := r.URL.Query().Get("rated_id")
	if raterID == "" || ratedID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.DeleteRating(r.Context(), raterID, ratedID); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "deleted"})
}
