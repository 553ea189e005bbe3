// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// ShieldHandler handles shield token operations. Admin routes are gated by
// RequireActor at registration time.
type ShieldHandler struct {
	deps Dependencies
}

// NewShieldHandler creates a new shield handler.
func NewShieldHandler(deps Dependencies) *ShieldHandler {
	return &ShieldHandler{deps: deps}
}

type useShieldRequest struct {
	GameID string `json:"game_id"`
}

type usageResponse struct {
	UsageID      string `json:"usage_id"`
	GameID       string `json:"game_id"`
	FrozenStreak int    `json:"frozen_streak"`
}

// HandleUse handles POST /players/{id}/shield/use requests.
func (h *ShieldHandler) HandleUse(w http.ResponseWriter, r *http.Request) {
	const op = "api.shield_use"
	playerID := r.PathValue("id")
	var req useShieldRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	usage, err := h.deps.UseShieldToken(r.Context(), playerID, req.GameID, actor(r, playerID))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{
		UsageID:      usage.ID,
		GameID:       usage.GameID,
		FrozenStreak: usage.FrozenStreak,
	})
}

type adminTokenRequest struct {
	Reason string `json:"reason"`
	Count  int    `json:"count,omitempty"`
}

// HandleIssue handles POST /players/{id}/shield/issue requests.
func (h *ShieldHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	const op = "api.shield_issue"
	var req adminTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.IssueShieldToken(r.Context(), r.PathValue("id"), actor(r, ""), req.Reason); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "issued"})
}

// HandleRemove handles POST /players/{id}/shield/remove requests.
func (h *ShieldHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	const op = "api.shield_remove"
	var req adminTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.RemoveShieldProtection(r.Context(), r.PathValue("id"), actor(r, ""), req.Reason); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "removed"})
}

// HandleReturn handles POST /players/{id}/shield/return requests.
func (h *ShieldHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	const op = "api.shield_return"
	var req adminTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.ReturnShieldToken(r.Context(), r.PathValue("id"), actor(r, ""), req.Reason); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "returned"})
}

// HandleRemoveTokens handles POST /players/{id}/tokens/remove requests.
func (h *ShieldHandler) HandleRemoveTokens(w http.ResponseWriter, r *http.Request) {
	const op = "api.tokens_remove"
	var req adminTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	count := req.Count
	if count == 0 {
		count = 1
	}
	if err := h.deps.RemoveTokens(r.Context(), r.PathValue("id"), count, actor(r, ""), req.Reason); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "removed"})
}

// HandleResetProgress handles POST /players/{id}/tokens/reset-progress requests.
func (h *ShieldHandler) HandleResetProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.tokens_reset_progress"
	var req adminTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.ResetTokenProgress(r.Context(), r.PathValue("id"), actor(r, ""), req.Reason); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "reset"})
}

// actor resolves the acting identity: the actor header when present,
// otherwise the fallback (the player acting on their own behalf).
func actor(r *http.Request, fallback string) string {
	if v := strings.TrimSpace(r.Header.Get(actorHeader)); v != "" {
		return v
	}
	return fallback
}
