// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// maxCandidates bounds one batch request so a single call cannot explode
// into an unbounded pair/trio enumeration.
const maxCandidates = 64

// ChemistryHandler handles batch chemistry, rivalry, and trio queries.
type ChemistryHandler struct {
	deps Dependencies
}

// NewChemistryHandler creates a new chemistry handler.
func NewChemistryHandler(deps Dependencies) *ChemistryHandler {
	return &ChemistryHandler{deps: deps}
}

type chemistryRequest struct {
	Candidates []string `json:"candidates"`
}

func (h *ChemistryHandler) candidates(w http.ResponseWriter, r *http.Request, op string) ([]string, bool) {
	var req chemistryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return nil, false
	}
	if len(req.Candidates) < 2 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return nil, false
	}
	if len(req.Candidates) > maxCandidates {
		writeError(w, http.StatusBadRequest, "candidates_exceeded", NewKind(op, ErrBadRequest))
		return nil, false
	}
	return req.Candidates, true
}

// HandlePairs handles POST /chemistry/pairs requests.
func (h *ChemistryHandler) HandlePairs(w http.ResponseWriter, r *http.Request) {
	const op = "api.chemistry_pairs"
	cands, ok := h.candidates(w, r, op)
	if !ok {
		return
	}
	rows, err := h.deps.ChemistryPairs(r.Context(), cands)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleRivalries handles POST /chemistry/rivalries requests.
func (h *ChemistryHandler) HandleRivalries(w http.ResponseWriter, r *http.Request) {
	const op = "api.chemistry_rivalries"
	cands, ok := h.candidates(w, r, op)
	if !ok {
		return
	}
	rows, err := h.deps.ChemistryRivalries(r.Context(), cands)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleTrios handles POST /chemistry/trios requests.
func (h *ChemistryHandler) HandleTrios(w http.ResponseWriter, r *http.Request) {
	const op = "api.chemistry_trios"
	cands, ok := h.candidates(w, r, op)
	if !ok {
		return
	}
	rows, err := h.deps.ChemistryTrios(r.Context(), cands)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
