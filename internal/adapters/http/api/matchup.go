package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// MatchupDependencies defines the team and win-predictor operations.
type MatchupDependencies interface {
	Teams(ctx context.Context) (TeamList, error)
	PredictMatchup(ctx context.Context, home, away string) (*MatchupPrediction, error)
	ModelReport(ctx context.Context) (*ModelReport, error)
}

// MatchupHandler handles the game prediction endpoints.
type MatchupHandler struct {
	deps MatchupDependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps MatchupDependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

// HandleTeams handles GET /api/teams requests.
func (h *MatchupHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	teams, err := h.deps.Teams(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleMatchup handles GET /api/matchup?home=&away= requests.
func (h *MatchupHandler) HandleMatchup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	home := strings.TrimSpace(r.URL.Query().Get("home"))
	away := strings.TrimSpace(r.URL.Query().Get("away"))
	if home == "" || away == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: home and away are required", ErrBadRequest))
		return
	}
	pred, err := h.deps.PredictMatchup(r.Context(), home, away)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// HandleModel handles GET /api/model requests.
func (h *MatchupHandler) HandleModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rep, err := h.deps.ModelReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
