package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// PlayerDependencies defines the player analysis operations.
type PlayerDependencies interface {
	Players(ctx context.Context) (PlayerList, error)
	CareerCurve(ctx context.Context, player string) (*CareerCurve, error)
	Anomalies(ctx context.Context, player string) (*AnomalyReport, error)
	Forecast(ctx context.Context, player string) (*Forecast, error)
}

// PlayersHandler handles the player analysis endpoints.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleList handles GET /api/players requests.
func (h *PlayersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	list, err := h.deps.Players(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCareer handles GET /api/players/{name}/career requests.
func (h *PlayersHandler) HandleCareer(w http.ResponseWriter, r *http.Request) {
	serveForPlayer(w, r, h.deps.CareerCurve)
}

// HandleAnomalies handles GET /api/players/{name}/anomalies requests.
func (h *PlayersHandler) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	serveForPlayer(w, r, h.deps.Anomalies)
}

// HandleForecast handles GET /api/players/{name}/forecast requests.
func (h *PlayersHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	serveForPlayer(w, r, h.deps.Forecast)
}

func serveForPlayer[T any](w http.ResponseWriter, r *http.Request, query func(context.Context, string) (*T, error)) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing player name", ErrBadRequest))
		return
	}
	out, err := query(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
