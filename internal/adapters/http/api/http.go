// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/nbai/internal/adapters/artifact"
	service "github.com/okian/nbai/internal/app"
	"github.com/okian/nbai/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	MatchupDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	playersHandler   *PlayersHandler
	matchupHandler   *MatchupHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		playersHandler:   NewPlayersHandler(deps),
		matchupHandler:   NewMatchupHandler(deps),
		dashboardHandler: newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/dashboard/ops", s.dashboardHandler.HandleDashboard)

	mux.HandleFunc("/api/players", MetricsMiddleware(s.playersHandler.HandleList, "players"))
	mux.HandleFunc("/api/players/{name}/career", MetricsMiddleware(s.playersHandler.HandleCareer, "career"))
	mux.HandleFunc("/api/players/{name}/anomalies", MetricsMiddleware(s.playersHandler.HandleAnomalies, "anomalies"))
	mux.HandleFunc("/api/players/{name}/forecast", MetricsMiddleware(s.playersHandler.HandleForecast, "forecast"))
	mux.HandleFunc("/api/teams", MetricsMiddleware(s.matchupHandler.HandleTeams, "teams"))
	mux.HandleFunc("/api/matchup", MetricsMiddleware(s.matchupHandler.HandleMatchup, "matchup"))
	mux.HandleFunc("/api/model", MetricsMiddleware(s.matchupHandler.HandleModel, "model"))
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

// writeServiceError translates service error kinds to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err)
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// Result aliases keep handler signatures short.
type (
	PlayerList        = types.PlayerList
	CareerCurve       = types.CareerCurve
	AnomalyReport     = types.AnomalyReport
	Forecast          = types.Forecast
	TeamList          = types.TeamList
	MatchupPrediction = types.MatchupPrediction
	ModelReport       = artifact.Report
)
