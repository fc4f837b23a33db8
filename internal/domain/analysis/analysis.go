// Package analysis holds the per-player analyses: the career scoring curve,
// anomalous game detection and the next-season scoring forecast.
package analysis

import (
	"errors"
	"time"

	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/metrics"
)

// Analysis kinds, used in logs and metrics.
const (
	KindCareer   = "career"
	KindAnomaly  = "anomaly"
	KindForecast = "forecast"
)

const curveDegree = 3

// Analyzer runs the player analyses over in-memory tables.
type Analyzer struct {
	minSeasons     int
	minPoints      float64
	contamination  float64
	isolationTrees int
	forecastTrees  int
	seed           int64
	workers        int
	log            logger.Logger
}

// New returns an Analyzer with the standard settings.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		minSeasons:     5,
		minPoints:      5,
		contamination:  0.015,
		isolationTrees: 100,
		forecastTrees:  200,
		seed:           42,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get().Named("analysis")
	}
	return a
}

// playerGames returns the player's rows in table order.
func playerGames(games []model.PlayerGame, player string) []model.PlayerGame {
	var out []model.PlayerGame
	for _, g := range games {
		if g.PlayerName == player {
			out = append(out, g)
		}
	}
	return out
}

// observe records the outcome of one analysis.
func observe(kind string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrInsufficientData):
		outcome = "insufficient_data"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordAnalysis(kind, outcome, time.Since(start))
}
