// Package scoring predicts the winner of a home/away pairing from each
// team's most recent rolling features.
package scoring

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/nbai/internal/domain/features"
	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/internal/domain/types"
	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/ml"
)

// Input names the two sides of a matchup.
type Input struct {
	Home string
	Away string
}

// Scorer predicts a matchup.
type Scorer interface {
	// Score returns the predicted winner with class probabilities.
	Score(ctx context.Context, in Input) (*types.MatchupPrediction, error)
}

// Option applies a configuration option to the MatchupScorer.
type Option func(*MatchupScorer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *MatchupScorer) { s.log = l }
}

// MatchupScorer implements Scorer with a fitted scaler and classifier.
type MatchupScorer struct {
	classifier *ml.RandomForestClassifier
	scaler     *ml.StandardScaler
	latest     map[string]model.TeamFeatureRow
	log        logger.Logger
}

// NewMatchupScorer builds a scorer over the latest feature row per team.
func NewMatchupScorer(classifier *ml.RandomForestClassifier, scaler *ml.StandardScaler, rows []model.TeamFeatureRow, opts ...Option) *MatchupScorer {
	s := &MatchupScorer{
		classifier: classifier,
		scaler:     scaler,
		latest:     features.LatestByTeam(rows),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("scoring")
	}
	return s
}

// Score computes the prediction for in.
func (s *MatchupScorer) Score(ctx context.Context, in Input) (*types.MatchupPrediction, error) {
	home, away := strings.TrimSpace(in.Home), strings.TrimSpace(in.Away)
	switch {
	case home == "" || away == "":
		return nil, fmt.Errorf("%w: home and away are required", ErrBadRequest)
	case home == away:
		return nil, fmt.Errorf("%w: pick two different teams", ErrBadRequest)
	}
	h, ok := s.latest[home]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, home)
	}
	a, ok := s.latest[away]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, away)
	}

	scaled, err := s.scaler.TransformRow(features.Diff(h, a))
	if err != nil {
		return nil, fmt.Errorf("scale matchup: %w", err)
	}
	proba, err := s.classifier.PredictProbaRow(scaled)
	if err != nil {
		return nil, fmt.Errorf("predict matchup: %w", err)
	}
	if len(proba) < 2 {
		return nil, fmt.Errorf("predict matchup: classifier has %d classes", len(proba))
	}

	class := floats.MaxIdx(proba)
	p := &types.MatchupPrediction{
		Home:               home,
		Away:               away,
		Winner:             away,
		Confidence:         proba[class],
		HomeWinProbability: proba[1],
		AwayWinProbability: proba[0],
		Comparison:         compare(h, a),
	}
	if class == 1 {
		p.Winner = home
	}

	s.log.Debug(ctx, "matchup scored",
		logger.String("home", home),
		logger.String("away", away),
		logger.String("winner", p.Winner),
		logger.Float64("confidence", p.Confidence))
	return p, nil
}

// Teams lists the teams the scorer knows, sorted.
func (s *MatchupScorer) Teams() []string {
	rows := make([]model.TeamFeatureRow, 0, len(s.latest))
	for _, r := range s.latest {
		rows = append(rows, r)
	}
	return features.Teams(rows)
}

func compare(h, a model.TeamFeatureRow) []types.StatComparison {
	names := model.TeamFeatureNames()
	hv, av := h.Vector(), a.Vector()
	out := make([]types.StatComparison, len(names))
	for i, name := range names {
		out[i] = types.StatComparison{Feature: name, Home: hv[i], Away: av[i], Diff: hv[i] - av[i]}
	}
	return out
}
