package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/internal/domain/types"
	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/ml"
)

// CareerCurve fits a cubic trend to the player's mean points per season.
// Seasons averaging no more than the points floor are left out.
func (a *Analyzer) CareerCurve(ctx context.Context, games []model.PlayerGame, player string) (curve *types.CareerCurve, err error) {
	defer func(start time.Time) { observe(KindCareer, start, err) }(time.Now())

	rows := playerGames(games, player)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, player)
	}

	type agg struct {
		sum float64
		n   int
	}
	bySeason := map[string]*agg{}
	for _, g := range rows {
		s := bySeason[g.SeasonYear]
		if s == nil {
			s = &agg{}
			bySeason[g.SeasonYear] = s
		}
		s.sum += g.Pts
		s.n++
	}
	labels := make([]string, 0, len(bySeason))
	for label := range bySeason {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	curve = &types.CareerCurve{Player: player}
	for _, label := range labels {
		mean := bySeason[label].sum / float64(bySeason[label].n)
		if mean > a.minPoints {
			curve.Seasons = append(curve.Seasons, label)
			curve.Points = append(curve.Points, mean)
		}
	}
	if len(curve.Seasons) < a.minSeasons {
		return nil, fmt.Errorf("%w: %q has %d qualifying seasons, need %d",
			ErrInsufficientData, player, len(curve.Seasons), a.minSeasons)
	}

	x := make([]float64, len(curve.Points))
	for i := range x {
		x[i] = float64(i)
	}
	fit, err := ml.FitPolynomial(x, curve.Points, curveDegree)
	if err != nil {
		return nil, fmt.Errorf("career curve %q: %w", player, err)
	}
	curve.Fitted = fit.Fitted
	curve.Coefficients = fit.Coefficients
	curve.R2 = fit.R2

	a.log.Debug(ctx, "career curve fitted",
		logger.String("player", player),
		logger.Int("seasons", len(curve.Seasons)),
		logger.Float64("r2", curve.R2))
	return curve, nil
}
