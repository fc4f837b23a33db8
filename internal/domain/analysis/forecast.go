package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/nbai/internal/domain/features"
	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/internal/domain/types"
	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/ml"
)

// Forecaster predicts next-season scoring from a league-wide season table.
type Forecaster struct {
	seasons []model.SeasonRow
	reg     *ml.RandomForestRegressor
	rows    int
}

// TrainingRows returns how many season rows the regressor was fitted on.
func (f *Forecaster) TrainingRows() int { return f.rows }

// FitForecaster trains the regressor on every season row that has both a
// previous and a next season for the same player.
func (a *Analyzer) FitForecaster(ctx context.Context, seasons []model.SeasonRow) (*Forecaster, error) {
	start := time.Now()
	train := features.TrainingRows(seasons)
	if len(train) == 0 {
		return nil, fmt.Errorf("%w: no season has both a previous and a next season", ErrInsufficientData)
	}

	X := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, r := range train {
		X[i] = r.Vector()
		y[i] = r.NextPts
	}
	m, err := ml.NewMatrix(X)
	if err != nil {
		return nil, fmt.Errorf("forecast matrix: %w", err)
	}

	reg := ml.NewRandomForestRegressor(ml.ForestParams{
		NEstimators: a.forecastTrees,
		Seed:        a.seed,
		Workers:     a.workers,
	})
	if err := reg.Fit(ctx, m, y); err != nil {
		return nil, fmt.Errorf("fit forecaster: %w", err)
	}

	a.log.Info(ctx, "forecaster fitted",
		logger.Int("season_rows", len(seasons)),
		logger.Int("training_rows", len(train)),
		logger.Duration("took", time.Since(start)))
	return &Forecaster{seasons: seasons, reg: reg, rows: len(train)}, nil
}

// Forecast predicts the player's points for the season after their most
// recent one.
func (f *Forecaster) Forecast(_ context.Context, player string) (fc *types.Forecast, err error) {
	defer func(start time.Time) { observe(KindForecast, start, err) }(time.Now())

	row, ok := features.LatestSeason(f.seasons, player)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, player)
	}
	pred, err := f.reg.PredictRow(row.Vector())
	if err != nil {
		return nil, fmt.Errorf("forecast %q: %w", player, err)
	}
	return &types.Forecast{
		Player:          player,
		BaseSeason:      row.SeasonYear,
		BasePoints:      row.Pts,
		ForecastSeason:  fmt.Sprintf("%d-%d", row.SeasonStart+1, row.SeasonStart+2),
		PredictedPoints: pred,
	}, nil
}
