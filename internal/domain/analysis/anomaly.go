package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/internal/domain/types"
	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/ml"
)

// AnomalyFeatures names the per-game vector fed to the detector.
var AnomalyFeatures = []string{"pts", "ast", "reb", "fg3a", "fg_pct", "fg3_pct", "tov"}

func anomalyVector(g model.PlayerGame) []float64 {
	v := []float64{g.Pts, g.Ast, g.Reb, g.FG3A, g.FGPct, g.FG3Pct, g.Tov}
	for i := range v {
		if math.IsNaN(v[i]) {
			v[i] = 0
		}
	}
	return v
}

// Anomalies fits an isolation forest to the player's games and returns the
// games it flags, most anomalous first. A player without outliers gets an
// empty list.
func (a *Analyzer) Anomalies(ctx context.Context, games []model.PlayerGame, player string) (report *types.AnomalyReport, err error) {
	defer func(start time.Time) { observe(KindAnomaly, start, err) }(time.Now())

	rows := playerGames(games, player)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, player)
	}

	vectors := make([][]float64, len(rows))
	for i, g := range rows {
		vectors[i] = anomalyVector(g)
	}
	X, err := ml.NewMatrix(vectors)
	if err != nil {
		return nil, fmt.Errorf("anomalies %q: %w", player, err)
	}

	forest := ml.NewIsolationForest(a.contamination, a.seed)
	forest.NEstimators = a.isolationTrees
	forest.Workers = a.workers
	if err := forest.Fit(ctx, X); err != nil {
		return nil, fmt.Errorf("anomalies %q: %w", player, err)
	}
	scores, err := forest.DecisionFunction(X)
	if err != nil {
		return nil, fmt.Errorf("anomalies %q: %w", player, err)
	}

	report = &types.AnomalyReport{
		Player:    player,
		Games:     len(rows),
		Threshold: forest.Offset(),
		Anomalies: []types.AnomalousGame{},
		Points:    make([]types.GamePoint, len(rows)),
	}
	for i, g := range rows {
		anomalous := scores[i] < 0
		report.Points[i] = types.GamePoint{Pts: g.Pts, Ast: g.Ast, Anomalous: anomalous}
		if !anomalous {
			continue
		}
		v := vectors[i]
		report.Anomalies = append(report.Anomalies, types.AnomalousGame{
			GameDate: dateLabel(g),
			GameID:   g.GameID,
			Pts:      v[0],
			Ast:      v[1],
			Reb:      v[2],
			FG3A:     v[3],
			FGPct:    v[4],
			FG3Pct:   v[5],
			Tov:      v[6],
			Score:    scores[i],
		})
	}
	sort.SliceStable(report.Anomalies, func(i, j int) bool {
		return report.Anomalies[i].Score < report.Anomalies[j].Score
	})

	a.log.Debug(ctx, "anomalies detected",
		logger.String("player", player),
		logger.Int("games", len(rows)),
		logger.Int("anomalies", len(report.Anomalies)))
	return report, nil
}

func dateLabel(g model.PlayerGame) string {
	if !g.DateValid {
		return ""
	}
	return g.GameDate.Format(time.DateOnly)
}
