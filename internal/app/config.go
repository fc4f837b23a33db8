package service

import (
	"context"

	"github.com/okian/nbai/internal/adapters/artifact"
	"github.com/okian/nbai/internal/adapters/repository"
	"github.com/okian/nbai/internal/config"
	"github.com/okian/nbai/internal/domain/analysis"
	"github.com/okian/nbai/internal/domain/ingest"
	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/internal/domain/training"
	"github.com/okian/nbai/pkg/logger"
)

// OpenStore opens the configured snapshot store.
func OpenStore(ctx context.Context, cfg *config.Config) (*repository.SQLiteStore, error) {
	return repository.NewSQLiteStore(ctx, cfg.SnapshotPath)
}

// NewAnalyzer builds the player analyzer from cfg.
func NewAnalyzer(cfg *config.Config) *analysis.Analyzer {
	return analysis.New(
		analysis.WithMinCareerSeasons(cfg.MinCareerSeasons),
		analysis.WithMinSeasonPoints(cfg.MinSeasonPoints),
		analysis.WithContamination(cfg.Contamination),
		analysis.WithIsolationTrees(cfg.IsolationTrees),
		analysis.WithForecastTrees(cfg.ForecastTrees),
		analysis.WithSeed(cfg.RandomSeed),
		analysis.WithWorkers(cfg.WorkerCount),
	)
}

// NewTrainer builds the win-predictor trainer from cfg.
func NewTrainer(cfg *config.Config) *training.Trainer {
	return training.New(
		training.WithHoldout(cfg.HoldoutFraction),
		training.WithFolds(cfg.CVFolds),
		training.WithSeed(cfg.RandomSeed),
		training.WithWorkers(cfg.WorkerCount),
		training.WithGrid(training.Grid{
			NEstimators:     cfg.GridNEstimators,
			MaxDepth:        cfg.GridMaxDepth,
			MinSamplesLeaf:  cfg.GridMinSamplesLeaf,
			MinSamplesSplit: cfg.GridMinSamplesSplit,
		}),
	)
}

// NewPipeline builds the cleaning stages from cfg.
func NewPipeline(cfg *config.Config, store ingest.Store, force bool) *ingest.Pipeline {
	players := append(
		ingest.Shards(cfg.DataDir, model.GameTypeRegular, cfg.PlayerRegularShards...),
		ingest.Shards(cfg.DataDir, model.GameTypePlayoff, cfg.PlayerPlayoffShards...)...)
	teams := append(
		ingest.Shards(cfg.DataDir, model.GameTypeRegular, cfg.TeamRegularShards...),
		ingest.Shards(cfg.DataDir, model.GameTypePlayoff, cfg.TeamPlayoffShards...)...)
	return ingest.New(store,
		ingest.WithPlayerShards(players...),
		ingest.WithTeamShards(teams...),
		ingest.WithExportPath(cfg.ExportCSVPath),
		ingest.WithForce(force),
	)
}

// FromConfig builds a Service over store with every component configured
// from cfg. Extra options are applied last.
func FromConfig(cfg *config.Config, store repository.Store, opts ...Option) *Service {
	base := []Option{
		WithStore(store),
		WithArtifactStore(artifact.NewStore(cfg.ArtifactDir)),
		WithAnalyzer(NewAnalyzer(cfg)),
		WithTrainer(NewTrainer(cfg)),
		WithRollingWindow(cfg.RollingWindow),
		WithPlayerListMinSeasons(cfg.PlayerListMinSeasons),
		WithDefaultPlayer(cfg.DefaultPlayer),
		WithLogger(logger.Get().Named("service")),
	}
	return New(append(base, opts...)...)
}
