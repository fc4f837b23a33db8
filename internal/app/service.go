// Package service provides the business service behind the HTTP API and the
// pipeline commands: snapshot loading, feature tables, trained models and the
// player and matchup analyses, memoized for the process lifetime.
package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/nbai/internal/adapters/artifact"
	"github.com/okian/nbai/internal/adapters/repository"
	"github.com/okian/nbai/internal/domain/analysis"
	"github.com/okian/nbai/internal/domain/features"
	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/internal/domain/scoring"
	"github.com/okian/nbai/internal/domain/training"
	"github.com/okian/nbai/internal/domain/types"
	"github.com/okian/nbai/pkg/logger"
)

// Memo key prefixes.
const (
	memoPlayers      = "players"
	memoTeams        = "teams"
	memoTeamFeatures = "team_features"
	memoSeasons      = "seasons"
	memoForecaster   = "forecaster"
	memoPredictor    = "predictor"
)

// Service implements the API dependencies for the analytics dashboard.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	artifacts *artifact.Store
	analyzer  *analysis.Analyzer
	trainer   *training.Trainer
	memo      *memo

	window               int
	playerListMinSeasons int
	defaultPlayer        string

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the snapshot store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithArtifactStore sets where trained models are read from and written to.
func WithArtifactStore(a *artifact.Store) Option {
	return func(s *Service) { s.artifacts = a }
}

// WithAnalyzer sets the player analyzer.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithTrainer sets the win-predictor trainer.
func WithTrainer(t *training.Trainer) Option {
	return func(s *Service) { s.trainer = t }
}

// WithRollingWindow sets the number of prior games per team feature.
func WithRollingWindow(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.window = k
		}
	}
}

// WithPlayerListMinSeasons keeps players with strictly more seasons than n.
func WithPlayerListMinSeasons(n int) Option {
	return func(s *Service) { s.playerListMinSeasons = n }
}

// WithDefaultPlayer sets the preselected player.
func WithDefaultPlayer(name string) Option {
	return func(s *Service) { s.defaultPlayer = name }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		memo:                 newMemo(),
		window:               features.DefaultWindow,
		playerListMinSeasons: 3,
		defaultPlayer:        "LeBron James",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start checks the wiring and fills in defaults.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		return fmt.Errorf("start service: no snapshot store")
	}
	if s.artifacts == nil {
		s.artifacts = artifact.NewStore("models")
	}
	if s.analyzer == nil {
		s.analyzer = analysis.New()
	}
	if s.trainer == nil {
		s.trainer = training.New()
	}

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("rolling_window", s.window),
		logger.String("artifact_dir", s.artifacts.Dir()))
	return nil
}

// Stop closes the snapshot store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "closing snapshot store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "analytics service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// playerGames loads the cleaned player table once.
func (s *Service) playerGames(ctx context.Context) ([]model.PlayerGame, error) {
	return remember(ctx, s.memo, memoPlayers, memoPlayers+":"+model.SnapshotPlayerGames,
		func(ctx context.Context) ([]model.PlayerGame, error) {
			return s.store.LoadPlayerGames(ctx, model.SnapshotPlayerGames)
		})
}

// teamFeatures loads the team table and computes its rolling features once
// per window size.
func (s *Service) teamFeatures(ctx context.Context) ([]model.TeamFeatureRow, error) {
	key := memoTeamFeatures + ":" + model.SnapshotTeamGames + ":" + strconv.Itoa(s.window)
	return remember(ctx, s.memo, memoTeamFeatures, key, func(ctx context.Context) ([]model.TeamFeatureRow, error) {
		games, err := remember(ctx, s.memo, memoTeams, memoTeams+":"+model.SnapshotTeamGames,
			func(ctx context.Context) ([]model.TeamGame, error) {
				return s.store.LoadTeamGames(ctx, model.SnapshotTeamGames)
			})
		if err != nil {
			return nil, err
		}
		return features.Rolling(games, s.window)
	})
}

func (s *Service) seasons(ctx context.Context) ([]model.SeasonRow, error) {
	return remember(ctx, s.memo, memoSeasons, memoSeasons+":"+model.SnapshotPlayerGames,
		func(ctx context.Context) ([]model.SeasonRow, error) {
			games, err := s.playerGames(ctx)
			if err != nil {
				return nil, err
			}
			return features.Seasons(games), nil
		})
}

func (s *Service) forecaster(ctx context.Context) (*analysis.Forecaster, error) {
	return remember(ctx, s.memo, memoForecaster, memoForecaster+":"+model.SnapshotPlayerGames,
		func(ctx context.Context) (*analysis.Forecaster, error) {
			rows, err := s.seasons(ctx)
			if err != nil {
				return nil, err
			}
			return s.analyzer.FitForecaster(ctx, rows)
		})
}

// predictor loads the trained models and binds them to the latest features.
func (s *Service) predictor(ctx context.Context) (*scoring.MatchupScorer, error) {
	key := memoPredictor + ":" + s.artifacts.Dir() + ":" + strconv.Itoa(s.window)
	return remember(ctx, s.memo, memoPredictor, key, func(ctx context.Context) (*scoring.MatchupScorer, error) {
		b, err := s.artifacts.Load(ctx)
		if err != nil {
			return nil, err
		}
		rows, err := s.teamFeatures(ctx)
		if err != nil {
			return nil, err
		}
		return scoring.NewMatchupScorer(b.Classifier, b.Scaler, rows), nil
	})
}

// Players lists players with enough seasons for the dashboard picker.
func (s *Service) Players(ctx context.Context) (types.PlayerList, error) {
	if err := s.ready(); err != nil {
		return types.PlayerList{}, err
	}
	games, err := s.playerGames(ctx)
	if err != nil {
		return types.PlayerList{}, classify(err)
	}
	list := types.PlayerList{Players: []string{}}
	for name, n := range features.SeasonCount(games) {
		if n > s.playerListMinSeasons {
			list.Players = append(list.Players, name)
		}
	}
	sort.Strings(list.Players)
	for _, name := range list.Players {
		if name == s.defaultPlayer {
			list.Default = name
		}
	}
	if list.Default == "" && len(list.Players) > 0 {
		list.Default = list.Players[0]
	}
	return list, nil
}

// CareerCurve fits the player's scoring trend.
func (s *Service) CareerCurve(ctx context.Context, player string) (*types.CareerCurve, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	games, err := s.playerGames(ctx)
	if err != nil {
		return nil, classify(err)
	}
	c, err := s.analyzer.CareerCurve(ctx, games, player)
	return c, classify(err)
}

// Anomalies lists the player's anomalous games.
func (s *Service) Anomalies(ctx context.Context, player string) (*types.AnomalyReport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	games, err := s.playerGames(ctx)
	if err != nil {
		return nil, classify(err)
	}
	r, err := s.analyzer.Anomalies(ctx, games, player)
	return r, classify(err)
}

// Forecast predicts the player's next-season scoring.
func (s *Service) Forecast(ctx context.Context, player string) (*types.Forecast, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	f, err := s.forecaster(ctx)
	if err != nil {
		return nil, classify(err)
	}
	fc, err := f.Forecast(ctx, player)
	return fc, classify(err)
}

// Teams lists teams with at least one complete feature row.
func (s *Service) Teams(ctx context.Context) (types.TeamList, error) {
	if err := s.ready(); err != nil {
		return types.TeamList{}, err
	}
	rows, err := s.teamFeatures(ctx)
	if err != nil {
		return types.TeamList{}, classify(err)
	}
	return types.TeamList{Teams: features.Teams(rows)}, nil
}

// PredictMatchup predicts the winner of home against away.
func (s *Service) PredictMatchup(ctx context.Context, home, away string) (*types.MatchupPrediction, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := s.predictor(ctx)
	if err != nil {
		return nil, classify(err)
	}
	pred, err := p.Score(ctx, scoring.Input{Home: home, Away: away})
	return pred, classify(err)
}

// ModelReport returns the report of the last training run.
func (s *Service) ModelReport(ctx context.Context) (*artifact.Report, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	r, err := s.artifacts.LoadReport(ctx)
	return r, classify(err)
}

// Snapshots lists the stored snapshots.
func (s *Service) Snapshots(ctx context.Context) ([]repository.SnapshotInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.Snapshots(ctx)
}

// Train fits the win predictor on the stored team table, persists it and
// makes the next prediction use it.
func (s *Service) Train(ctx context.Context) (*artifact.Report, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.teamFeatures(ctx)
	if err != nil {
		return nil, classify(err)
	}
	matchups := features.Matchups(rows)
	s.logger.Info(ctx, "matchup table built",
		logger.Int("feature_rows", len(rows)),
		logger.Int("matchups", len(matchups)))

	b, err := s.trainer.Train(ctx, matchups)
	if err != nil {
		return nil, err
	}
	if err := s.artifacts.Save(ctx, b); err != nil {
		return nil, err
	}
	s.memo.forget(memoPredictor)
	return &b.Report, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, hits, misses := s.memo.stats()
	stats := map[string]interface{}{
		"started":        s.started,
		"rollingWindow":  s.window,
		"memoEntries":    entries,
		"memoHits":       hits,
		"memoMisses":     misses,
		"statsCollected": time.Now().UTC().Format(time.RFC3339),
	}
	if s.started {
		stats["artifactDir"] = s.artifacts.Dir()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if infos, err := s.store.Snapshots(ctx); err == nil {
			rows := map[string]int{}
			for _, info := range infos {
				rows[info.Name] = info.Rows
			}
			stats["snapshots"] = rows
		}
	}
	return stats
}
