// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - One flat koanf key per field so every value can be set from the env.
// - New() builds a Config with defaults; Load(ctx) layers file and env on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration for the server and the pipeline CLIs.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds the raw CSV shards.
	DataDir string `koanf:"data_dir"`

	// Player box-score shards, relative to DataDir.
	PlayerRegularShards []string `koanf:"player_regular_shards"`
	PlayerPlayoffShards []string `koanf:"player_playoff_shards"`

	// Team game-log shards, relative to DataDir.
	TeamRegularShards []string `koanf:"team_regular_shards"`
	TeamPlayoffShards []string `koanf:"team_playoff_shards"`

	// SnapshotPath is the SQLite file holding cleaned tables.
	SnapshotPath string `koanf:"snapshot_path"`

	// ExportCSVPath receives the cleaned team table as CSV. Empty disables it.
	ExportCSVPath string `koanf:"export_csv_path"`

	// ArtifactDir holds the trained classifier, scaler and report.
	ArtifactDir string `koanf:"artifact_dir"`

	// RollingWindow is the number of prior games averaged per team stat.
	RollingWindow int `koanf:"rolling_window"`

	// HoldoutFraction is the chronological tail reserved for testing.
	HoldoutFraction float64 `koanf:"holdout_fraction"`

	// CVFolds is the number of stratified folds used by the grid search.
	CVFolds int `koanf:"cv_folds"`

	// RandomSeed seeds every randomized estimator.
	RandomSeed int64 `koanf:"random_seed"`

	// WorkerCount bounds grid-search and tree-fitting parallelism.
	WorkerCount int `koanf:"worker_count"`

	// Grid search space. A max depth of 0 means unlimited.
	GridNEstimators     []int `koanf:"grid_n_estimators"`
	GridMaxDepth        []int `koanf:"grid_max_depth"`
	GridMinSamplesLeaf  []int `koanf:"grid_min_samples_leaf"`
	GridMinSamplesSplit []int `koanf:"grid_min_samples_split"`

	// Contamination is the expected outlier share for anomaly detection.
	Contamination float64 `koanf:"contamination"`

	// IsolationTrees is the isolation forest size.
	IsolationTrees int `koanf:"isolation_trees"`

	// ForecastTrees is the next-season regressor forest size.
	ForecastTrees int `koanf:"forecast_trees"`

	// MinCareerSeasons and MinSeasonPoints gate the career curve fit.
	MinCareerSeasons int     `koanf:"min_career_seasons"`
	MinSeasonPoints  float64 `koanf:"min_season_points"`

	// PlayerListMinSeasons filters the dashboard player picker (strictly more seasons than this).
	PlayerListMinSeasons int `koanf:"player_list_min_seasons"`

	// DefaultPlayer is preselected by the dashboard when present.
	DefaultPlayer string `koanf:"default_player"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":9080",
		DataDir:  "dados",
		PlayerRegularShards: []string{
			"regular_season_box_scores_2010_2024_part_1.csv",
			"regular_season_box_scores_2010_2024_part_2.csv",
			"regular_season_box_scores_2010_2024_part_3.csv",
		},
		PlayerPlayoffShards:  []string{"play_off_box_scores_2010_2024.csv"},
		TeamRegularShards:    []string{"regular_season_totals_2010_2024.csv"},
		TeamPlayoffShards:    []string{"play_off_totals_2010_2024.csv"},
		SnapshotPath:         "nbai.db",
		ExportCSVPath:        "all_games_clean.csv",
		ArtifactDir:          "models",
		RollingWindow:        10,
		HoldoutFraction:      0.3,
		CVFolds:              3,
		RandomSeed:           42,
		WorkerCount:          runtime.NumCPU(),
		GridNEstimators:      []int{100, 200},
		GridMaxDepth:         []int{10, 20, 0},
		GridMinSamplesLeaf:   []int{1, 2, 4},
		GridMinSamplesSplit:  []int{2, 5},
		Contamination:        0.015,
		IsolationTrees:       100,
		ForecastTrees:        200,
		MinCareerSeasons:     5,
		MinSeasonPoints:      5,
		PlayerListMinSeasons: 3,
		DefaultPlayer:        "LeBron James",
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RollingWindow < 1:
		return fmt.Errorf("%w: rolling_window must be >= 1", ErrInvalidConfig)
	case c.HoldoutFraction <= 0 || c.HoldoutFraction >= 1:
		return fmt.Errorf("%w: holdout_fraction must be in (0, 1)", ErrInvalidConfig)
	case c.CVFolds < 2:
		return fmt.Errorf("%w: cv_folds must be >= 2", ErrInvalidConfig)
	case c.Contamination <= 0 || c.Contamination > 0.5:
		return fmt.Errorf("%w: contamination must be in (0, 0.5]", ErrInvalidConfig)
	case len(c.GridNEstimators) == 0 || len(c.GridMaxDepth) == 0 ||
		len(c.GridMinSamplesLeaf) == 0 || len(c.GridMinSamplesSplit) == 0:
		return fmt.Errorf("%w: grid dimensions must not be empty", ErrInvalidConfig)
	case c.IsolationTrees < 1 || c.ForecastTrees < 1:
		return fmt.Errorf("%w: forest sizes must be >= 1", ErrInvalidConfig)
	}
	if c.WorkerCount < 1 {
		c.WorkerCount = 1
	}
	return nil
}
