package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/nbai/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should carry the pipeline defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.RollingWindow, convey.ShouldEqual, 10)
			convey.So(cfg.HoldoutFraction, convey.ShouldEqual, 0.3)
			convey.So(cfg.CVFolds, convey.ShouldEqual, 3)
			convey.So(cfg.RandomSeed, convey.ShouldEqual, 42)
			convey.So(cfg.Contamination, convey.ShouldEqual, 0.015)
			convey.So(cfg.GridNEstimators, convey.ShouldResemble, []int{100, 200})
			convey.So(cfg.GridMaxDepth, convey.ShouldResemble, []int{10, 20, 0})
			convey.So(cfg.PlayerRegularShards, convey.ShouldHaveLength, 3)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ForecastTrees, convey.ShouldEqual, 200)
				convey.So(cfg.DefaultPlayer, convey.ShouldEqual, "LeBron James")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("NBAI_ADDR", ":8080")
			_ = os.Setenv("NBAI_ROLLING_WINDOW", "5")
			_ = os.Setenv("NBAI_HOLDOUT_FRACTION", "0.25")
			_ = os.Setenv("NBAI_GRID_N_ESTIMATORS", "10, 20")
			_ = os.Setenv("NBAI_TEAM_REGULAR_SHARDS", "a.csv,b.csv")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RollingWindow, convey.ShouldEqual, 5)
				convey.So(cfg.HoldoutFraction, convey.ShouldEqual, 0.25)
				convey.So(cfg.GridNEstimators, convey.ShouldResemble, []int{10, 20})
				convey.So(cfg.TeamRegularShards, convey.ShouldResemble, []string{"a.csv", "b.csv"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
data_dir: /srv/nba
cv_folds: 5
grid_max_depth: [4, 0]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("NBAI_CONFIG", tmpFile)
			_ = os.Setenv("NBAI_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/nba")
				convey.So(cfg.CVFolds, convey.ShouldEqual, 5)
				convey.So(cfg.GridMaxDepth, convey.ShouldResemble, []int{4, 0})
				convey.So(cfg.RollingWindow, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("NBAI_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("NBAI_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("NBAI_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an out of range holdout", func() {
			_ = os.Setenv("NBAI_HOLDOUT_FRACTION", "1.5")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should reject the value", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("NBAI_CV_FOLDS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"NBAI_CONFIG",
		"NBAI_ADDR",
		"NBAI_ROLLING_WINDOW",
		"NBAI_HOLDOUT_FRACTION",
		"NBAI_GRID_N_ESTIMATORS",
		"NBAI_TEAM_REGULAR_SHARDS",
		"NBAI_CV_FOLDS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "nbai-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
