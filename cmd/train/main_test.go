package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	app "github.com/okian/nbai/internal/app"
	"github.com/okian/nbai/internal/config"
	"github.com/okian/nbai/internal/synthetic"
	"github.com/okian/nbai/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	_ = logger.Init()

	convey.Convey("Given a prepared team snapshot and a small grid", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		t.Setenv("NBAI_DATA_DIR", dir)
		t.Setenv("NBAI_SNAPSHOT_PATH", filepath.Join(dir, "nbai.db"))
		t.Setenv("NBAI_EXPORT_CSV_PATH", "")
		t.Setenv("NBAI_ARTIFACT_DIR", filepath.Join(dir, "models"))
		t.Setenv("NBAI_ROLLING_WINDOW", "3")
		t.Setenv("NBAI_GRID_N_ESTIMATORS", "5")
		t.Setenv("NBAI_GRID_MAX_DEPTH", "3")
		t.Setenv("NBAI_GRID_MIN_SAMPLES_LEAF", "1")
		t.Setenv("NBAI_GRID_MIN_SAMPLES_SPLIT", "2,4")

		gen := synthetic.DefaultConfig()
		gen.Seasons, gen.Teams, gen.GamesPerSeason = 2, 6, 16
		league, err := synthetic.Generate(ctx, gen)
		convey.So(err, convey.ShouldBeNil)
		convey.So(synthetic.Write(ctx, dir, league, synthetic.Layout{
			TeamRegular: []string{"regular_season_totals_2010_2024.csv"},
			TeamPlayoff: []string{"play_off_totals_2010_2024.csv"},
		}), convey.ShouldBeNil)

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		store, err := app.OpenStore(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		_, err = app.NewPipeline(cfg, store, false).PrepareTeams(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(store.Close(), convey.ShouldBeNil)

		convey.Convey("When training runs", func() {
			rep, err := run(ctx)

			convey.Convey("Then the report covers the grid and artifacts are written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rep.Candidates, convey.ShouldEqual, 2)
				convey.So(rep.TestRows, convey.ShouldBeGreaterThan, 0)
				entries, err := os.ReadDir(filepath.Join(dir, "models"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 3)
			})

			convey.Convey("Then the printed report carries the per-class table and the JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				var out, summary bytes.Buffer
				convey.So(writeReport(&out, &summary, rep), convey.ShouldBeNil)
				convey.So(summary.String(), convey.ShouldContainSubstring, "precision")
				convey.So(summary.String(), convey.ShouldContainSubstring, "weighted avg")
				convey.So(summary.String(), convey.ShouldContainSubstring, rep.RunID)

				var decoded map[string]any
				convey.So(json.Unmarshal(out.Bytes(), &decoded), convey.ShouldBeNil)
				convey.So(decoded["run_id"], convey.ShouldEqual, rep.RunID)
				convey.So(decoded, convey.ShouldContainKey, "classification_report")
			})
		})
	})
}
