package scoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/nbai/internal/domain/model"
	scoring "github.com/okian/nbai/internal/domain/scoring"
	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/ml"
	. "github.com/smartystreets/goconvey/convey"
)

func row(team string, pts float64, day int) model.TeamFeatureRow {
	r := model.TeamFeatureRow{
		Game:     model.TeamGame{TeamName: team, GameDate: time.Date(2020, 1, day, 0, 0, 0, 0, time.UTC), DateValid: true},
		RestDays: 2,
	}
	r.Averages[model.StatPTS] = pts
	return r
}

// fitted returns a scaler and classifier that learnt "home wins when the
// points diff is positive".
func fitted(t *testing.T) (*ml.StandardScaler, *ml.RandomForestClassifier) {
	t.Helper()
	var X [][]float64
	var y []int
	for i := -20; i <= 20; i++ {
		if i == 0 {
			continue
		}
		v := make([]float64, model.NumMatchupFeatures)
		v[model.StatPTS] = float64(i)
		v[model.NumTeamStats] = float64(i % 2)
		X = append(X, v)
		if i > 0 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	m, err := ml.NewMatrix(X)
	if err != nil {
		t.Fatal(err)
	}
	scaler := &ml.StandardScaler{}
	xs, err := scaler.FitTransform(m)
	if err != nil {
		t.Fatal(err)
	}
	clf := ml.NewRandomForestClassifier(ml.ForestParams{NEstimators: 25, Seed: 42, TreeParams: ml.TreeParams{MaxFeatures: model.NumMatchupFeatures}})
	if err := clf.Fit(context.Background(), xs, y); err != nil {
		t.Fatal(err)
	}
	return scaler, clf
}

func TestMatchupScorer(t *testing.T) {
	_ = logger.Init()

	Convey("Given a scorer over three teams", t, func() {
		scaler, clf := fitted(t)
		rows := []model.TeamFeatureRow{
			row("Heat", 90, 1), row("Celtics", 100, 1),
			row("Heat", 115, 3), row("Knicks", 105, 3),
		}
		s := scoring.NewMatchupScorer(clf, scaler, rows)
		ctx := context.Background()

		Convey("When the stronger team plays at home", func() {
			p, err := s.Score(ctx, scoring.Input{Home: "Heat", Away: "Celtics"})

			Convey("Then probabilities sum to one and the winner has the larger one", func() {
				So(err, ShouldBeNil)
				So(p.HomeWinProbability+p.AwayWinProbability, ShouldAlmostEqual, 1, 1e-9)
				So(p.Winner, ShouldEqual, "Heat")
				So(p.Confidence, ShouldEqual, p.HomeWinProbability)
				So(p.HomeWinProbability, ShouldBeGreaterThan, p.AwayWinProbability)
			})

			Convey("Then the comparison uses each team's latest row", func() {
				So(p.Comparison, ShouldHaveLength, model.NumMatchupFeatures)
				So(p.Comparison[model.StatPTS].Feature, ShouldEqual, "PTS_avg")
				So(p.Comparison[model.StatPTS].Home, ShouldEqual, 115)
				So(p.Comparison[model.StatPTS].Diff, ShouldEqual, 15)
			})
		})

		Convey("When the weaker team plays at home", func() {
			p, err := s.Score(ctx, scoring.Input{Home: "Knicks", Away: "Heat"})

			Convey("Then the away side wins", func() {
				So(err, ShouldBeNil)
				So(p.Winner, ShouldEqual, "Heat")
				So(p.Confidence, ShouldEqual, p.AwayWinProbability)
				So(p.Confidence, ShouldBeGreaterThanOrEqualTo, 0.5)
			})
		})

		Convey("When both sides are the same team", func() {
			_, err := s.Score(ctx, scoring.Input{Home: "Heat", Away: "Heat"})
			So(errors.Is(err, scoring.ErrBadRequest), ShouldBeTrue)
		})

		Convey("When a team is unknown", func() {
			_, err := s.Score(ctx, scoring.Input{Home: "Heat", Away: "Sonics"})
			So(errors.Is(err, scoring.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then the known teams are listed", func() {
			So(s.Teams(), ShouldResemble, []string{"Celtics", "Heat", "Knicks"})
		})
	})
}
