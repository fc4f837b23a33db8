package ml

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func separableData(n int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	y := make([]int, n)
	for i := range rows {
		x0 := rng.Float64()*2 - 1
		x1 := rng.NormFloat64()
		x2 := rng.NormFloat64()
		x3 := rng.NormFloat64()
		rows[i] = []float64{x0, x1, x2, x3}
		if x0 > 0 {
			y[i] = 1
		}
	}
	X, _ := NewMatrix(rows)
	return X, y
}

func TestRandomForestClassifier(t *testing.T) {
	Convey("Given linearly separable data", t, func() {
		X, y := separableData(200, 42)
		ctx := context.Background()

		Convey("When fitting a forest", func() {
			clf := NewRandomForestClassifier(ForestParams{NEstimators: 20, Seed: 42, Workers: 4})
			err := clf.Fit(ctx, X, y)
			So(err, ShouldBeNil)

			Convey("Then it recovers the training labels", func() {
				pred, err := clf.Predict(X)
				So(err, ShouldBeNil)
				acc, err := Accuracy(y, pred)
				So(err, ShouldBeNil)
				So(acc, ShouldBeGreaterThanOrEqualTo, 0.95)
			})

			Convey("Then class probabilities sum to one", func() {
				proba, err := clf.PredictProba(X)
				So(err, ShouldBeNil)
				for i := 0; i < 10; i++ {
					So(floats.Sum(proba.RawRowView(i)), ShouldAlmostEqual, 1.0, 1e-9)
				}
			})

			Convey("Then refitting with the same seed gives the same trees", func() {
				again := NewRandomForestClassifier(ForestParams{NEstimators: 20, Seed: 42, Workers: 1})
				So(again.Fit(ctx, X, y), ShouldBeNil)
				So(again.Trees, ShouldResemble, clf.Trees)
			})
		})

		Convey("When the depth is bounded", func() {
			clf := NewRandomForestClassifier(ForestParams{
				NEstimators: 5,
				TreeParams:  TreeParams{MaxDepth: 2},
				Seed:        7,
			})
			So(clf.Fit(ctx, X, y), ShouldBeNil)

			Convey("Then no tree is deeper than the bound", func() {
				for i := range clf.Trees {
					So(clf.Trees[i].Depth(), ShouldBeLessThanOrEqualTo, 2)
					So(clf.Trees[i].Leaves(), ShouldBeLessThanOrEqualTo, 4)
				}
			})
		})

		Convey("When predicting before fitting", func() {
			_, err := NewRandomForestClassifier(ForestParams{NEstimators: 1}).PredictProbaRow([]float64{1, 2, 3, 4})

			Convey("Then it reports an unfitted estimator", func() {
				So(errors.Is(err, ErrNotFitted), ShouldBeTrue)
			})
		})

		Convey("When a sample has the wrong width", func() {
			clf := NewRandomForestClassifier(ForestParams{NEstimators: 2, Seed: 1})
			So(clf.Fit(ctx, X, y), ShouldBeNil)
			_, err := clf.PredictProbaRow([]float64{1})

			Convey("Then it reports a dimension mismatch", func() {
				So(errors.Is(err, ErrDimensionMismatch), ShouldBeTrue)
			})
		})

		Convey("When labels and rows disagree", func() {
			err := NewRandomForestClassifier(ForestParams{NEstimators: 2}).Fit(ctx, X, y[:10])

			Convey("Then fitting fails", func() {
				So(errors.Is(err, ErrDimensionMismatch), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := NewRandomForestClassifier(ForestParams{NEstimators: 10, Seed: 1}).Fit(cctx, X, y)

			Convey("Then fitting stops with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestRandomForestRegressor(t *testing.T) {
	Convey("Given a noiseless linear target", t, func() {
		rows := make([][]float64, 100)
		y := make([]float64, 100)
		for i := range rows {
			rows[i] = []float64{float64(i), float64(i % 7)}
			y[i] = 3 * float64(i)
		}
		X, err := NewMatrix(rows)
		So(err, ShouldBeNil)

		reg := NewRandomForestRegressor(ForestParams{NEstimators: 30, Seed: 42})
		So(reg.Fit(context.Background(), X, y), ShouldBeNil)

		Convey("Then predictions track the target", func() {
			v, err := reg.PredictRow([]float64{50, 1})
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 150, 10)

			all, err := reg.Predict(X)
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 100)
		})
	})
}

func TestIsolationForest(t *testing.T) {
	Convey("Given a tight cluster with one far point", t, func() {
		rng := rand.New(rand.NewSource(1))
		rows := make([][]float64, 0, 201)
		for i := 0; i < 200; i++ {
			rows = append(rows, []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()})
		}
		rows = append(rows, []float64{50, 50, 50})
		X, err := NewMatrix(rows)
		So(err, ShouldBeNil)

		iso := NewIsolationForest(0.015, 42)
		So(iso.Fit(context.Background(), X), ShouldBeNil)

		Convey("Then the far point is the most anomalous", func() {
			d, err := iso.DecisionFunction(X)
			So(err, ShouldBeNil)
			So(floats.MinIdx(d), ShouldEqual, 200)
			So(d[200], ShouldBeLessThan, 0)

			pred, err := iso.Predict(X)
			So(err, ShouldBeNil)
			So(pred[200], ShouldEqual, -1)

			outliers := 0
			for _, p := range pred {
				if p == -1 {
					outliers++
				}
			}
			So(outliers, ShouldBeBetweenOrEqual, 1, 4)
		})

		Convey("Then scores stay inside (-1, 0)", func() {
			s, err := iso.ScoreSamples(X)
			So(err, ShouldBeNil)
			So(floats.Max(s), ShouldBeLessThan, 0)
			So(floats.Min(s), ShouldBeGreaterThan, -1)
		})
	})

	Convey("Given identical samples", t, func() {
		rows := make([][]float64, 40)
		for i := range rows {
			rows[i] = []float64{20, 5, 6}
		}
		X, _ := NewMatrix(rows)
		iso := NewIsolationForest(0.015, 42)
		So(iso.Fit(context.Background(), X), ShouldBeNil)

		Convey("Then nothing is flagged", func() {
			pred, err := iso.Predict(X)
			So(err, ShouldBeNil)
			for _, p := range pred {
				So(p, ShouldEqual, 1)
			}
		})
	})

	Convey("Given the average path length", t, func() {
		So(averagePathLength(0), ShouldEqual, 0)
		So(averagePathLength(1), ShouldEqual, 0)
		So(averagePathLength(2), ShouldEqual, 1)
		So(averagePathLength(256), ShouldAlmostEqual, 10.2448, 0.001)
	})

	Convey("Given invalid contamination", t, func() {
		X, _ := NewMatrix([][]float64{{1}, {2}})
		err := NewIsolationForest(0.9, 1).Fit(context.Background(), X)
		So(errors.Is(err, ErrInvalidParams), ShouldBeTrue)
	})
}

func TestPercentile(t *testing.T) {
	Convey("Given sorted and unsorted samples", t, func() {
		So(Percentile([]float64{4, 1, 3, 2}, 50), ShouldEqual, 2.5)
		So(Percentile([]float64{4, 1, 3, 2}, 0), ShouldEqual, 1)
		So(Percentile([]float64{4, 1, 3, 2}, 100), ShouldEqual, 4)

		v := make([]float64, 101)
		for i := range v {
			v[i] = float64(i)
		}
		So(Percentile(v, 1.5), ShouldAlmostEqual, 1.5, 1e-12)
		So(math.IsNaN(Percentile(nil, 10)), ShouldBeTrue)
	})
}

func TestStandardScaler(t *testing.T) {
	Convey("Given a matrix with a constant column", t, func() {
		X := mat.NewDense(3, 2, []float64{
			1, 5,
			2, 5,
			3, 5,
		})
		var s StandardScaler
		out, err := s.FitTransform(X)
		So(err, ShouldBeNil)

		Convey("Then the population deviation is used", func() {
			So(s.Mean, ShouldResemble, []float64{2, 5})
			So(s.Scale[0], ShouldAlmostEqual, math.Sqrt(2.0/3.0), 1e-12)
			So(out.At(0, 0), ShouldAlmostEqual, -1.224744871, 1e-6)
		})

		Convey("Then the constant column keeps scale one", func() {
			So(s.Scale[1], ShouldEqual, 1)
			So(out.At(2, 1), ShouldEqual, 0)
		})

		Convey("Then single rows scale the same way", func() {
			row, err := s.TransformRow([]float64{3, 5})
			So(err, ShouldBeNil)
			So(row[0], ShouldAlmostEqual, out.At(2, 0), 1e-12)
		})

		Convey("Then a wrong width is rejected", func() {
			_, err := s.TransformRow([]float64{1})
			So(errors.Is(err, ErrDimensionMismatch), ShouldBeTrue)
		})
	})
}

func TestFitPolynomial(t *testing.T) {
	Convey("Given points on a cubic", t, func() {
		x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
		y := make([]float64, len(x))
		for i, v := range x {
			y[i] = 1 + 2*v - 0.5*v*v + 0.1*v*v*v
		}

		fit, err := FitPolynomial(x, y, 3)
		So(err, ShouldBeNil)

		Convey("Then the coefficients are recovered", func() {
			So(fit.Coefficients, ShouldHaveLength, 4)
			So(fit.Coefficients[0], ShouldAlmostEqual, 1, 1e-6)
			So(fit.Coefficients[1], ShouldAlmostEqual, 2, 1e-6)
			So(fit.Coefficients[2], ShouldAlmostEqual, -0.5, 1e-6)
			So(fit.Coefficients[3], ShouldAlmostEqual, 0.1, 1e-6)
			So(fit.R2, ShouldAlmostEqual, 1, 1e-9)
			So(fit.Fitted[7], ShouldAlmostEqual, y[7], 1e-6)
		})

		Convey("Then the curve can be evaluated", func() {
			v, err := fit.Predict(2)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, y[2], 1e-6)
		})
	})

	Convey("Given too few points", t, func() {
		_, err := FitPolynomial([]float64{0, 1, 2}, []float64{1, 2, 3}, 3)
		So(errors.Is(err, ErrEmptyInput), ShouldBeTrue)
	})
}

func TestSplits(t *testing.T) {
	Convey("Given a chronological split", t, func() {
		tr, te, err := TrainTestSplit(10, 0.3)
		So(err, ShouldBeNil)
		So(tr, ShouldEqual, 7)
		So(te, ShouldEqual, 3)

		tr, te, err = TrainTestSplit(11, 0.3)
		So(err, ShouldBeNil)
		So(tr, ShouldEqual, 7)
		So(te, ShouldEqual, 4)

		_, _, err = TrainTestSplit(1, 0.3)
		So(err, ShouldNotBeNil)
	})

	Convey("Given imbalanced labels", t, func() {
		y := []int{0, 0, 0, 0, 0, 0, 1, 1, 1}
		folds, err := StratifiedKFold(y, 3)
		So(err, ShouldBeNil)

		Convey("Then classes are dealt to folds in input order", func() {
			So(folds, ShouldHaveLength, 3)
			So(folds[0].Test, ShouldResemble, []int{0, 1, 6})
			So(folds[1].Test, ShouldResemble, []int{2, 3, 7})
			So(folds[2].Test, ShouldResemble, []int{4, 5, 8})
			So(folds[0].Train, ShouldResemble, []int{2, 3, 4, 5, 7, 8})
		})
	})

	Convey("Given fewer samples than folds", t, func() {
		_, err := StratifiedKFold([]int{0, 1}, 3)
		So(err, ShouldNotBeNil)
	})
}

func TestClassificationReport(t *testing.T) {
	Convey("Given predictions with one miss", t, func() {
		rep, err := NewClassificationReport([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})
		So(err, ShouldBeNil)

		Convey("Then per-class metrics follow the confusion counts", func() {
			So(rep.Accuracy, ShouldEqual, 0.75)
			So(rep.Classes, ShouldHaveLength, 2)
			So(rep.Classes[0].Precision, ShouldEqual, 1)
			So(rep.Classes[0].Recall, ShouldEqual, 0.5)
			So(rep.Classes[0].F1, ShouldAlmostEqual, 2.0/3.0, 1e-12)
			So(rep.Classes[1].Precision, ShouldAlmostEqual, 2.0/3.0, 1e-12)
			So(rep.Classes[1].F1, ShouldAlmostEqual, 0.8, 1e-12)
		})

		Convey("Then averages are computed", func() {
			So(rep.MacroAvg.Precision, ShouldAlmostEqual, 5.0/6.0, 1e-12)
			So(rep.WeightedAvg.Recall, ShouldAlmostEqual, 0.75, 1e-12)
			So(rep.MacroAvg.Support, ShouldEqual, 4)
			So(rep.String(), ShouldContainSubstring, "weighted avg")
		})
	})

	Convey("Given a class that is never predicted", t, func() {
		rep, err := NewClassificationReport([]int{0, 1}, []int{1, 1})
		So(err, ShouldBeNil)

		Convey("Then zero divisions report 0", func() {
			So(rep.Classes[0].Precision, ShouldEqual, 0)
			So(rep.Classes[0].F1, ShouldEqual, 0)
		})
	})
}
