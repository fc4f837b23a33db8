package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ForestParams configures a random forest.
type ForestParams struct {
	NEstimators int `json:"n_estimators"`
	TreeParams
	Seed int64 `json:"seed"`
	// Workers bounds the number of trees grown concurrently. 0 uses every CPU.
	Workers int `json:"-"`
}

func (p ForestParams) validate() error {
	if p.NEstimators < 1 {
		return fmt.Errorf("%w: n_estimators must be >= 1", ErrInvalidParams)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must be >= 0", ErrInvalidParams)
	}
	return nil
}

func (p ForestParams) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

// fitForest grows NEstimators trees on bootstrap samples. Per-tree seeds are
// drawn up front from the master seed so the result does not depend on
// goroutine scheduling.
func fitForest(ctx context.Context, p ForestParams, rows int, grow func(idx []int, rng *rand.Rand) Tree) ([]Tree, error) {
	master := rand.New(rand.NewSource(p.Seed))
	seeds := make([]int64, p.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]Tree, p.NEstimators)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			idx := make([]int, rows)
			for j := range idx {
				idx[j] = rng.Intn(rows)
			}
			trees[i] = grow(idx, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

// RandomForestClassifier is a bagged ensemble of gini trees. Probabilities
// are the mean of the leaf class fractions across trees.
type RandomForestClassifier struct {
	Params      ForestParams `json:"params"`
	NumClasses  int          `json:"num_classes"`
	NumFeatures int          `json:"num_features"`
	Trees       []Tree       `json:"trees"`
}

// NewRandomForestClassifier returns an unfitted classifier.
func NewRandomForestClassifier(params ForestParams) *RandomForestClassifier {
	return &RandomForestClassifier{Params: params}
}

// Fit trains the forest on X with integer labels 0..k-1.
// MaxFeatures defaults to floor(sqrt(features)).
func (f *RandomForestClassifier) Fit(ctx context.Context, X mat.Matrix, y []int) error {
	if err := f.Params.validate(); err != nil {
		return err
	}
	rows, cols, err := checkXY(X, len(y))
	if err != nil {
		return err
	}
	k := 0
	for i, label := range y {
		if label < 0 {
			return fmt.Errorf("%w: %d at row %d", ErrInvalidLabel, label, i)
		}
		k = max(k, label+1)
	}
	k = max(k, 2)

	tp := f.Params.TreeParams.normalized(cols, max(1, int(math.Sqrt(float64(cols)))))
	data := rowMajor(X)
	trees, err := fitForest(ctx, f.Params, rows, func(idx []int, rng *rand.Rand) Tree {
		return growTree(data, cols, idx, tp, rng, newGiniCriterion(y, k))
	})
	if err != nil {
		return err
	}

	f.NumClasses = k
	f.NumFeatures = cols
	f.Trees = trees
	return nil
}

// PredictProbaRow returns the class probabilities for one sample.
func (f *RandomForestClassifier) PredictProbaRow(row []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(row) != f.NumFeatures {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(row), f.NumFeatures)
	}
	p := make([]float64, f.NumClasses)
	for i := range f.Trees {
		floats.Add(p, f.Trees[i].leaf(row))
	}
	floats.Scale(1/float64(len(f.Trees)), p)
	return p, nil
}

// PredictProba returns one probability row per sample.
func (f *RandomForestClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, ErrEmptyInput
	}
	out := mat.NewDense(rows, f.NumClasses, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		p, err := f.PredictProbaRow(row)
		if err != nil {
			return nil, err
		}
		out.SetRow(i, p)
	}
	return out, nil
}

// Predict returns the most probable class per sample. Ties resolve to the
// lowest class label.
func (f *RandomForestClassifier) Predict(X mat.Matrix) ([]int, error) {
	rows, cols := X.Dims()
	out := make([]int, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		p, err := f.PredictProbaRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = floats.MaxIdx(p)
	}
	return out, nil
}

// RandomForestRegressor is a bagged ensemble of squared-error trees.
// Predictions are the mean of the tree predictions.
type RandomForestRegressor struct {
	Params      ForestParams `json:"params"`
	NumFeatures int          `json:"num_features"`
	Trees       []Tree       `json:"trees"`
}

// NewRandomForestRegressor returns an unfitted regressor.
func NewRandomForestRegressor(params ForestParams) *RandomForestRegressor {
	return &RandomForestRegressor{Params: params}
}

// Fit trains the forest. MaxFeatures defaults to every feature.
func (f *RandomForestRegressor) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := f.Params.validate(); err != nil {
		return err
	}
	rows, cols, err := checkXY(X, len(y))
	if err != nil {
		return err
	}

	tp := f.Params.TreeParams.normalized(cols, cols)
	data := rowMajor(X)
	trees, err := fitForest(ctx, f.Params, rows, func(idx []int, rng *rand.Rand) Tree {
		return growTree(data, cols, idx, tp, rng, newMSECriterion(y))
	})
	if err != nil {
		return err
	}

	f.NumFeatures = cols
	f.Trees = trees
	return nil
}

// PredictRow returns the prediction for one sample.
func (f *RandomForestRegressor) PredictRow(row []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(row) != f.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(row), f.NumFeatures)
	}
	var s float64
	for i := range f.Trees {
		s += f.Trees[i].leaf(row)[0]
	}
	return s / float64(len(f.Trees)), nil
}

// Predict returns one prediction per sample.
func (f *RandomForestRegressor) Predict(X mat.Matrix) ([]float64, error) {
	rows, cols := X.Dims()
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		v, err := f.PredictRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
