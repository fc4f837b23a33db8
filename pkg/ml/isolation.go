package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultIsolationTrees = 100
	defaultMaxSamples     = 256
	eulerGamma            = 0.5772156649
)

// IsolationForest scores samples by how quickly random axis-aligned splits
// isolate them. Lower scores are more anomalous.
type IsolationForest struct {
	NEstimators int
	// MaxSamples is the subsample drawn per tree. 0 means min(256, n).
	MaxSamples int
	// Contamination is the expected share of outliers; it sets the offset.
	Contamination float64
	Seed          int64
	Workers       int

	sampleSize int
	offset     float64
	trees      []Tree
}

// NewIsolationForest returns an unfitted detector with 100 trees.
func NewIsolationForest(contamination float64, seed int64) *IsolationForest {
	return &IsolationForest{
		NEstimators:   defaultIsolationTrees,
		Contamination: contamination,
		Seed:          seed,
	}
}

// Offset returns the decision threshold learnt by Fit.
func (f *IsolationForest) Offset() float64 { return f.offset }

// Fit grows the isolation trees and sets the offset to the contamination
// percentile of the training scores.
func (f *IsolationForest) Fit(ctx context.Context, X mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return ErrEmptyInput
	}
	if f.NEstimators < 1 {
		return fmt.Errorf("%w: n_estimators must be >= 1", ErrInvalidParams)
	}
	if f.Contamination <= 0 || f.Contamination > 0.5 {
		return fmt.Errorf("%w: contamination must be in (0, 0.5]", ErrInvalidParams)
	}

	f.sampleSize = f.MaxSamples
	if f.sampleSize <= 0 {
		f.sampleSize = defaultMaxSamples
	}
	f.sampleSize = min(f.sampleSize, rows)
	limit := int(math.Ceil(math.Log2(float64(max(f.sampleSize, 2)))))

	master := rand.New(rand.NewSource(f.Seed))
	seeds := make([]int64, f.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	data := rowMajor(X)
	trees := make([]Tree, f.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ForestParams{Workers: f.Workers}.workers())
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			idx := rng.Perm(rows)[:f.sampleSize]
			b := &isolationBuilder{x: data, cols: cols, limit: limit, rng: rng}
			b.grow(idx, 0)
			trees[i] = Tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	f.trees = trees

	scores, err := f.ScoreSamples(X)
	if err != nil {
		return err
	}
	f.offset = Percentile(scores, 100*f.Contamination)
	return nil
}

// ScoreSamples returns -2^(-E[h(x)]/c(psi)) per sample, in (-1, 0).
func (f *IsolationForest) ScoreSamples(X mat.Matrix) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	rows, cols := X.Dims()
	norm := averagePathLength(f.sampleSize)
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		var depth float64
		for t := range f.trees {
			depth += pathLength(&f.trees[t], row)
		}
		depth /= float64(len(f.trees))
		if norm == 0 {
			out[i] = -1
			continue
		}
		out[i] = -math.Pow(2, -depth/norm)
	}
	return out, nil
}

// DecisionFunction returns score minus offset. Negative values are outliers.
func (f *IsolationForest) DecisionFunction(X mat.Matrix) ([]float64, error) {
	scores, err := f.ScoreSamples(X)
	if err != nil {
		return nil, err
	}
	for i := range scores {
		scores[i] -= f.offset
	}
	return scores, nil
}

// Predict returns -1 for outliers and 1 for inliers.
func (f *IsolationForest) Predict(X mat.Matrix) ([]int, error) {
	d, err := f.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(d))
	for i, v := range d {
		out[i] = 1
		if v < 0 {
			out[i] = -1
		}
	}
	return out, nil
}

// isolationBuilder grows one isolation tree. Leaves store their sample count.
type isolationBuilder struct {
	x     []float64
	cols  int
	limit int
	rng   *rand.Rand
	nodes []Node
}

func (b *isolationBuilder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leafFeature, Value: []float64{float64(len(idx))}})
	if depth >= b.limit || len(idx) <= 1 {
		return id
	}

	for _, f := range b.rng.Perm(b.cols) {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := b.x[i*b.cols+f]
			lo = min(lo, v)
			hi = max(hi, v)
		}
		if hi <= lo {
			continue
		}
		threshold := lo + b.rng.Float64()*(hi-lo)

		var left, right []int
		for _, i := range idx {
			if b.x[i*b.cols+f] <= threshold {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}
		l := b.grow(left, depth+1)
		r := b.grow(right, depth+1)
		b.nodes[id] = Node{Feature: f, Threshold: threshold, Left: l, Right: r}
		return id
	}
	// every feature is constant on this node
	return id
}

// pathLength is the depth of the leaf reached by row plus the expected
// depth of the unbuilt subtree below it.
func pathLength(t *Tree, row []float64) float64 {
	i, depth := 0, 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leafFeature {
			return float64(depth) + averagePathLength(int(n.Value[0]))
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
		depth++
	}
}

// averagePathLength is c(n), the mean depth of an unsuccessful search in a
// binary search tree of n nodes.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	m := float64(n)
	return 2*(math.Log(m-1)+eulerGamma) - 2*(m-1)/m
}

// Percentile returns the p-th percentile of v with linear interpolation
// between the closest ranks.
func Percentile(v []float64, p float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	pos := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if hi >= len(s) {
		return s[len(s)-1]
	}
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}
