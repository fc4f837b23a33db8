package training

import (
	"fmt"

	"github.com/okian/nbai/pkg/ml"
)

// Grid is the hyperparameter search space. A MaxDepth of 0 means unlimited.
type Grid struct {
	NEstimators     []int
	MaxDepth        []int
	MinSamplesLeaf  []int
	MinSamplesSplit []int
}

// DefaultGrid returns the standard search space.
func DefaultGrid() Grid {
	return Grid{
		NEstimators:     []int{100, 200},
		MaxDepth:        []int{10, 20, 0},
		MinSamplesLeaf:  []int{1, 2, 4},
		MinSamplesSplit: []int{2, 5},
	}
}

// Candidates expands the grid. Parameter names are taken in alphabetical
// order (max_depth, min_samples_leaf, min_samples_split, n_estimators) and the
// last one varies fastest, so candidate indexes are stable across runs.
func (g Grid) Candidates(seed int64) ([]ml.ForestParams, error) {
	if len(g.NEstimators) == 0 || len(g.MaxDepth) == 0 || len(g.MinSamplesLeaf) == 0 || len(g.MinSamplesSplit) == 0 {
		return nil, ErrEmptyGrid
	}
	out := make([]ml.ForestParams, 0, len(g.NEstimators)*len(g.MaxDepth)*len(g.MinSamplesLeaf)*len(g.MinSamplesSplit))
	for _, depth := range g.MaxDepth {
		for _, leaf := range g.MinSamplesLeaf {
			for _, split := range g.MinSamplesSplit {
				for _, n := range g.NEstimators {
					p := ml.ForestParams{
						NEstimators: n,
						TreeParams: ml.TreeParams{
							MaxDepth:        depth,
							MinSamplesLeaf:  leaf,
							MinSamplesSplit: split,
						},
						Seed: seed,
					}
					out = append(out, p)
				}
			}
		}
	}
	return out, nil
}

// Describe renders params the way the training report prints them.
func Describe(p ml.ForestParams) string {
	depth := "None"
	if p.MaxDepth > 0 {
		depth = fmt.Sprint(p.MaxDepth)
	}
	return fmt.Sprintf("{max_depth: %s, min_samples_leaf: %d, min_samples_split: %d, n_estimators: %d}",
		depth, p.MinSamplesLeaf, p.MinSamplesSplit, p.NEstimators)
}
