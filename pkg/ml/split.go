package ml

import (
	"fmt"
	"math"
)

// TrainTestSplit returns the partition sizes of a chronological split: the
// last ceil(n*testFraction) rows are held out.
func TrainTestSplit(n int, testFraction float64) (nTrain, nTest int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return 0, 0, fmt.Errorf("%w: test fraction %v not in (0, 1)", ErrInvalidParams, testFraction)
	}
	nTest = int(math.Ceil(float64(n) * testFraction))
	nTrain = n - nTest
	if nTrain < 1 || nTest < 1 {
		return 0, 0, fmt.Errorf("%w: %d rows cannot be split at %v", ErrEmptyInput, n, testFraction)
	}
	return nTrain, nTest, nil
}

// Fold holds the sample indexes of one cross-validation round.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold splits samples into k folds that preserve the class
// proportions, without shuffling. Samples of each class are dealt to folds
// in input order; classes are ranked by first appearance.
func StratifiedKFold(y []int, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: k must be >= 2", ErrInvalidParams)
	}
	if len(y) < k {
		return nil, fmt.Errorf("%w: %d samples for %d folds", ErrEmptyInput, len(y), k)
	}

	// encode classes by first appearance
	code := map[int]int{}
	enc := make([]int, len(y))
	for i, label := range y {
		c, ok := code[label]
		if !ok {
			c = len(code)
			code[label] = c
		}
		enc[i] = c
	}
	nClasses := len(code)
	counts := make([]int, nClasses)
	for _, c := range enc {
		counts[c]++
	}

	// Fold i receives every k-th element of the sorted encoded labels,
	// starting at i; alloc[i][c] counts how many of class c it gets.
	alloc := make([][]int, k)
	for i := range alloc {
		alloc[i] = make([]int, nClasses)
	}
	pos := 0
	for c := 0; c < nClasses; c++ {
		for n := 0; n < counts[c]; n++ {
			alloc[pos%k][c]++
			pos++
		}
	}

	testFold := make([]int, len(y))
	next := make([]int, nClasses) // current fold per class
	used := make([]int, nClasses) // samples placed in that fold
	for i, c := range enc {
		for used[c] >= alloc[next[c]][c] {
			next[c]++
			used[c] = 0
		}
		testFold[i] = next[c]
		used[c]++
	}

	folds := make([]Fold, k)
	for i, f := range testFold {
		folds[f].Test = append(folds[f].Test, i)
		for j := range folds {
			if j != f {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}
	return folds, nil
}
