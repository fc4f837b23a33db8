package training

import "errors"

var (
	// ErrNoData is returned when there are too few matchup rows to split.
	ErrNoData = errors.New("not enough matchup rows to train")
	// ErrEmptyGrid is returned when a grid dimension has no values.
	ErrEmptyGrid = errors.New("hyperparameter grid is empty")
	// ErrEvaluation wraps the first failed cross-validation evaluation.
	ErrEvaluation = errors.New("cross-validation evaluation failed")
)
