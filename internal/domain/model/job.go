package model

// EvalJob asks a worker to score one hyperparameter candidate on one
// cross-validation fold.
type EvalJob struct {
	Candidate int
	Fold      int
}

// EvalResult is the outcome of one EvalJob.
type EvalResult struct {
	EvalJob
	Accuracy float64
	Err      error
}
