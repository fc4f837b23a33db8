package training

import "github.com/okian/nbai/pkg/logger"

// Option configures a Trainer.
type Option func(*Trainer)

// WithHoldout sets the chronological test fraction.
func WithHoldout(f float64) Option {
	return func(t *Trainer) { t.holdout = f }
}

// WithFolds sets the number of cross-validation folds.
func WithFolds(k int) Option {
	return func(t *Trainer) { t.folds = k }
}

// WithSeed sets the seed of every forest.
func WithSeed(seed int64) Option {
	return func(t *Trainer) { t.seed = seed }
}

// WithWorkers bounds the evaluation pool and the final refit.
func WithWorkers(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithGrid replaces the default search space.
func WithGrid(g Grid) Option {
	return func(t *Trainer) { t.grid = g }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) { t.log = l }
}
