package analysis

import "github.com/okian/nbai/pkg/logger"

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMinCareerSeasons sets how many qualifying seasons a curve needs.
func WithMinCareerSeasons(n int) Option {
	return func(a *Analyzer) { a.minSeasons = n }
}

// WithMinSeasonPoints sets the per-season scoring floor; seasons must exceed it.
func WithMinSeasonPoints(p float64) Option {
	return func(a *Analyzer) { a.minPoints = p }
}

// WithContamination sets the expected outlier share.
func WithContamination(c float64) Option {
	return func(a *Analyzer) { a.contamination = c }
}

// WithIsolationTrees sets the isolation forest size.
func WithIsolationTrees(n int) Option {
	return func(a *Analyzer) { a.isolationTrees = n }
}

// WithForecastTrees sets the forecast regressor size.
func WithForecastTrees(n int) Option {
	return func(a *Analyzer) { a.forecastTrees = n }
}

// WithSeed seeds every estimator.
func WithSeed(seed int64) Option {
	return func(a *Analyzer) { a.seed = seed }
}

// WithWorkers bounds tree-fitting parallelism.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}
