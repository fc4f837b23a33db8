// Package training fits the win predictor: chronological split, scaler fit
// on the training rows, grid search with stratified cross-validation and a
// final refit of the best candidate.
package training

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/okian/nbai/internal/adapters/artifact"
	"github.com/okian/nbai/internal/adapters/mq/queue"
	"github.com/okian/nbai/internal/adapters/mq/worker"
	"github.com/okian/nbai/internal/domain/features"
	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/metrics"
	"github.com/okian/nbai/pkg/ml"
)

const modelName = "win_predictor"

// Trainer runs the grid search.
type Trainer struct {
	holdout float64
	folds   int
	seed    int64
	workers int
	grid    Grid
	log     logger.Logger
}

// New returns a Trainer with the standard settings.
func New(opts ...Option) *Trainer {
	t := &Trainer{
		holdout: 0.3,
		folds:   3,
		seed:    42,
		workers: runtime.NumCPU(),
		grid:    DefaultGrid(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.Get().Named("training")
	}
	return t
}

// Train fits the classifier and scaler on chronologically ordered matchup
// rows and reports held-out metrics.
func (t *Trainer) Train(ctx context.Context, rows []model.MatchupRow) (bundle *artifact.Bundle, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordTrainingRun(modelName, outcome, time.Since(start))
	}()

	X, y := features.Dataset(rows)
	nTrain, nTest, err := ml.TrainTestSplit(len(X), t.holdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	rawTrain, err := ml.NewMatrix(X[:nTrain])
	if err != nil {
		return nil, fmt.Errorf("train matrix: %w", err)
	}
	rawTest, err := ml.NewMatrix(X[nTrain:])
	if err != nil {
		return nil, fmt.Errorf("test matrix: %w", err)
	}
	yTrain, yTest := y[:nTrain], y[nTrain:]

	scaler := &ml.StandardScaler{}
	xTrain, err := scaler.FitTransform(rawTrain)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	xTest, err := scaler.Transform(rawTest)
	if err != nil {
		return nil, fmt.Errorf("scale test rows: %w", err)
	}

	candidates, err := t.grid.Candidates(t.seed)
	if err != nil {
		return nil, err
	}
	folds, err := ml.StratifiedKFold(yTrain, t.folds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	t.log.Info(ctx, "grid search started",
		logger.Int("train_rows", nTrain),
		logger.Int("test_rows", nTest),
		logger.Int("candidates", len(candidates)),
		logger.Int("folds", len(folds)))

	scores, err := t.search(ctx, candidates, folds, xTrain, yTrain)
	if err != nil {
		return nil, err
	}
	best, bestScore := 0, scores[0]
	for i, s := range scores {
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	params := candidates[best]
	t.log.Info(ctx, "best candidate",
		logger.String("params", Describe(params)),
		logger.Float64("cv_accuracy", bestScore))

	fitParams := params
	fitParams.Workers = t.workers
	clf := ml.NewRandomForestClassifier(fitParams)
	if err := clf.Fit(ctx, xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("refit best candidate: %w", err)
	}
	pred, err := clf.Predict(xTest)
	if err != nil {
		return nil, fmt.Errorf("predict test rows: %w", err)
	}
	report, err := ml.NewClassificationReport(yTest, pred)
	if err != nil {
		return nil, fmt.Errorf("classification report: %w", err)
	}
	clf.Params.Workers = 0

	metrics.UpdateModelAccuracy(modelName, "cv", bestScore)
	metrics.UpdateModelAccuracy(modelName, "test", report.Accuracy)
	t.log.Info(ctx, "training finished",
		logger.Float64("test_accuracy", report.Accuracy),
		logger.Duration("took", time.Since(start)))

	return &artifact.Bundle{
		Classifier: clf,
		Scaler:     scaler,
		Report: artifact.Report{
			RunID:        uuid.NewString(),
			Params:       params,
			CVAccuracy:   bestScore,
			TestAccuracy: report.Accuracy,
			Report:       report,
			FeatureNames: model.MatchupFeatureNames(),
			TrainRows:    nTrain,
			TestRows:     nTest,
			Candidates:   len(candidates),
			StartedAt:    start.UTC(),
			FinishedAt:   time.Now().UTC(),
		},
	}, nil
}

// search evaluates every candidate on every fold through the job queue and
// returns the mean fold accuracy per candidate.
func (t *Trainer) search(parent context.Context, candidates []ml.ForestParams, folds []ml.Fold, X *mat.Dense, y []int) (means []float64, err error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	jobs := len(candidates) * len(folds)
	q := queue.NewInMemoryQueue(queue.WithCapacity(jobs))
	for c := range candidates {
		for f := range folds {
			if err := q.Enqueue(ctx, queue.Job{Candidate: c, Fold: f}); err != nil {
				return nil, errors.Join(fmt.Errorf("enqueue evaluation: %w", err), q.Close())
			}
		}
	}
	if err := q.Close(); err != nil {
		return nil, fmt.Errorf("close evaluation queue: %w", err)
	}
	t.log.Debug(ctx, "evaluations queued",
		logger.Int("jobs", q.Len(ctx)),
		logger.Int("workers", t.workers))

	eval := &foldEvaluator{candidates: candidates, folds: folds, X: X, y: y}
	sink := newScoreSink(len(candidates), len(folds), cancel)
	pool := worker.NewPool(t.workers, q, eval, sink)
	pool.Start(ctx)
	defer func() {
		// workers have returned or been cancelled by now; this only reaps them
		if serr := pool.Shutdown(context.WithoutCancel(parent)); serr != nil {
			t.log.Error(parent, "worker pool shutdown failed", logger.Error(serr))
			if err == nil {
				err = fmt.Errorf("shutdown worker pool: %w", serr)
			}
		}
	}()

	if err := pool.Wait(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return sink.means()
}

// foldEvaluator fits one candidate on the training part of one fold and
// scores it on the held-out part.
type foldEvaluator struct {
	candidates []ml.ForestParams
	folds      []ml.Fold
	X          *mat.Dense
	y          []int
}

func (e *foldEvaluator) Evaluate(ctx context.Context, j model.EvalJob) (float64, error) {
	fold := e.folds[j.Fold]
	p := e.candidates[j.Candidate]
	p.Workers = 1

	clf := ml.NewRandomForestClassifier(p)
	if err := clf.Fit(ctx, ml.SelectRows(e.X, fold.Train), ml.Select(e.y, fold.Train)); err != nil {
		return 0, err
	}
	pred, err := clf.Predict(ml.SelectRows(e.X, fold.Test))
	if err != nil {
		return 0, err
	}
	return ml.Accuracy(ml.Select(e.y, fold.Test), pred)
}

// scoreSink collects fold accuracies. The first failure cancels the search.
type scoreSink struct {
	mu     sync.Mutex
	scores [][]float64
	filled [][]bool
	err    error
	cancel context.CancelFunc
}

func newScoreSink(candidates, folds int, cancel context.CancelFunc) *scoreSink {
	s := &scoreSink{scores: make([][]float64, candidates), filled: make([][]bool, candidates), cancel: cancel}
	for i := range s.scores {
		s.scores[i] = make([]float64, folds)
		s.filled[i] = make([]bool, folds)
	}
	return s
}

func (s *scoreSink) Record(_ context.Context, r model.EvalResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Err != nil {
		if s.err == nil && !errors.Is(r.Err, context.Canceled) {
			s.err = fmt.Errorf("%w: candidate %d fold %d: %w", ErrEvaluation, r.Candidate, r.Fold, r.Err)
			s.cancel()
		}
		return
	}
	s.scores[r.Candidate][r.Fold] = r.Accuracy
	s.filled[r.Candidate][r.Fold] = true
}

func (s *scoreSink) means() ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(s.scores))
	for c, row := range s.scores {
		for f, v := range row {
			if !s.filled[c][f] {
				return nil, fmt.Errorf("%w: candidate %d fold %d not evaluated", ErrEvaluation, c, f)
			}
			out[c] += v
		}
		out[c] /= float64(len(row))
	}
	return out, nil
}
