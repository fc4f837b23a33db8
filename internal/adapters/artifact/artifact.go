// Package artifact persists the trained win predictor: the classifier, the
// scaler fit on its training partition and the training report.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/ml"
)

// File names inside the artifact directory.
const (
	ClassifierFile = "win_classifier.json"
	ScalerFile     = "win_scaler.json"
	ReportFile     = "win_report.json"
)

// Report describes one training run.
type Report struct {
	RunID        string                  `json:"run_id"`
	Params       ml.ForestParams         `json:"params"`
	CVAccuracy   float64                 `json:"cv_accuracy"`
	TestAccuracy float64                 `json:"test_accuracy"`
	Report       ml.ClassificationReport `json:"classification_report"`
	FeatureNames []string                `json:"feature_names"`
	TrainRows    int                     `json:"train_rows"`
	TestRows     int                     `json:"test_rows"`
	Candidates   int                     `json:"candidates"`
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at"`
}

// Bundle is everything needed to score a matchup.
type Bundle struct {
	Classifier *ml.RandomForestClassifier
	Scaler     *ml.StandardScaler
	Report     Report
}

// Store reads and writes bundles under one directory.
type Store struct {
	dir string
	log logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore returns a store rooted at dir. The directory is created on Save.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("artifact")
	}
	return s
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the bundle. Each file is written to a temp file first and
// renamed so a reader never sees a partial file.
func (s *Store) Save(ctx context.Context, b *Bundle) error {
	if b == nil || b.Classifier == nil || b.Scaler == nil {
		return fmt.Errorf("save artifacts: incomplete bundle")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}
	files := []struct {
		name string
		v    any
	}{
		{ClassifierFile, b.Classifier},
		{ScalerFile, b.Scaler},
		{ReportFile, b.Report},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(s.dir, f.name), f.v); err != nil {
			return fmt.Errorf("save artifacts: %s: %w", f.name, err)
		}
	}
	s.log.Info(ctx, "artifacts saved",
		logger.String("dir", s.dir),
		logger.String("run_id", b.Report.RunID),
		logger.Float64("test_accuracy", b.Report.TestAccuracy))
	return nil
}

// Load reads the classifier, scaler and report.
func (s *Store) Load(ctx context.Context) (*Bundle, error) {
	b := &Bundle{Classifier: &ml.RandomForestClassifier{}, Scaler: &ml.StandardScaler{}}
	if err := s.read(ClassifierFile, b.Classifier); err != nil {
		return nil, err
	}
	if err := s.read(ScalerFile, b.Scaler); err != nil {
		return nil, err
	}
	if err := s.read(ReportFile, &b.Report); err != nil {
		return nil, err
	}
	if len(b.Classifier.Trees) == 0 || len(b.Scaler.Mean) != b.Classifier.NumFeatures {
		return nil, fmt.Errorf("%w: classifier and scaler disagree", ErrArtifactCorrupt)
	}
	s.log.Debug(ctx, "artifacts loaded", logger.String("run_id", b.Report.RunID))
	return b, nil
}

// LoadReport reads only the training report.
func (s *Store) LoadReport(_ context.Context) (*Report, error) {
	var r Report
	if err := s.read(ReportFile, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) read(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
