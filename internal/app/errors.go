package service

import (
	"errors"
	"fmt"

	"github.com/okian/nbai/internal/adapters/artifact"
	"github.com/okian/nbai/internal/adapters/repository"
	"github.com/okian/nbai/internal/domain/analysis"
	"github.com/okian/nbai/internal/domain/scoring"
)

// Error kinds the API maps to status codes.
var (
	ErrNotFound         = errors.New("not found")
	ErrInsufficientData = errors.New("insufficient data")
	ErrBadRequest       = errors.New("bad request")
	ErrUnavailable      = errors.New("unavailable")
	ErrNotStarted       = errors.New("service not started")
)

// classify tags a domain error with the service error kind it belongs to.
// Errors of no known kind are returned unchanged.
func classify(err error) error {
	var kind error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, analysis.ErrNotFound), errors.Is(err, scoring.ErrNotFound):
		kind = ErrNotFound
	case errors.Is(err, analysis.ErrInsufficientData):
		kind = ErrInsufficientData
	case errors.Is(err, scoring.ErrBadRequest):
		kind = ErrBadRequest
	case errors.Is(err, repository.ErrSnapshotNotFound), errors.Is(err, artifact.ErrArtifactMissing):
		kind = ErrUnavailable
	default:
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
