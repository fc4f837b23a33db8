package artifact

import "errors"

var (
	// ErrArtifactMissing is returned when a model file has not been written yet.
	ErrArtifactMissing = errors.New("model artifact missing")
	// ErrArtifactCorrupt is returned when a model file cannot be decoded.
	ErrArtifactCorrupt = errors.New("model artifact corrupt")
)
