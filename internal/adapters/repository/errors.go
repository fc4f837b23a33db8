package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrKindMismatch     = errors.New("snapshot kind mismatch")
	ErrOpenStore        = errors.New("open snapshot store failed")
)
