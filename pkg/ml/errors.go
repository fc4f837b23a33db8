package ml

import "errors"

// Sentinel errors returned by estimators.
var (
	ErrEmptyInput        = errors.New("empty input")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNotFitted         = errors.New("estimator not fitted")
	ErrInvalidLabel      = errors.New("invalid class label")
	ErrInvalidParams     = errors.New("invalid estimator parameters")
)
