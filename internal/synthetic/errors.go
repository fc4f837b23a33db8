package synthetic

import "errors"

// Sentinel errors.
var (
	ErrInvalidConfig = errors.New("invalid league config")
	ErrCheckFailed   = errors.New("smoke check failed")
)
