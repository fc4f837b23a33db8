package features

import "errors"

// ErrInvalidWindow is returned for a rolling window smaller than one game.
var ErrInvalidWindow = errors.New("rolling window must be >= 1")
