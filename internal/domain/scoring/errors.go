package scoring

import "errors"

var (
	// ErrBadRequest is returned for an invalid team pairing.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound is returned when a team has no feature history.
	ErrNotFound = errors.New("team not found")
)
