package analysis

import "errors"

var (
	// ErrNotFound is returned when the player has no rows.
	ErrNotFound = errors.New("player not found")
	// ErrInsufficientData is returned when a player lacks enough history.
	ErrInsufficientData = errors.New("insufficient data")
)
