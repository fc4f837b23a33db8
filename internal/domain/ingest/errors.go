package ingest

import "errors"

// Sentinel errors for the cleaning stages.
var (
	ErrFileNotFound = errors.New("input file not found")
	ErrReadCSV      = errors.New("read csv failed")
	ErrNoShards     = errors.New("no input shards configured")
	ErrSaveSnapshot = errors.New("save snapshot failed")
)
