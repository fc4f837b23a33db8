// Package repository defines the snapshot store interface and its SQLite
// implementation.
package repository

import (
	"context"
	"time"

	"github.com/okian/nbai/internal/domain/model"
)

// Snapshot kinds.
const (
	KindPlayerGames = "player_games"
	KindTeamGames   = "team_games"
)

// SnapshotInfo describes one stored snapshot.
type SnapshotInfo struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// Store provides read/write access to cleaned table snapshots.
// Saving a snapshot replaces any previous snapshot with the same name.
type Store interface {
	// HasSnapshot reports whether a snapshot named name exists.
	HasSnapshot(ctx context.Context, name string) (bool, error)

	SavePlayerGames(ctx context.Context, name string, rows []model.PlayerGame) error
	SaveTeamGames(ctx context.Context, name string, rows []model.TeamGame) error

	// LoadPlayerGames returns rows in insertion order.
	// Returns ErrSnapshotNotFound if the snapshot is unknown.
	LoadPlayerGames(ctx context.Context, name string) ([]model.PlayerGame, error)
	// LoadTeamGames returns rows in insertion order.
	// Returns ErrSnapshotNotFound if the snapshot is unknown.
	LoadTeamGames(ctx context.Context, name string) ([]model.TeamGame, error)

	// Snapshots lists stored snapshots ordered by name.
	Snapshots(ctx context.Context) ([]SnapshotInfo, error)

	Close() error
}
