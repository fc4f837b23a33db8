// Package ingest implements the cleaning stages that turn raw box-score CSV
// shards into snapshot tables.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/nbai/internal/domain/dedupe"
	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/pkg/logger"
	"github.com/okian/nbai/pkg/metrics"
)

// Stage names used in logs and metrics.
const (
	StagePlayers = "players"
	StageTeams   = "teams"
)

// Store persists cleaned tables as named snapshots.
type Store interface {
	HasSnapshot(ctx context.Context, name string) (bool, error)
	SavePlayerGames(ctx context.Context, name string, rows []model.PlayerGame) error
	SaveTeamGames(ctx context.Context, name string, rows []model.TeamGame) error
}

// Report summarizes one stage run.
type Report struct {
	Stage      string         `json:"stage"`
	Skipped    bool           `json:"skipped"`
	RowsRead   int            `json:"rows_read"`
	RowsKept   int            `json:"rows_kept"`
	Duplicates int            `json:"duplicates"`
	Dropped    int            `json:"dropped"`
	Missing    map[string]int `json:"missing,omitempty"`
	Took       time.Duration  `json:"took"`
}

// Pipeline runs the player and team cleaning stages.
type Pipeline struct {
	store        Store
	logger       logger.Logger
	playerShards []Shard
	teamShards   []Shard
	exportPath   string
	force        bool
}

// New creates a pipeline writing to store.
func New(store Store, opts ...Option) *Pipeline {
	p := &Pipeline{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("ingest")
	}
	return p
}

// PreparePlayers cleans the player box scores into the player_games
// snapshot. It is a no-op when the snapshot exists, unless forced.
func (p *Pipeline) PreparePlayers(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{Stage: StagePlayers}

	skip, err := p.skip(ctx, model.SnapshotPlayerGames)
	if err != nil || skip {
		rep.Skipped = skip
		return rep, err
	}

	p.logger.Info(ctx, "loading player shards", logger.Int("shards", len(p.playerShards)))
	tables, err := readShards(ctx, p.playerShards)
	if err != nil {
		metrics.RecordErrorByComponent("ingest", "read")
		return rep, err
	}

	rows, stats := cleanPlayers(ctx, tables, dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(totalRecords(tables))))
	stats.Stage = StagePlayers
	p.logger.Info(ctx, "player rows cleaned",
		logger.Int("read", stats.RowsRead),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("zeroMinutes", stats.Dropped),
		logger.Int("kept", stats.RowsKept))

	if err := p.store.SavePlayerGames(ctx, model.SnapshotPlayerGames, rows); err != nil {
		return stats, fmt.Errorf("%w: %s: %w", ErrSaveSnapshot, model.SnapshotPlayerGames, err)
	}

	stats.Took = time.Since(start)
	metrics.RecordStageDuration(StagePlayers, stats.Took)
	metrics.RecordRowsIngested(StagePlayers, stats.RowsKept)
	metrics.RecordRowsDropped(StagePlayers, "duplicate", stats.Duplicates)
	metrics.RecordRowsDropped(StagePlayers, "zero_minutes", stats.Dropped)
	metrics.UpdateSnapshotRows(model.SnapshotPlayerGames, stats.RowsKept)
	p.logger.Info(ctx, "player snapshot saved",
		logger.String("snapshot", model.SnapshotPlayerGames),
		logger.Int("rows", stats.RowsKept),
		logger.Duration("took", stats.Took))
	return stats, nil
}

// PrepareTeams cleans the team game logs into the team_games snapshots and
// the CSV export. It is a no-op when the snapshot exists, unless forced.
func (p *Pipeline) PrepareTeams(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{Stage: StageTeams}

	skip, err := p.skip(ctx, model.SnapshotTeamGames)
	if err != nil || skip {
		rep.Skipped = skip
		return rep, err
	}

	p.logger.Info(ctx, "loading team shards", logger.Int("shards", len(p.teamShards)))
	tables, err := readShards(ctx, p.teamShards)
	if err != nil {
		metrics.RecordErrorByComponent("ingest", "read")
		return rep, err
	}

	rows, stats := cleanTeams(ctx, tables, dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(totalRecords(tables))))
	stats.Stage = StageTeams
	p.logMissing(ctx, stats.Missing)

	regular, playoff := splitByType(rows)
	for _, snap := range []struct {
		name string
		rows []model.TeamGame
	}{
		{model.SnapshotTeamGames, rows},
		{model.SnapshotTeamRegular, regular},
		{model.SnapshotTeamPlayoff, playoff},
	} {
		if err := p.store.SaveTeamGames(ctx, snap.name, snap.rows); err != nil {
			return stats, fmt.Errorf("%w: %s: %w", ErrSaveSnapshot, snap.name, err)
		}
		metrics.UpdateSnapshotRows(snap.name, len(snap.rows))
	}

	if p.exportPath != "" {
		if err := exportTeams(p.exportPath, rows); err != nil {
			return stats, err
		}
		p.logger.Info(ctx, "team table exported", logger.String("path", p.exportPath))
	}

	stats.Took = time.Since(start)
	metrics.RecordStageDuration(StageTeams, stats.Took)
	metrics.RecordRowsIngested(StageTeams, stats.RowsKept)
	metrics.RecordRowsDropped(StageTeams, "duplicate", stats.Duplicates)
	metrics.RecordRowsDropped(StageTeams, "bad_season", stats.Dropped)
	p.logger.Info(ctx, "team snapshots saved",
		logger.Int("read", stats.RowsRead),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("regular", len(regular)),
		logger.Int("playoff", len(playoff)),
		logger.Int("kept", stats.RowsKept),
		logger.Duration("took", stats.Took))
	return stats, nil
}

func (p *Pipeline) skip(ctx context.Context, snapshot string) (bool, error) {
	if p.force {
		return false, nil
	}
	exists, err := p.store.HasSnapshot(ctx, snapshot)
	if err != nil {
		return false, fmt.Errorf("check snapshot %s: %w", snapshot, err)
	}
	if exists {
		p.logger.Info(ctx, "snapshot already exists, skipping; rerun with force to rebuild",
			logger.String("snapshot", snapshot))
	}
	return exists, nil
}

func (p *Pipeline) logMissing(ctx context.Context, missing map[string]int) {
	if len(missing) == 0 {
		p.logger.Info(ctx, "no missing values found")
		return
	}
	cols := make([]string, 0, len(missing))
	for c := range missing {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool {
		if missing[cols[i]] != missing[cols[j]] {
			return missing[cols[i]] > missing[cols[j]]
		}
		return cols[i] < cols[j]
	})
	fields := make([]logger.Field, 0, len(cols))
	for _, c := range cols {
		fields = append(fields, logger.Int(c, missing[c]))
	}
	p.logger.Warn(ctx, "columns with missing values", fields...)
}

func totalRecords(tables []*table) int {
	n := 0
	for _, t := range tables {
		n += len(t.records)
	}
	return n
}
