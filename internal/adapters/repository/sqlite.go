package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver

	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	rows       INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS player_games (
	snapshot    TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	season_year TEXT,
	game_date   TEXT,
	game_id     TEXT,
	team_id     TEXT,
	team_name   TEXT,
	player_id   TEXT,
	player_name TEXT,
	position    TEXT,
	game_type   TEXT,
	min         REAL,
	pts         REAL,
	ast         REAL,
	reb         REAL,
	fg_pct      REAL,
	fg3a        REAL,
	fg3_pct     REAL,
	ft_pct      REAL,
	tov         REAL,
	plus_minus  REAL,
	PRIMARY KEY (snapshot, seq)
);
CREATE INDEX IF NOT EXISTS player_games_name ON player_games (snapshot, player_name);
CREATE TABLE IF NOT EXISTS team_games (
	snapshot          TEXT NOT NULL,
	seq               INTEGER NOT NULL,
	season_year       INTEGER,
	team_id           TEXT,
	team_abbreviation TEXT,
	team_name         TEXT,
	game_id           TEXT,
	game_date         TEXT,
	matchup           TEXT,
	wl                TEXT,
	game_type         TEXT,
	min               REAL,
	pts               REAL,
	ast               REAL,
	reb               REAL,
	stl               REAL,
	blk               REAL,
	tov               REAL,
	fg_pct            REAL,
	fg3_pct           REAL,
	ft_pct            REAL,
	plus_minus        REAL,
	PRIMARY KEY (snapshot, seq)
);
`

const (
	insertPlayer = `INSERT INTO player_games (snapshot, seq, season_year, game_date, game_id, team_id,
	team_name, player_id, player_name, position, game_type, min, pts, ast, reb, fg_pct, fg3a,
	fg3_pct, ft_pct, tov, plus_minus) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

	selectPlayers = `SELECT season_year, game_date, game_id, team_id, team_name, player_id,
	player_name, position, game_type, min, pts, ast, reb, fg_pct, fg3a, fg3_pct, ft_pct, tov,
	plus_minus FROM player_games WHERE snapshot = ? ORDER BY seq`

	insertTeam = `INSERT INTO team_games (snapshot, seq, season_year, team_id, team_abbreviation,
	team_name, game_id, game_date, matchup, wl, game_type, min, pts, ast, reb, stl, blk, tov,
	fg_pct, fg3_pct, ft_pct, plus_minus) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

	selectTeams = `SELECT season_year, team_id, team_abbreviation, team_name, game_id, game_date,
	matchup, wl, game_type, min, pts, ast, reb, stl, blk, tov, fg_pct, fg3_pct, ft_pct, plus_minus
	FROM team_games WHERE snapshot = ? ORDER BY seq`

	upsertSnapshot = `INSERT INTO snapshots (name, kind, rows, created_at) VALUES (?,?,?,?)
	ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, rows = excluded.rows, created_at = excluded.created_at`
)

// SQLiteStore keeps snapshots in a single SQLite file.
type SQLiteStore struct {
	db                    *sql.DB
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSQLiteStore opens (or creates) the store at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		metricsUpdateInterval: 30 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenStore, path, err)
	}
	// one writer at a time; readers share the same connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: schema: %w", ErrOpenStore, err)
	}
	s.db = db

	if s.metricsUpdateInterval > 0 {
		s.startMetricsUpdater(ctx)
	}
	return s, nil
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

func (s *SQLiteStore) HasSnapshot(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has snapshot %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) SavePlayerGames(ctx context.Context, name string, rows []model.PlayerGame) error {
	return s.save(ctx, name, KindPlayerGames, len(rows), insertPlayer, func(stmt *sql.Stmt) error {
		for i, g := range rows {
			_, err := stmt.ExecContext(ctx, name, i, g.SeasonYear, dateValue(g.GameDate, g.DateValid),
				g.GameID, g.TeamID, g.TeamName, g.PlayerID, g.PlayerName, g.Position, g.GameType,
				nullable(g.Min), nullable(g.Pts), nullable(g.Ast), nullable(g.Reb), nullable(g.FGPct), nullable(g.FG3A),
				nullable(g.FG3Pct), nullable(g.FTPct), nullable(g.Tov), nullable(g.PlusMinus))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SaveTeamGames(ctx context.Context, name string, rows []model.TeamGame) error {
	return s.save(ctx, name, KindTeamGames, len(rows), insertTeam, func(stmt *sql.Stmt) error {
		for i, g := range rows {
			args := make([]any, 0, 22)
			args = append(args, name, i, g.SeasonYear, g.TeamID, g.TeamAbbreviation, g.TeamName,
				g.GameID, dateValue(g.GameDate, g.DateValid), g.Matchup, g.WL, g.GameType, nullable(g.Min))
			for _, v := range g.Stats {
				args = append(args, nullable(v))
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// save replaces snapshot name inside one transaction.
func (s *SQLiteStore) save(ctx context.Context, name, kind string, n int, insert string, write func(*sql.Stmt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{KindPlayerGames, KindTeamGames} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE snapshot = ?`, name); err != nil {
			return fmt.Errorf("save %s: clear: %w", name, err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("save %s: prepare: %w", name, err)
	}
	defer func() { _ = stmt.Close() }()

	if err := write(stmt); err != nil {
		return fmt.Errorf("save %s: insert: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, upsertSnapshot, name, kind, n, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save %s: register: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %s: commit: %w", name, err)
	}
	metrics.UpdateSnapshotRows(name, n)
	return nil
}

func (s *SQLiteStore) LoadPlayerGames(ctx context.Context, name string) ([]model.PlayerGame, error) {
	n, err := s.checkKind(ctx, name, KindPlayerGames)
	if err != nil {
		return nil, err
	}
	rs, err := s.db.QueryContext(ctx, selectPlayers, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer func() { _ = rs.Close() }()

	out := make([]model.PlayerGame, 0, n)
	for rs.Next() {
		var g model.PlayerGame
		var date sql.NullString
		var f [10]sql.NullFloat64
		if err := rs.Scan(&g.SeasonYear, &date, &g.GameID, &g.TeamID, &g.TeamName, &g.PlayerID,
			&g.PlayerName, &g.Position, &g.GameType,
			&f[0], &f[1], &f[2], &f[3], &f[4], &f[5], &f[6], &f[7], &f[8], &f[9]); err != nil {
			return nil, fmt.Errorf("load %s: scan: %w", name, err)
		}
		g.GameDate, g.DateValid = parseDate(date)
		g.Min, g.Pts, g.Ast, g.Reb, g.FGPct = value(f[0]), value(f[1]), value(f[2]), value(f[3]), value(f[4])
		g.FG3A, g.FG3Pct, g.FTPct, g.Tov, g.PlusMinus = value(f[5]), value(f[6]), value(f[7]), value(f[8]), value(f[9])
		out = append(out, g)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return out, nil
}

func (s *SQLiteStore) LoadTeamGames(ctx context.Context, name string) ([]model.TeamGame, error) {
	n, err := s.checkKind(ctx, name, KindTeamGames)
	if err != nil {
		return nil, err
	}
	rs, err := s.db.QueryContext(ctx, selectTeams, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer func() { _ = rs.Close() }()

	out := make([]model.TeamGame, 0, n)
	for rs.Next() {
		var g model.TeamGame
		var date sql.NullString
		var minutes sql.NullFloat64
		var st [model.NumTeamStats]sql.NullFloat64
		dest := []any{&g.SeasonYear, &g.TeamID, &g.TeamAbbreviation, &g.TeamName, &g.GameID, &date,
			&g.Matchup, &g.WL, &g.GameType, &minutes}
		for i := range st {
			dest = append(dest, &st[i])
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, fmt.Errorf("load %s: scan: %w", name, err)
		}
		g.GameDate, g.DateValid = parseDate(date)
		g.Min = value(minutes)
		for i := range st {
			g.Stats[i] = value(st[i])
		}
		out = append(out, g)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return out, nil
}

func (s *SQLiteStore) Snapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT name, kind, rows, created_at FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rs.Close() }()

	var out []SnapshotInfo
	for rs.Next() {
		var info SnapshotInfo
		var created string
		if err := rs.Scan(&info.Name, &info.Kind, &info.Rows, &created); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, info)
	}
	return out, rs.Err()
}

func (s *SQLiteStore) checkKind(ctx context.Context, name, want string) (int, error) {
	var kind string
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT kind, rows FROM snapshots WHERE name = ?`, name).Scan(&kind, &n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", name, err)
	}
	if kind != want {
		return 0, fmt.Errorf("%w: %s is %s, want %s", ErrKindMismatch, name, kind, want)
	}
	return n, nil
}

// startMetricsUpdater periodically republishes snapshot sizes.
func (s *SQLiteStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *SQLiteStore) updateMetrics(ctx context.Context) {
	infos, err := s.Snapshots(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "list")
		return
	}
	for _, info := range infos {
		metrics.UpdateSnapshotRows(info.Name, info.Rows)
	}
}

// nullable maps NaN to NULL.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// value maps NULL back to NaN.
func value(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func dateValue(t time.Time, valid bool) any {
	if !valid {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseDate(v sql.NullString) (time.Time, bool) {
	if !v.Valid {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
