package repository

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/nbai/internal/domain/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "nbai.db"), WithMetricsUpdateInterval(0))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_PlayerGamesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	date := time.Date(2016, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := []model.PlayerGame{
		{SeasonYear: "2015-16", GameDate: date, DateValid: true, GameID: "1", TeamID: "10", TeamName: "Hawks",
			PlayerID: "7", PlayerName: "Al Horford", Position: "C", GameType: model.GameTypeRegular,
			Min: 30.5, Pts: 14, Ast: 3, Reb: 8, FGPct: 0.5, FG3A: math.NaN(), FG3Pct: 0.4, FTPct: 1, Tov: 2, PlusMinus: math.NaN()},
		{SeasonYear: "2015-16", PlayerName: "Kent Bazemore", GameType: model.GameTypePlayoff, Min: 20, Pts: 9, FG3A: 4, PlusMinus: -3},
	}

	if ok, _ := s.HasSnapshot(ctx, model.SnapshotPlayerGames); ok {
		t.Fatal("expected no snapshot before save")
	}
	if err := s.SavePlayerGames(ctx, model.SnapshotPlayerGames, rows); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ok, err := s.HasSnapshot(ctx, model.SnapshotPlayerGames); err != nil || !ok {
		t.Fatalf("expected snapshot after save, got %v %v", ok, err)
	}

	got, err := s.LoadPlayerGames(ctx, model.SnapshotPlayerGames)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].PlayerName != "Al Horford" || got[0].Min != 30.5 || !got[0].GameDate.Equal(date) || !got[0].DateValid {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if !math.IsNaN(got[0].FG3A) || !math.IsNaN(got[0].PlusMinus) {
		t.Errorf("expected NaN to survive the round trip, got %v %v", got[0].FG3A, got[0].PlusMinus)
	}
	if got[1].DateValid || got[1].PlusMinus != -3 || got[1].GameType != model.GameTypePlayoff {
		t.Errorf("unexpected second row: %+v", got[1])
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := []model.TeamGame{{SeasonYear: 2012, TeamName: "Heat", GameID: "1"}, {SeasonYear: 2012, TeamName: "Celtics", GameID: "1"}}
	if err := s.SaveTeamGames(ctx, model.SnapshotTeamGames, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := []model.TeamGame{{SeasonYear: 2013, TeamName: "Knicks", GameID: "2", WL: "W"}}
	second[0].Stats[model.StatPTS] = 101
	second[0].Stats[model.StatFTPct] = math.NaN()
	if err := s.SaveTeamGames(ctx, model.SnapshotTeamGames, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadTeamGames(ctx, model.SnapshotTeamGames)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].TeamName != "Knicks" || got[0].SeasonYear != 2013 {
		t.Fatalf("expected replaced snapshot, got %+v", got)
	}
	if got[0].Stats[model.StatPTS] != 101 || !math.IsNaN(got[0].Stats[model.StatFTPct]) || !got[0].Won() {
		t.Errorf("unexpected stats: %+v", got[0].Stats)
	}

	infos, err := s.Snapshots(ctx)
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(infos) != 1 || infos[0].Rows != 1 || infos[0].Kind != KindTeamGames {
		t.Errorf("unexpected snapshot list: %+v", infos)
	}
}

func TestSQLiteStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.LoadTeamGames(ctx, "missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
	if err := s.SavePlayerGames(ctx, "p", nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, err := s.LoadTeamGames(ctx, "p"); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
	got, err := s.LoadPlayerGames(ctx, "p")
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty snapshot, got %v %v", got, err)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nbai.db")

	s, err := NewSQLiteStore(ctx, path, WithMetricsUpdateInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SaveTeamGames(ctx, model.SnapshotTeamRegular, []model.TeamGame{{TeamName: "Heat"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := NewSQLiteStore(ctx, path, WithMetricsUpdateInterval(0))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()
	if ok, _ := s2.HasSnapshot(ctx, model.SnapshotTeamRegular); !ok {
		t.Error("expected snapshot to persist across reopen")
	}
}
