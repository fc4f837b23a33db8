package synthetic

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/pkg/logger"
)

const (
	filePermission = 0o600
	dirPermission  = 0o755

	duplicateChance = 0.004
	dnpChance       = 0.02
)

// Layout names the shard files. Player regular-season rows are split evenly
// across PlayerRegular in order.
type Layout struct {
	PlayerRegular []string
	PlayerPlayoff []string
	TeamRegular   []string
	TeamPlayoff   []string

	// Noise adds exact duplicate rows and zero-minute rows so the cleaning
	// stage has something to drop.
	Noise bool
}

var playerColumns = []string{
	"season_year", "game_date", "gameId", "teamId", "teamName", "personId", "personName",
	"position", "minutes", "points", "assists", "reboundsTotal", "fieldGoalsPercentage",
	"threePointersAttempted", "threePointersPercentage", "freeThrowsPercentage", "turnovers",
	"plusMinusPoints",
}

func teamColumns() []string {
	cols := []string{"SEASON_YEAR", "TEAM_ID", "TEAM_ABBREVIATION", "TEAM_NAME", "GAME_ID", "GAME_DATE", "MATCHUP", "WL", "MIN"}
	return append(cols, model.TeamStatNames[:]...)
}

// Write renders the league as raw CSV shards under dir. Files are written
// concurrently; the output is identical for identical leagues.
func Write(ctx context.Context, dir string, l *League, layout Layout) error {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	var regP, poP []model.PlayerGame
	for _, p := range l.Players {
		if p.GameType == model.GameTypePlayoff {
			poP = append(poP, p)
		} else {
			regP = append(regP, p)
		}
	}
	var regT, poT []model.TeamGame
	for _, t := range l.Teams {
		if t.GameType == model.GameTypePlayoff {
			poT = append(poT, t)
		} else {
			regT = append(regT, t)
		}
	}

	type job struct {
		name string
		rows [][]string
		head []string
	}
	var jobs []job
	for i, part := range split(regP, len(layout.PlayerRegular)) {
		jobs = append(jobs, job{layout.PlayerRegular[i], playerRecords(part), playerColumns})
	}
	for i, part := range split(poP, len(layout.PlayerPlayoff)) {
		jobs = append(jobs, job{layout.PlayerPlayoff[i], playerRecords(part), playerColumns})
	}
	for i, part := range split(regT, len(layout.TeamRegular)) {
		jobs = append(jobs, job{layout.TeamRegular[i], teamRecords(part), teamColumns()})
	}
	for i, part := range split(poT, len(layout.TeamPlayoff)) {
		jobs = append(jobs, job{layout.TeamPlayoff[i], teamRecords(part), teamColumns()})
	}

	eg, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		rows := j.rows
		if layout.Noise {
			rows = addNoise(rows, l.Seed+int64(i), j.head)
		}
		path := filepath.Join(dir, j.name)
		head := j.head
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeCSV(path, head, rows)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	logger.Get().Named("synthetic").Info(ctx, "shards written",
		logger.String("dir", dir),
		logger.Int("files", len(jobs)))
	return nil
}

// split cuts rows into n contiguous parts. n of zero yields nothing.
func split[T any](rows []T, n int) [][]T {
	if n <= 0 {
		return nil
	}
	out := make([][]T, n)
	size := (len(rows) + n - 1) / n
	for i := 0; i < n; i++ {
		lo, hi := min(i*size, len(rows)), min((i+1)*size, len(rows))
		out[i] = rows[lo:hi]
	}
	return out
}

// addNoise repeats some records verbatim and, for box scores, inserts
// did-not-play rows.
func addNoise(rows [][]string, seed int64, head []string) [][]string {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible data
	minutes := -1
	for i, c := range head {
		if c == "minutes" {
			minutes = i
		}
	}
	out := make([][]string, 0, len(rows)+len(rows)/20)
	for _, r := range rows {
		out = append(out, r)
		if rng.Float64() < duplicateChance {
			out = append(out, r)
		}
		if minutes >= 0 && rng.Float64() < dnpChance {
			dnp := append([]string(nil), r...)
			dnp[minutes] = "0:00"
			dnp[5] += "9" // a bench player, not the starter
			dnp[6] += " Jr."
			out = append(out, dnp)
		}
	}
	return out
}

func writeCSV(path string, head []string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create shard %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err := w.Write(head); err != nil {
		_ = f.Close()
		return fmt.Errorf("write shard %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write shard %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write shard %s: %w", path, err)
	}
	return f.Close()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clock(minutes float64) string {
	total := int(math.Round(minutes * 60))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func playerRecords(rows []model.PlayerGame) [][]string {
	out := make([][]string, len(rows))
	for i, p := range rows {
		out[i] = []string{
			p.SeasonYear, p.GameDate.Format("2006-01-02"), p.GameID, p.TeamID, p.TeamName,
			p.PlayerID, p.PlayerName, p.Position, clock(p.Min), num(p.Pts), num(p.Ast),
			num(p.Reb), num(p.FGPct), num(p.FG3A), num(p.FG3Pct), num(p.FTPct), num(p.Tov),
			num(p.PlusMinus),
		}
	}
	return out
}

func teamRecords(rows []model.TeamGame) [][]string {
	out := make([][]string, len(rows))
	for i, t := range rows {
		rec := []string{
			seasonLabel(t.SeasonYear), t.TeamID, t.TeamAbbreviation, t.TeamName, t.GameID,
			t.GameDate.Format("2006-01-02"), t.Matchup, t.WL, num(t.Min),
		}
		for _, v := range t.Stats {
			rec = append(rec, num(v))
		}
		out[i] = rec
	}
	return out
}
