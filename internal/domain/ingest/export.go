package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/nbai/internal/domain/model"
)

// exportTeams writes the cleaned team table as CSV. NaN cells are empty.
func exportTeams(path string, rows []model.TeamGame) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)

	if err := w.Write(TeamColumns()); err != nil {
		_ = f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	rec := make([]string, 0, len(TeamColumns()))
	for _, g := range rows {
		rec = rec[:0]
		rec = append(rec,
			strconv.Itoa(g.SeasonYear), g.TeamID, g.TeamAbbreviation, g.TeamName, g.GameID,
			dateText(g), g.Matchup, g.WL, cell(g.Min),
		)
		for _, v := range g.Stats {
			rec = append(rec, cell(v))
		}
		rec = append(rec, g.GameType)
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return fmt.Errorf("export %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
