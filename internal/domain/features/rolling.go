// Package features turns cleaned game tables into model inputs: per-team
// rolling features, home/away matchup rows and per-season player aggregates.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/nbai/internal/domain/model"
)

// DefaultWindow is the number of prior games averaged per feature.
const DefaultWindow = 10

// SortByDate returns a copy of games stably sorted by date. Rows with an
// invalid date go last in their input order.
func SortByDate(games []model.TeamGame) []model.TeamGame {
	out := make([]model.TeamGame, len(games))
	copy(out, games)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DateValid != b.DateValid {
			return a.DateValid
		}
		return a.DateValid && a.GameDate.Before(b.GameDate)
	})
	return out
}

// Rolling computes lookahead-free features for every team game. Games are
// sorted by date and grouped by team name; each average covers the previous
// window games only. Rows with any undefined value are dropped, which removes
// the first window games of every team. The result stays in date order.
func Rolling(games []model.TeamGame, window int) ([]model.TeamFeatureRow, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	sorted := SortByDate(games)

	byTeam := map[string][]int{}
	for i, g := range sorted {
		byTeam[g.TeamName] = append(byTeam[g.TeamName], i)
	}

	rows := make([]model.TeamFeatureRow, len(sorted))
	for _, idx := range byTeam {
		streak := 0
		for pos, i := range idx {
			g := sorted[i]
			r := model.TeamFeatureRow{Game: g, RestDays: math.NaN()}
			r.Averages = windowMean(sorted, idx, pos, window)

			if pos > 0 {
				prev := sorted[idx[pos-1]]
				if prev.DateValid && g.DateValid {
					r.RestDays = math.Floor(g.GameDate.Sub(prev.GameDate).Hours() / 24)
				}
			}
			r.WinStreakPrev = float64(streak)
			if g.Won() {
				streak++
			} else {
				streak = 0
			}
			r.WinStreak = streak
			rows[i] = r
		}
	}

	out := rows[:0]
	for _, r := range rows {
		if complete(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// windowMean averages each stat over the window games before idx[pos].
// A stat is NaN while fewer than window prior games exist or when any of
// them lacks the value.
func windowMean(sorted []model.TeamGame, idx []int, pos, window int) [model.NumTeamStats]float64 {
	var avg [model.NumTeamStats]float64
	if pos < window {
		for s := range avg {
			avg[s] = math.NaN()
		}
		return avg
	}
	for _, i := range idx[pos-window : pos] {
		for s, v := range sorted[i].Stats {
			avg[s] += v
		}
	}
	for s := range avg {
		avg[s] /= float64(window)
	}
	return avg
}

func complete(r model.TeamFeatureRow) bool {
	if !r.Game.DateValid || math.IsNaN(r.RestDays) {
		return false
	}
	for s := 0; s < model.NumTeamStats; s++ {
		if math.IsNaN(r.Averages[s]) || math.IsNaN(r.Game.Stats[s]) {
			return false
		}
	}
	return true
}

// LatestByTeam returns the most recent feature row of every team.
func LatestByTeam(rows []model.TeamFeatureRow) map[string]model.TeamFeatureRow {
	out := make(map[string]model.TeamFeatureRow)
	for _, r := range rows {
		out[r.Game.TeamName] = r
	}
	return out
}

// Teams lists the team names that have at least one feature row, sorted.
func Teams(rows []model.TeamFeatureRow) []string {
	latest := LatestByTeam(rows)
	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
