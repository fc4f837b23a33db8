package features

import (
	"strings"

	"github.com/okian/nbai/internal/domain/model"
)

// IsHome reports whether a matchup string marks the home side ("BOS vs. NYK").
func IsHome(matchup string) bool { return strings.Contains(matchup, "vs") }

// IsAway reports whether a matchup string marks the away side ("NYK @ BOS").
func IsAway(matchup string) bool { return strings.Contains(matchup, "@") }

// Diff returns home minus away over the team feature vector.
func Diff(home, away model.TeamFeatureRow) []float64 {
	h, a := home.Vector(), away.Vector()
	for i := range h {
		h[i] -= a[i]
	}
	return h
}

// Matchups joins home and away feature rows on game id. Output follows the
// order of the home rows; a game with several away rows yields one matchup
// per pairing.
func Matchups(rows []model.TeamFeatureRow) []model.MatchupRow {
	away := map[string][]model.TeamFeatureRow{}
	for _, r := range rows {
		if IsAway(r.Game.Matchup) {
			away[r.Game.GameID] = append(away[r.Game.GameID], r)
		}
	}

	var out []model.MatchupRow
	for _, h := range rows {
		if !IsHome(h.Game.Matchup) {
			continue
		}
		for _, a := range away[h.Game.GameID] {
			m := model.MatchupRow{
				GameID:   h.Game.GameID,
				GameDate: h.Game.GameDate,
				Home:     h.Game.TeamName,
				Away:     a.Game.TeamName,
				Diff:     Diff(h, a),
			}
			if h.Game.Won() {
				m.HomeWin = 1
			}
			out = append(out, m)
		}
	}
	return out
}

// Dataset splits matchup rows into a feature matrix and labels.
func Dataset(rows []model.MatchupRow) ([][]float64, []int) {
	X := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i, r := range rows {
		X[i] = r.Diff
		y[i] = r.HomeWin
	}
	return X, y
}
