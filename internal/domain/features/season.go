package features

import (
	"sort"

	"github.com/okian/nbai/internal/domain/model"
)

type seasonKey struct {
	player, season, team string
}

type seasonSum struct {
	pts, min, ast, reb, fgPct, fg3Pct, ftPct, tov float64
	games                                         int
}

// Seasons aggregates player games into (player, season, team) rows sorted by
// those keys, then derives the forecast features: season start year, team
// change against the player's previous row, point delta against the previous
// row and the next row's points.
func Seasons(games []model.PlayerGame) []model.SeasonRow {
	sums := map[seasonKey]*seasonSum{}
	for _, g := range games {
		k := seasonKey{g.PlayerName, g.SeasonYear, g.TeamID}
		s := sums[k]
		if s == nil {
			s = &seasonSum{}
			sums[k] = s
		}
		s.pts += g.Pts
		s.min += g.Min
		s.ast += g.Ast
		s.reb += g.Reb
		s.fgPct += g.FGPct
		s.fg3Pct += g.FG3Pct
		s.ftPct += g.FTPct
		s.tov += g.Tov
		s.games++
	}

	keys := make([]seasonKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.player != b.player {
			return a.player < b.player
		}
		if a.season != b.season {
			return a.season < b.season
		}
		return a.team < b.team
	})

	rows := make([]model.SeasonRow, len(keys))
	for i, k := range keys {
		s := sums[k]
		n := float64(s.games)
		start, _ := model.SeasonStart(k.season)
		rows[i] = model.SeasonRow{
			PlayerName:  k.player,
			SeasonYear:  k.season,
			TeamID:      k.team,
			Pts:         s.pts / n,
			Min:         s.min / n,
			Ast:         s.ast / n,
			Reb:         s.reb / n,
			FGPct:       s.fgPct / n,
			FG3Pct:      s.fg3Pct / n,
			FTPct:       s.ftPct / n,
			Tov:         s.tov / n,
			Games:       s.games,
			SeasonStart: start,
			TeamChanged: 1,
		}
	}

	for i := range rows {
		r := &rows[i]
		if i > 0 && rows[i-1].PlayerName == r.PlayerName {
			prev := rows[i-1]
			r.HasPrev = true
			r.PtsDelta = r.Pts - prev.Pts
			if prev.TeamID == r.TeamID {
				r.TeamChanged = 0
			}
		}
		if i+1 < len(rows) && rows[i+1].PlayerName == r.PlayerName {
			r.HasNext = true
			r.NextPts = rows[i+1].Pts
		}
	}
	return rows
}

// TrainingRows keeps the rows with both a previous and a next row.
func TrainingRows(rows []model.SeasonRow) []model.SeasonRow {
	var out []model.SeasonRow
	for _, r := range rows {
		if r.HasPrev && r.HasNext {
			out = append(out, r)
		}
	}
	return out
}

// LatestSeason returns the player's row with the highest season start year.
// Among rows of the same season the first in table order wins.
func LatestSeason(rows []model.SeasonRow, player string) (model.SeasonRow, bool) {
	var best model.SeasonRow
	found := false
	for _, r := range rows {
		if r.PlayerName != player {
			continue
		}
		if !found || r.SeasonStart > best.SeasonStart {
			best, found = r, true
		}
	}
	return best, found
}

// SeasonCount returns the number of distinct seasons each player appears in.
func SeasonCount(games []model.PlayerGame) map[string]int {
	seen := map[string]map[string]struct{}{}
	for _, g := range games {
		s := seen[g.PlayerName]
		if s == nil {
			s = map[string]struct{}{}
			seen[g.PlayerName] = s
		}
		s[g.SeasonYear] = struct{}{}
	}
	out := make(map[string]int, len(seen))
	for p, s := range seen {
		out[p] = len(s)
	}
	return out
}
