package ingest

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/okian/nbai/internal/domain/dedupe"
	"github.com/okian/nbai/internal/domain/model"
)

// Raw team game-log columns.
const (
	colTeamSeasonYear = "SEASON_YEAR"
	colTeamTeamID     = "TEAM_ID"
	colTeamAbbrev     = "TEAM_ABBREVIATION"
	colTeamTeamName   = "TEAM_NAME"
	colTeamGameID     = "GAME_ID"
	colTeamGameDate   = "GAME_DATE"
	colTeamMatchup    = "MATCHUP"
	colTeamWL         = "WL"
	colTeamMin        = "MIN"
	colTeamGameType   = "GAME_TYPE"
)

// TeamColumns is the cleaned team table layout, as exported to CSV.
func TeamColumns() []string {
	cols := []string{
		colTeamSeasonYear, colTeamTeamID, colTeamAbbrev, colTeamTeamName, colTeamGameID,
		colTeamGameDate, colTeamMatchup, colTeamWL, colTeamMin,
	}
	cols = append(cols, model.TeamStatNames[:]...)
	return append(cols, colTeamGameType)
}

// cleanTeams converts raw team game-log rows. Rows whose season does not
// start with a year are dropped; missing numeric stats stay NaN. Missing
// values are counted per column before duplicates are removed.
func cleanTeams(ctx context.Context, tables []*table, dd dedupe.Deduper) ([]model.TeamGame, Report) {
	rep := Report{Missing: map[string]int{}}
	var parsed []model.TeamGame

	for _, t := range tables {
		for _, rec := range t.records {
			rep.RowsRead++
			str := func(col string) string {
				v, ok := t.get(rec, col)
				if !ok || strings.TrimSpace(v) == "" {
					rep.Missing[col]++
				}
				return v
			}

			season, ok := model.SeasonStart(strings.TrimSpace(str(colTeamSeasonYear)))
			if !ok {
				rep.Dropped++
				continue
			}
			g := model.TeamGame{
				SeasonYear:       season,
				TeamID:           normalizeID(str(colTeamTeamID)),
				TeamAbbreviation: str(colTeamAbbrev),
				TeamName:         str(colTeamTeamName),
				GameID:           normalizeID(str(colTeamGameID)),
				Matchup:          str(colTeamMatchup),
				WL:               strings.TrimSpace(str(colTeamWL)),
				GameType:         t.shard.GameType,
				Min:              parseNumber(str(colTeamMin)),
			}
			rawDate := str(colTeamGameDate)
			g.GameDate, g.DateValid = ParseDate(rawDate)
			if !g.DateValid && strings.TrimSpace(rawDate) != "" {
				rep.Missing[colTeamGameDate]++
			}
			for i, name := range model.TeamStatNames {
				g.Stats[i] = parseNumber(str(name))
				if raw, ok := t.get(rec, name); ok && strings.TrimSpace(raw) != "" && math.IsNaN(g.Stats[i]) {
					rep.Missing[name]++
				}
			}
			parsed = append(parsed, g)
		}
	}

	out, dups := dedupe.Filter(ctx, dd, parsed, teamKey)
	rep.Duplicates = dups
	rep.RowsKept = len(out)
	return out, rep
}

func teamKey(g model.TeamGame) string {
	vals := make([]string, 0, 10+model.NumTeamStats)
	vals = append(vals,
		strconv.Itoa(g.SeasonYear), g.TeamID, g.TeamAbbreviation, g.TeamName, g.GameID,
		dateText(g), g.Matchup, g.WL, dedupe.Float(g.Min), g.GameType,
	)
	for _, v := range g.Stats {
		vals = append(vals, dedupe.Float(v))
	}
	return dedupe.Fingerprint(vals...)
}

func dateText(g model.TeamGame) string {
	if !g.DateValid {
		return ""
	}
	return g.GameDate.Format("2006-01-02")
}

// splitByType partitions rows into regular-season and playoff games.
func splitByType(rows []model.TeamGame) (regular, playoff []model.TeamGame) {
	for _, g := range rows {
		switch g.GameType {
		case model.GameTypeRegular:
			regular = append(regular, g)
		case model.GameTypePlayoff:
			playoff = append(playoff, g)
		}
	}
	return regular, playoff
}
