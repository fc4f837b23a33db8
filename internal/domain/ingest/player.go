package ingest

import (
	"context"

	"github.com/okian/nbai/internal/domain/dedupe"
	"github.com/okian/nbai/internal/domain/model"
)

// Raw player box-score columns.
const (
	colSeasonYear   = "season_year"
	colGameDate     = "game_date"
	colGameID       = "gameId"
	colTeamID       = "teamId"
	colTeamName     = "teamName"
	colPersonID     = "personId"
	colPersonName   = "personName"
	colPosition     = "position"
	colMinutes      = "minutes"
	colPoints       = "points"
	colAssists      = "assists"
	colRebounds     = "reboundsTotal"
	colFGPct        = "fieldGoalsPercentage"
	colFG3Attempted = "threePointersAttempted"
	colFG3Pct       = "threePointersPercentage"
	colFTPct        = "freeThrowsPercentage"
	colTurnovers    = "turnovers"
	colPlusMinus    = "plusMinusPoints"
)

// cleanPlayers converts raw box-score rows to PlayerGame values. Exact
// duplicates (compared before missing values are filled) and rows without
// minutes played are dropped; input order is preserved.
func cleanPlayers(ctx context.Context, tables []*table, dd dedupe.Deduper) ([]model.PlayerGame, Report) {
	var rep Report
	var out []model.PlayerGame

	for _, t := range tables {
		for _, rec := range t.records {
			rep.RowsRead++
			str := func(col string) string {
				v, _ := t.get(rec, col)
				return v
			}
			num := func(col string) float64 { return parseNumber(str(col)) }

			g := model.PlayerGame{
				SeasonYear: str(colSeasonYear),
				GameID:     normalizeID(str(colGameID)),
				TeamID:     normalizeID(str(colTeamID)),
				TeamName:   str(colTeamName),
				PlayerID:   normalizeID(str(colPersonID)),
				PlayerName: str(colPersonName),
				Position:   str(colPosition),
				GameType:   t.shard.GameType,
				Pts:        num(colPoints),
				Ast:        num(colAssists),
				Reb:        num(colRebounds),
				FGPct:      num(colFGPct),
				FG3A:       num(colFG3Attempted),
				FG3Pct:     num(colFG3Pct),
				FTPct:      num(colFTPct),
				Tov:        num(colTurnovers),
				PlusMinus:  num(colPlusMinus),
			}
			g.GameDate, g.DateValid = ParseDate(str(colGameDate))
			rawMinutes := str(colMinutes)

			if dd.SeenAndRecord(ctx, playerKey(g, rawMinutes)) {
				rep.Duplicates++
				continue
			}

			g.Min = orZero(ParseMinutes(rawMinutes))
			g.Pts = orZero(g.Pts)
			g.Ast = orZero(g.Ast)
			g.Reb = orZero(g.Reb)
			g.FGPct = orZero(g.FGPct)
			g.FG3Pct = orZero(g.FG3Pct)
			g.FTPct = orZero(g.FTPct)
			g.Tov = orZero(g.Tov)

			if g.Min <= 0 {
				rep.Dropped++
				continue
			}
			out = append(out, g)
		}
	}
	rep.RowsKept = len(out)
	return out, rep
}

func playerKey(g model.PlayerGame, rawMinutes string) string {
	date := "NaT"
	if g.DateValid {
		date = g.GameDate.Format("2006-01-02T15:04:05")
	}
	return dedupe.Fingerprint(
		g.SeasonYear, date, g.GameID, g.TeamID, g.TeamName, g.PlayerID, g.PlayerName,
		g.Position, rawMinutes,
		dedupe.Float(g.Pts), dedupe.Float(g.Ast), dedupe.Float(g.Reb), dedupe.Float(g.FGPct),
		dedupe.Float(g.FG3A), dedupe.Float(g.FG3Pct), dedupe.Float(g.FTPct), dedupe.Float(g.Tov),
		dedupe.Float(g.PlusMinus), g.GameType,
	)
}
