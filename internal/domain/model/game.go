// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// Game types carried by every cleaned row.
const (
	GameTypeRegular = "Regular"
	GameTypePlayoff = "Playoff"
)

// Snapshot names of the cleaned tables.
const (
	SnapshotPlayerGames = "player_games"
	SnapshotTeamGames   = "team_games"
	SnapshotTeamRegular = "team_games_regular"
	SnapshotTeamPlayoff = "team_games_playoff"
)

// PlayerGame is one cleaned player box-score row.
// Fields mirror the player_games snapshot columns.
type PlayerGame struct {
	SeasonYear string    // season label, e.g. "2012-13"
	GameDate   time.Time // zero when the raw date did not parse
	DateValid  bool
	GameID     string
	TeamID     string
	TeamName   string
	PlayerID   string
	PlayerName string
	Position   string
	GameType   string

	Min       float64
	Pts       float64
	Ast       float64
	Reb       float64
	FGPct     float64
	FG3A      float64 // NaN when absent from the shard
	FG3Pct    float64
	FTPct     float64
	Tov       float64
	PlusMinus float64 // NaN when absent from the shard
}

// SeasonStart returns the four-digit start year of a season label such as
// "2012-13". It returns false when the label does not start with a year.
func SeasonStart(label string) (int, bool) {
	if len(label) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(label[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

// Indexes of the tracked team statistics.
const (
	StatPTS = iota
	StatAST
	StatREB
	StatSTL
	StatBLK
	StatTOV
	StatFGPct
	StatFG3Pct
	StatFTPct
	StatPlusMinus

	NumTeamStats
)

// TeamStatNames holds the raw column name of every tracked team statistic.
var TeamStatNames = [NumTeamStats]string{
	"PTS", "AST", "REB", "STL", "BLK", "TOV",
	"FG_PCT", "FG3_PCT", "FT_PCT", "PLUS_MINUS",
}

// TeamGame is one cleaned team game-log row. Missing numeric stats are NaN.
type TeamGame struct {
	SeasonYear       int
	TeamID           string
	TeamAbbreviation string
	TeamName         string
	GameID           string
	GameDate         time.Time
	DateValid        bool
	Matchup          string // "LAL vs. BOS" at home, "LAL @ BOS" away
	WL               string
	GameType         string

	Min   float64
	Stats [NumTeamStats]float64
}

// Won reports whether the team won the game.
func (g TeamGame) Won() bool { return g.WL == "W" }
