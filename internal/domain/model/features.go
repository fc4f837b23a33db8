package model

import "time"

// Names of the non-average team features.
const (
	FeatureRestDays      = "REST_DAYS"
	FeatureWinStreakPrev = "WINSTREAK_prev"
)

// NumMatchupFeatures is the width of a matchup diff vector.
const NumMatchupFeatures = NumTeamStats + 2

// TeamFeatureNames lists the team feature columns in vector order:
// the rolling averages, rest days and the pre-game win streak.
func TeamFeatureNames() []string {
	names := make([]string, 0, NumMatchupFeatures)
	for _, s := range TeamStatNames {
		names = append(names, s+"_avg")
	}
	return append(names, FeatureRestDays, FeatureWinStreakPrev)
}

// MatchupFeatureNames lists the diff columns fed to the win predictor.
func MatchupFeatureNames() []string {
	names := TeamFeatureNames()
	for i := range names {
		names[i] += "_diff"
	}
	return names
}

// TeamFeatureRow is a team game enriched with lookahead-free features.
type TeamFeatureRow struct {
	Game TeamGame

	// Averages holds the mean of each tracked stat over the previous k games.
	Averages [NumTeamStats]float64
	// RestDays is the number of whole days since the previous game.
	RestDays float64
	// WinStreak is the consecutive-win count including this game.
	WinStreak int
	// WinStreakPrev is the streak as of before this game.
	WinStreakPrev float64
}

// Vector returns the features in TeamFeatureNames order.
func (r TeamFeatureRow) Vector() []float64 {
	v := make([]float64, 0, NumMatchupFeatures)
	v = append(v, r.Averages[:]...)
	return append(v, r.RestDays, r.WinStreakPrev)
}

// MatchupRow is one game seen from the home side.
type MatchupRow struct {
	GameID   string
	GameDate time.Time
	Home     string
	Away     string
	// Diff is home minus away, in MatchupFeatureNames order.
	Diff []float64
	// HomeWin is 1 when the home team won, else 0.
	HomeWin int
}

// SeasonRow is one (player, season, team) aggregate with engineered
// forecast features.
type SeasonRow struct {
	PlayerName string
	SeasonYear string
	TeamID     string

	Pts    float64
	Min    float64
	Ast    float64
	Reb    float64
	FGPct  float64
	FG3Pct float64
	FTPct  float64
	Tov    float64
	Games  int

	SeasonStart int
	TeamChanged int
	PtsDelta    float64

	HasPrev bool
	HasNext bool
	NextPts float64
}

// ForecastFeatureNames lists the regressor inputs in SeasonRow.Vector order.
var ForecastFeatureNames = []string{
	"pts", "min", "ast", "reb", "fg_pct", "fg3_pct", "ft_pct", "tov",
	"games", "season_start", "team_changed", "pts_delta",
}

// Vector returns the forecast features in ForecastFeatureNames order.
func (r SeasonRow) Vector() []float64 {
	return []float64{
		r.Pts, r.Min, r.Ast, r.Reb, r.FGPct, r.FG3Pct, r.FTPct, r.Tov,
		float64(r.Games), float64(r.SeasonStart), float64(r.TeamChanged), r.PtsDelta,
	}
}
