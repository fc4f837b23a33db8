// Package types contains the result types shared by the service and the API.
package types

// PlayerList feeds the dashboard player picker.
type PlayerList struct {
	Players []string `json:"players"`
	Default string   `json:"default,omitempty"`
}

// CareerCurve is a player's per-season scoring with a fitted trend.
type CareerCurve struct {
	Player       string    `json:"player"`
	Seasons      []string  `json:"seasons"`
	Points       []float64 `json:"points"`
	Fitted       []float64 `json:"fitted"`
	Coefficients []float64 `json:"coefficients"`
	R2           float64   `json:"r2"`
}

// AnomalousGame is one game flagged by the outlier detector.
type AnomalousGame struct {
	GameDate string  `json:"game_date"`
	GameID   string  `json:"game_id"`
	Pts      float64 `json:"pts"`
	Ast      float64 `json:"ast"`
	Reb      float64 `json:"reb"`
	FG3A     float64 `json:"fg3a"`
	FGPct    float64 `json:"fg_pct"`
	FG3Pct   float64 `json:"fg3_pct"`
	Tov      float64 `json:"tov"`
	Score    float64 `json:"score"`
}

// GamePoint is one game on the points-versus-assists scatter.
type GamePoint struct {
	Pts       float64 `json:"pts"`
	Ast       float64 `json:"ast"`
	Anomalous bool    `json:"anomalous"`
}

// AnomalyReport lists a player's anomalous games, most anomalous first.
type AnomalyReport struct {
	Player string `json:"player"`
	Games  int    `json:"games"`
	// Threshold is the raw isolation score below which a game is anomalous.
	Threshold float64         `json:"threshold"`
	Anomalies []AnomalousGame `json:"anomalies"`
	Points    []GamePoint     `json:"points"`
}

// Forecast is a next-season scoring prediction.
type Forecast struct {
	Player          string  `json:"player"`
	BaseSeason      string  `json:"base_season"`
	BasePoints      float64 `json:"base_points"`
	ForecastSeason  string  `json:"forecast_season"`
	PredictedPoints float64 `json:"predicted_points"`
}

// StatComparison is one row of the matchup comparison table.
type StatComparison struct {
	Feature string  `json:"feature"`
	Home    float64 `json:"home"`
	Away    float64 `json:"away"`
	Diff    float64 `json:"diff"`
}

// MatchupPrediction is the predicted winner of a home/away pairing.
type MatchupPrediction struct {
	Home               string           `json:"home"`
	Away               string           `json:"away"`
	Winner             string           `json:"winner"`
	Confidence         float64          `json:"confidence"`
	HomeWinProbability float64          `json:"home_win_probability"`
	AwayWinProbability float64          `json:"away_win_probability"`
	Comparison         []StatComparison `json:"comparison"`
}

// TeamList feeds the matchup team pickers.
type TeamList struct {
	Teams []string `json:"teams"`
}
