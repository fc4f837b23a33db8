// Package synthetic generates reproducible league data in the raw shard
// layout the ingest pipeline reads, and smoke-checks a running API.
package synthetic

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/okian/nbai/internal/domain/model"
	"github.com/okian/nbai/pkg/logger"
)

// Generation model constants.
const (
	basePoints        = 104.0
	strengthPoints    = 6.0
	homeAdvantage     = 3.0
	gameNoise         = 10.0
	strengthDrift     = 0.35
	teamChangeChance  = 0.08
	anomalyChance     = 0.015
	anomalyMultiplier = 2.2
	playerNoise       = 4.5
	minPlayerPoints   = 2.0
	daysBetweenRounds = 2
)

// Config controls the size and shape of a generated league.
type Config struct {
	FirstSeason    int   // start year of the first season
	Seasons        int   // number of seasons
	Teams          int   // number of teams, at most len(franchises)
	PlayersPerTeam int   // rostered players per team
	GamesPerSeason int   // regular-season rounds; every team plays once per round
	PlayoffTeams   int   // teams seeded into the playoffs
	PlayoffGames   int   // games per playoff pairing
	Seed           int64 // random seed; equal seeds produce equal leagues
}

// DefaultConfig returns a league small enough to ingest and train in seconds.
func DefaultConfig() Config {
	return Config{
		FirstSeason:    2015,
		Seasons:        7,
		Teams:          10,
		PlayersPerTeam: 6,
		GamesPerSeason: 40,
		PlayoffTeams:   4,
		PlayoffGames:   4,
		Seed:           42,
	}
}

// Validate checks the config bounds.
func (c Config) Validate() error {
	switch {
	case c.Seasons < 1:
		return fmt.Errorf("%w: seasons must be positive", ErrInvalidConfig)
	case c.Teams < 2 || c.Teams > len(franchises):
		return fmt.Errorf("%w: teams must be between 2 and %d", ErrInvalidConfig, len(franchises))
	case c.PlayersPerTeam < 1:
		return fmt.Errorf("%w: players per team must be positive", ErrInvalidConfig)
	case c.GamesPerSeason < 1:
		return fmt.Errorf("%w: games per season must be positive", ErrInvalidConfig)
	case c.PlayoffTeams < 0 || c.PlayoffTeams > c.Teams || c.PlayoffTeams%2 != 0:
		return fmt.Errorf("%w: playoff teams must be even and at most the team count", ErrInvalidConfig)
	}
	return nil
}

// League is a generated set of cleaned team and player rows.
type League struct {
	Seed    int64
	Teams   []model.TeamGame
	Players []model.PlayerGame
}

type franchise struct{ abbr, name string }

var franchises = []franchise{
	{"ATL", "Atlanta Hawks"}, {"BOS", "Boston Celtics"}, {"BKN", "Brooklyn Nets"},
	{"CHA", "Charlotte Hornets"}, {"CHI", "Chicago Bulls"}, {"CLE", "Cleveland Cavaliers"},
	{"DAL", "Dallas Mavericks"}, {"DEN", "Denver Nuggets"}, {"DET", "Detroit Pistons"},
	{"GSW", "Golden State Warriors"}, {"HOU", "Houston Rockets"}, {"IND", "Indiana Pacers"},
	{"LAC", "LA Clippers"}, {"LAL", "Los Angeles Lakers"}, {"MEM", "Memphis Grizzlies"},
	{"MIA", "Miami Heat"}, {"MIL", "Milwaukee Bucks"}, {"MIN", "Minnesota Timberwolves"},
	{"NOP", "New Orleans Pelicans"}, {"NYK", "New York Knicks"}, {"OKC", "Oklahoma City Thunder"},
	{"ORL", "Orlando Magic"}, {"PHI", "Philadelphia 76ers"}, {"PHX", "Phoenix Suns"},
	{"POR", "Portland Trail Blazers"}, {"SAC", "Sacramento Kings"}, {"SAS", "San Antonio Spurs"},
	{"TOR", "Toronto Raptors"}, {"UTA", "Utah Jazz"}, {"WAS", "Washington Wizards"},
}

var (
	firstNames = []string{"Marcus", "Andre", "Tyrese", "Jalen", "Darius", "Kevin", "Malik", "Jordan", "Isaiah", "Devin", "Cole", "Trey"}
	lastNames  = []string{"Walker", "Brooks", "Hayes", "Mitchell", "Porter", "Reed", "Coleman", "Bryant", "Greene", "Foster", "Hill", "Price", "Warren"}
	positions  = []string{"G", "F", "C", "G-F", "F-C"}
)

// DefaultPlayer is always generated, on the first team, with the longest career.
const DefaultPlayer = "LeBron James"

type player struct {
	id, name, position string
	team               int
	peakPoints         float64
	peakSeason         float64
	spread             float64
	first, last        int // season indexes, inclusive
}

type generator struct {
	cfg      Config
	rng      *rand.Rand
	strength []float64
	players  []*player
	gameSeq  int
	league   *League
}

// Generate builds a league. The same config always yields the same league.
func Generate(ctx context.Context, cfg Config) (*League, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &generator{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // reproducible data, not secrets
		strength: make([]float64, cfg.Teams),
		league:   &League{Seed: cfg.Seed},
	}
	for i := range g.strength {
		g.strength[i] = g.rng.NormFloat64()
	}
	g.roster()

	for s := 0; s < cfg.Seasons; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wins := g.regularSeason(s)
		g.playoffs(s, wins)
		g.offseason()
	}

	logger.Get().Named("synthetic").Info(ctx, "league generated",
		logger.Int("seasons", cfg.Seasons),
		logger.Int("teams", cfg.Teams),
		logger.Int("team_rows", len(g.league.Teams)),
		logger.Int("player_rows", len(g.league.Players)))
	return g.league, nil
}

func (g *generator) roster() {
	seen := map[string]bool{DefaultPlayer: true}
	for t := 0; t < g.cfg.Teams; t++ {
		for i := 0; i < g.cfg.PlayersPerTeam; i++ {
			p := &player{
				id:         fmt.Sprintf("%d", 200000+len(g.players)),
				position:   positions[g.rng.Intn(len(positions))],
				team:       t,
				peakPoints: 8 + 14*g.rng.Float64(),
				spread:     2.5 + 3*g.rng.Float64(),
			}
			if t == 0 && i == 0 {
				p.name = DefaultPlayer
				p.peakPoints = 27
				p.spread = float64(g.cfg.Seasons)
				p.first, p.last = 0, g.cfg.Seasons-1
			} else {
				p.name = g.uniqueName(seen)
				p.first = g.rng.Intn(g.cfg.Seasons)
				p.last = p.first + 2 + g.rng.Intn(g.cfg.Seasons)
			}
			p.peakSeason = float64(p.first) + float64(p.last-p.first)/2 + g.rng.NormFloat64()
			g.players = append(g.players, p)
		}
	}
}

func (g *generator) uniqueName(seen map[string]bool) string {
	for n := 0; ; n++ {
		name := firstNames[g.rng.Intn(len(firstNames))] + " " + lastNames[g.rng.Intn(len(lastNames))]
		if n > 0 {
			name = fmt.Sprintf("%s %s", name, roman(n+1))
		}
		if !seen[name] {
			seen[name] = true
			return name
		}
	}
}

func roman(n int) string {
	numerals := []string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}
	if n <= len(numerals) {
		return numerals[n-1]
	}
	return fmt.Sprintf("%d", n)
}

func (g *generator) offseason() {
	for i := range g.strength {
		g.strength[i] += strengthDrift * g.rng.NormFloat64()
	}
	for _, p := range g.players {
		if p.name != DefaultPlayer && g.rng.Float64() < teamChangeChance {
			p.team = g.rng.Intn(g.cfg.Teams)
		}
	}
}

func seasonLabel(start int) string {
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

func (g *generator) regularSeason(s int) []int {
	year := g.cfg.FirstSeason + s
	day := time.Date(year, time.October, 25, 0, 0, 0, 0, time.UTC)
	wins := make([]int, g.cfg.Teams)
	order := make([]int, g.cfg.Teams)
	for i := range order {
		order[i] = i
	}
	for r := 0; r < g.cfg.GamesPerSeason; r++ {
		g.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		date := day.AddDate(0, 0, r*daysBetweenRounds)
		for i := 0; i+1 < len(order); i += 2 {
			home, away := order[i], order[i+1]
			if g.game(s, date, home, away, model.GameTypeRegular) {
				wins[home]++
			} else {
				wins[away]++
			}
		}
	}
	return wins
}

func (g *generator) playoffs(s int, wins []int) {
	if g.cfg.PlayoffTeams == 0 {
		return
	}
	seeds := make([]int, g.cfg.Teams)
	for i := range seeds {
		seeds[i] = i
	}
	sort.SliceStable(seeds, func(i, j int) bool { return wins[seeds[i]] > wins[seeds[j]] })
	seeds = seeds[:g.cfg.PlayoffTeams]

	year := g.cfg.FirstSeason + s
	start := time.Date(year+1, time.April, 18, 0, 0, 0, 0, time.UTC)
	for k := 0; k < g.cfg.PlayoffGames; k++ {
		date := start.AddDate(0, 0, k*daysBetweenRounds)
		for i := 0; i < len(seeds)/2; i++ {
			top, bottom := seeds[i], seeds[len(seeds)-1-i]
			if k%2 == 0 {
				g.game(s, date, top, bottom, model.GameTypePlayoff)
			} else {
				g.game(s, date, bottom, top, model.GameTypePlayoff)
			}
		}
	}
}

// game plays one game and reports whether the home team won.
func (g *generator) game(s int, date time.Time, home, away int, gameType string) bool {
	g.gameSeq++
	prefix := "002"
	if gameType == model.GameTypePlayoff {
		prefix = "004"
	}
	year := g.cfg.FirstSeason + s
	gameID := fmt.Sprintf("%s%02d%05d", prefix, year%100, g.gameSeq)

	hp := g.points(home, away) + homeAdvantage
	ap := g.points(away, home)
	if math.Round(hp) == math.Round(ap) {
		hp++
	}
	homeWon := math.Round(hp) > math.Round(ap)

	hRow := g.teamRow(s, date, gameID, home, away, true, hp, ap, homeWon, gameType)
	aRow := g.teamRow(s, date, gameID, away, home, false, ap, hp, !homeWon, gameType)
	g.league.Teams = append(g.league.Teams, hRow, aRow)

	g.box(s, date, gameID, home, hRow, gameType)
	g.box(s, date, gameID, away, aRow, gameType)
	return homeWon
}

func (g *generator) points(team, opp int) float64 {
	return basePoints + strengthPoints*g.strength[team] - strengthPoints/2*g.strength[opp] + gameNoise*g.rng.NormFloat64()
}

func (g *generator) teamRow(s int, date time.Time, gameID string, team, opp int, home bool, pts, oppPts float64, won bool, gameType string) model.TeamGame {
	f, o := franchises[team], franchises[opp]
	matchup := f.abbr + " @ " + o.abbr
	if home {
		matchup = f.abbr + " vs. " + o.abbr
	}
	wl := "L"
	if won {
		wl = "W"
	}
	str := g.strength[team]
	row := model.TeamGame{
		SeasonYear:       g.cfg.FirstSeason + s,
		TeamID:           fmt.Sprintf("16106127%02d", team+37),
		TeamAbbreviation: f.abbr,
		TeamName:         f.name,
		GameID:           gameID,
		GameDate:         date,
		DateValid:        true,
		Matchup:          matchup,
		WL:               wl,
		GameType:         gameType,
		Min:              240,
	}
	row.Stats[model.StatPTS] = math.Round(pts)
	row.Stats[model.StatAST] = math.Round(0.22*pts + 2*g.rng.NormFloat64())
	row.Stats[model.StatREB] = math.Round(43 + 2*str + 4*g.rng.NormFloat64())
	row.Stats[model.StatSTL] = math.Round(7.5 + 2*g.rng.NormFloat64())
	row.Stats[model.StatBLK] = math.Round(5 + 2*g.rng.NormFloat64())
	row.Stats[model.StatTOV] = math.Round(14 - str + 3*g.rng.NormFloat64())
	row.Stats[model.StatFGPct] = round3(0.46 + 0.012*str + 0.03*g.rng.NormFloat64())
	row.Stats[model.StatFG3Pct] = round3(0.355 + 0.01*str + 0.05*g.rng.NormFloat64())
	row.Stats[model.StatFTPct] = round3(0.77 + 0.05*g.rng.NormFloat64())
	row.Stats[model.StatPlusMinus] = math.Round(pts) - math.Round(oppPts)
	for i, v := range row.Stats {
		if i != model.StatPlusMinus && v < 0 {
			row.Stats[i] = 0
		}
	}
	return row
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func (g *generator) box(s int, date time.Time, gameID string, team int, row model.TeamGame, gameType string) {
	for _, p := range g.players {
		if p.team != team || s < p.first || s > p.last {
			continue
		}
		d := (float64(s) - p.peakSeason) / p.spread
		mean := math.Max(minPlayerPoints, p.peakPoints*(1-d*d))
		pts := math.Max(0, math.Round(mean+playerNoise*g.rng.NormFloat64()))
		ast := math.Max(0, math.Round(mean/4+1.5*g.rng.NormFloat64()))
		if g.rng.Float64() < anomalyChance {
			pts = math.Round(pts*anomalyMultiplier + 6)
			ast += 7
		}
		fg3a := math.Max(0, math.Round(3+2*g.rng.NormFloat64()))
		g.league.Players = append(g.league.Players, model.PlayerGame{
			SeasonYear: seasonLabel(g.cfg.FirstSeason + s),
			GameDate:   date,
			DateValid:  true,
			GameID:     gameID,
			TeamID:     row.TeamID,
			TeamName:   row.TeamName,
			PlayerID:   p.id,
			PlayerName: p.name,
			Position:   p.position,
			GameType:   gameType,
			Min:        math.Round((18+mean*0.6+3*g.rng.NormFloat64())*60) / 60,
			Pts:        pts,
			Ast:        ast,
			Reb:        math.Max(0, math.Round(5+2.5*g.rng.NormFloat64())),
			FGPct:      round3(clamp01(0.45 + 0.08*g.rng.NormFloat64())),
			FG3A:       fg3a,
			FG3Pct:     round3(clamp01(0.35 + 0.12*g.rng.NormFloat64())),
			FTPct:      round3(clamp01(0.78 + 0.1*g.rng.NormFloat64())),
			Tov:        math.Max(0, math.Round(1.8+1.2*g.rng.NormFloat64())),
			PlusMinus:  math.Round(row.Stats[model.StatPlusMinus]/2 + 4*g.rng.NormFloat64()),
		})
	}
}

func clamp01(v float64) float64 { return math.Min(1, math.Max(0, v)) }
