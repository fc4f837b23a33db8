// Command gen-data writes a synthetic league as raw CSV shards, or
// smoke-checks a running API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/nbai/internal/config"
	"github.com/okian/nbai/internal/synthetic"
	"github.com/okian/nbai/pkg/logger"
)

const defaultTimeout = 30 * time.Second

func main() {
	def := synthetic.DefaultConfig()
	var (
		seasons = flag.Int("seasons", def.Seasons, "Number of seasons")
		first   = flag.Int("first", def.FirstSeason, "Start year of the first season")
		teams   = flag.Int("teams", def.Teams, "Number of teams")
		players = flag.Int("players", def.PlayersPerTeam, "Players per team")
		games   = flag.Int("games", def.GamesPerSeason, "Regular-season rounds per season")
		seed    = flag.Int64("seed", def.Seed, "Random seed")
		noise   = flag.Bool("noise", true, "Add duplicate and zero-minute rows")
		smoke   = flag.String("smoke", "", "Base URL of a running API to smoke-check")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP timeout for smoke checks")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		synthetic.ShowHelp()
		return
	}
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := logger.Get()

	if *smoke != "" {
		rep, err := synthetic.Smoke(ctx, *smoke, *timeout)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
		if err != nil {
			log.Error(ctx, "smoke check failed", logger.Error(err))
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}
	league, err := synthetic.Generate(ctx, synthetic.Config{
		FirstSeason:    *first,
		Seasons:        *seasons,
		Teams:          *teams,
		PlayersPerTeam: *players,
		GamesPerSeason: *games,
		PlayoffTeams:   min(def.PlayoffTeams, *teams-*teams%2),
		PlayoffGames:   def.PlayoffGames,
		Seed:           *seed,
	})
	if err != nil {
		log.Error(ctx, "failed to generate league", logger.Error(err))
		os.Exit(1)
	}
	layout := synthetic.Layout{
		PlayerRegular: cfg.PlayerRegularShards,
		PlayerPlayoff: cfg.PlayerPlayoffShards,
		TeamRegular:   cfg.TeamRegularShards,
		TeamPlayoff:   cfg.TeamPlayoffShards,
		Noise:         *noise,
	}
	if err := synthetic.Write(ctx, cfg.DataDir, league, layout); err != nil {
		log.Error(ctx, "failed to write shards", logger.Error(err))
		os.Exit(1)
	}
}
