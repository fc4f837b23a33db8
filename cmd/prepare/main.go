// Command prepare cleans the raw box-score shards into SQLite snapshots.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	app "github.com/okian/nbai/internal/app"
	"github.com/okian/nbai/internal/config"
	"github.com/okian/nbai/internal/domain/ingest"
	"github.com/okian/nbai/pkg/logger"
)

func main() {
	var (
		force   = flag.Bool("force", false, "Rebuild snapshots that already exist")
		players = flag.Bool("players", true, "Run the player stage")
		teams   = flag.Bool("teams", true, "Run the team stage")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reports, err := run(ctx, *force, *players, *teams)
	if err != nil {
		logger.Get().Error(ctx, "prepare failed", logger.Error(err))
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(reports)
}

// run executes the selected stages in order and returns their reports.
func run(ctx context.Context, force, players, teams bool) ([]ingest.Report, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	p := app.NewPipeline(cfg, store, force)
	var reports []ingest.Report
	if players {
		rep, err := p.PreparePlayers(ctx)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	if teams {
		rep, err := p.PrepareTeams(ctx)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
