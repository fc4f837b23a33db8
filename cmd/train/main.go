// Command train fits the win predictor on the team snapshot, stores the
// classifier, scaler and report, and prints the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/nbai/internal/adapters/artifact"
	app "github.com/okian/nbai/internal/app"
	"github.com/okian/nbai/internal/config"
	"github.com/okian/nbai/internal/domain/training"
	"github.com/okian/nbai/pkg/logger"
)

func main() {
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := run(ctx)
	if err != nil {
		logger.Get().Error(ctx, "training failed", logger.Error(err))
		os.Exit(1)
	}
	if err := writeReport(os.Stdout, os.Stderr, rep); err != nil {
		logger.Get().Error(ctx, "failed to print report", logger.Error(err))
		os.Exit(1)
	}
}

// writeReport prints the human-readable classification table to summary and
// the full JSON report to out.
func writeReport(out, summary io.Writer, rep *artifact.Report) error {
	if _, err := fmt.Fprintf(summary, "run %s  params %s\ncv accuracy %.4f  test accuracy %.4f\n\n%s",
		rep.RunID, training.Describe(rep.Params), rep.CVAccuracy, rep.TestAccuracy, rep.Report); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func run(ctx context.Context) (*artifact.Report, error) {
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
	svc := app.FromConfig(cfg, store)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	defer svc.Stop()

	return svc.Train(ctx)
}
