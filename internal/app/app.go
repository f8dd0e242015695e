// Package app provides the top-level application lifecycle: it wires the
// fetcher, pipeline, store, reporter, notifier, and archiver together and
// runs them in the configured mode.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvalverde/motowatch/internal/config"
	"github.com/dvalverde/motowatch/internal/report"
)

// App is the root application object.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// New creates an App from the given configuration and logger. Human-readable
// statistics go to stdout, separate from the structured log stream.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
		out:    os.Stdout,
	}
}

// Run wires dependencies and executes the configured mode: a single batch
// run ("once") or a ticker loop of batch runs ("poll"). It blocks until done
// or until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	deps, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}

	switch strings.ToLower(a.cfg.Mode) {
	case "once":
		return a.runOnce(ctx, deps)
	case "poll":
		return a.pollLoop(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// runOnce executes one complete batch: pipeline, console statistics,
// notifications, and the optional archive pass. Only pipeline failure (in
// practice: the daily store refusing writes) fails the run; the side
// channels log and carry on.
func (a *App) runOnce(ctx context.Context, deps *Dependencies) error {
	runID := uuid.NewString()
	logger := a.logger.With(slog.String("run_id", runID))

	logger.InfoContext(ctx, "starting batch run",
		slog.String("keywords", a.cfg.Search.Keywords),
		slog.String("category_id", a.cfg.Search.CategoryID),
	)

	summary, err := deps.Runner.Run(ctx)
	if err != nil {
		return err
	}

	if summary.Appended > 0 {
		stats := report.Compute(summary.Enriched,
			a.cfg.Report.HighRiskThreshold, a.cfg.Report.MediumRiskThreshold, summary.Truncated)
		report.Print(a.out, stats, a.cfg.Report.HighRiskThreshold, a.cfg.Report.MediumRiskThreshold)
	} else {
		fmt.Fprintln(a.out, "No new listings to store.")
	}

	a.sendNotifications(ctx, deps, summary, logger)

	if deps.Archiver != nil {
		if _, err := deps.Archiver.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "archive pass failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// pollLoop wraps runOnce in a ticker so the poller can self-schedule.
// Runs stay strictly sequential: a tick that fires while a run is still in
// flight is simply the next iteration of this loop. A failed run is logged
// and the loop keeps going; operators watch the run_complete stream.
func (a *App) pollLoop(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.PollInterval.Duration
	a.logger.InfoContext(ctx, "starting poll loop",
		slog.Duration("interval", interval),
	)

	if err := a.runOnce(ctx, deps); err != nil {
		a.logger.ErrorContext(ctx, "batch run failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("poll loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.runOnce(ctx, deps); err != nil {
				a.logger.ErrorContext(ctx, "batch run failed", slog.String("error", err.Error()))
			}
		}
	}
}
