package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dvalverde/motowatch/internal/notify"
	"github.com/dvalverde/motowatch/internal/pipeline"
)

// sendNotifications pushes alerts after a batch run: one per stored listing
// at or above the configured risk floor, one if pagination was cut short,
// and a completion event. Delivery failures are logged, never fatal.
func (a *App) sendNotifications(ctx context.Context, deps *Dependencies, summary pipeline.RunSummary, logger *slog.Logger) {
	if deps.Notifier == nil || !deps.Notifier.Enabled() {
		return
	}

	for _, item := range summary.Enriched {
		if item.Enrichment.RiskScore < a.cfg.Notify.MinRiskScore {
			continue
		}
		msg := fmt.Sprintf("%s\nrisk score: %d\nprice: %.2f %s\nkeywords: %v",
			item.Title, item.Enrichment.RiskScore, item.Price.Amount, item.Price.Currency,
			item.Enrichment.SuspiciousKeywords)
		if err := deps.Notifier.Notify(ctx, notify.EventHighRiskListing, "High-risk listing", msg); err != nil {
			logger.WarnContext(ctx, "high-risk notification failed",
				slog.String("listing_id", item.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if summary.Truncated {
		msg := fmt.Sprintf("run for %s stopped before exhausting results after %d pages", summary.Key, summary.Pages)
		if err := deps.Notifier.Notify(ctx, notify.EventRunTruncated, "Run truncated", msg); err != nil {
			logger.WarnContext(ctx, "truncation notification failed", slog.String("error", err.Error()))
		}
	}

	msg := fmt.Sprintf("fetched %d, appended %d to %s", summary.Fetched, summary.Appended, summary.Key)
	if err := deps.Notifier.Notify(ctx, notify.EventRunComplete, "Run complete", msg); err != nil {
		logger.WarnContext(ctx, "completion notification failed", slog.String("error", err.Error()))
	}
}
