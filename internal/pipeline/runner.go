// Package pipeline implements the acquisition-and-enrichment batch: fetch,
// dedup, noise filtering, scoring, and the run orchestration that ties them
// to the daily store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dvalverde/motowatch/internal/domain"
)

// Fetcher acquires one batch of raw listings. truncated reports that the
// result set was cut short by a failed page, so the batch holds partial
// results for the query.
type Fetcher interface {
	FetchAll(ctx context.Context) (items []domain.Listing, pages int, truncated bool)
}

// Store is the daily append-only dataset the runner reads seen ids from and
// appends enriched listings to.
type Store interface {
	// Key derives the dataset key for the UTC day containing t.
	Key(t time.Time) string
	// LoadExistingIDs returns the ids already recorded under key. It never
	// fails: unreadable data degrades to an empty set.
	LoadExistingIDs(key string) map[string]struct{}
	// Append durably appends the enriched listings under key.
	Append(key string, items []domain.EnrichedListing) error
}

// RunSummary reports what one batch run did at each stage.
type RunSummary struct {
	Key           string
	Fetched       int
	Pages         int
	Truncated     bool
	InternalDupes int
	NoiseRemoved  int
	AlreadySeen   int
	Appended      int
	Enriched      []domain.EnrichedListing
}

// Runner executes the sequential batch pipeline: load existing ids, fetch,
// intra-batch dedup, noise filter, persistent dedup, enrich, append.
type Runner struct {
	fetcher  Fetcher
	store    Store
	noise    *NoiseFilter
	enricher *Enricher
	now      func() time.Time
	logger   *slog.Logger
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(fetcher Fetcher, store Store, noise *NoiseFilter, enricher *Enricher, logger *slog.Logger) *Runner {
	return &Runner{
		fetcher:  fetcher,
		store:    store,
		noise:    noise,
		enricher: enricher,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "pipeline")),
	}
}

// Run executes one batch. Fetch faults and corrupt stored records are
// absorbed upstream (partial batch, skipped lines); the only failure that
// aborts the run is being unable to append to the daily store.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	key := r.store.Key(r.now())
	existing := r.store.LoadExistingIDs(key)
	r.logger.InfoContext(ctx, "loaded existing ids for the day",
		slog.String("key", key),
		slog.Int("count", len(existing)),
	)

	items, pages, truncated := r.fetcher.FetchAll(ctx)
	if truncated {
		r.logger.WarnContext(ctx, "fetch truncated, continuing with partial batch",
			slog.Int("fetched", len(items)),
			slog.Int("pages", pages),
		)
	}

	unique, internalDupes := DropInternalDuplicates(items)
	kept, noiseRemoved := r.noise.Filter(unique)
	fresh, alreadySeen := DropSeen(kept, existing)
	enriched := r.enricher.EnrichBatch(fresh)

	summary := RunSummary{
		Key:           key,
		Fetched:       len(items),
		Pages:         pages,
		Truncated:     truncated,
		InternalDupes: internalDupes,
		NoiseRemoved:  noiseRemoved,
		AlreadySeen:   alreadySeen,
		Appended:      len(enriched),
		Enriched:      enriched,
	}

	if err := r.store.Append(key, enriched); err != nil {
		return summary, fmt.Errorf("pipeline: append to daily store %s: %w", key, err)
	}

	r.logger.InfoContext(ctx, "batch run complete",
		slog.String("key", key),
		slog.Int("fetched", summary.Fetched),
		slog.Int("internal_dupes", summary.InternalDupes),
		slog.Int("noise_removed", summary.NoiseRemoved),
		slog.Int("already_seen", summary.AlreadySeen),
		slog.Int("appended", summary.Appended),
		slog.Bool("truncated", summary.Truncated),
	)
	return summary, nil
}
