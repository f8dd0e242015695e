package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/dvalverde/motowatch/internal/blob/s3"
	"github.com/dvalverde/motowatch/internal/config"
	"github.com/dvalverde/motowatch/internal/domain"
	"github.com/dvalverde/motowatch/internal/notify"
	"github.com/dvalverde/motowatch/internal/pipeline"
	"github.com/dvalverde/motowatch/internal/platform/wallapop"
	"github.com/dvalverde/motowatch/internal/store/jsonl"
)

// Dependencies holds the wired collaborators for a run. Notifier and
// Archiver are nil when their features are disabled in configuration.
type Dependencies struct {
	Runner   *pipeline.Runner
	Notifier *notify.Notifier
	Archiver *s3blob.Archiver
}

// Wire constructs every collaborator from configuration. It fails fast on
// anything that cannot possibly work (bad base URL, unreachable S3 when
// archival is enabled) so mode loops never spin on broken plumbing.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	client, err := wallapop.New(wallapop.Config{
		BaseURL:   cfg.Wallapop.ApiURL,
		PageSize:  cfg.Wallapop.PageSize,
		PageDelay: cfg.Wallapop.PageDelay.Duration,
		Timeout:   cfg.Wallapop.Timeout.Duration,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("app: wallapop client: %w", err)
	}

	fetcher := &searchFetcher{
		client: client,
		req: wallapop.SearchRequest{
			Keywords:   cfg.Search.Keywords,
			CategoryID: cfg.Search.CategoryID,
			Latitude:   cfg.Search.Latitude,
			Longitude:  cfg.Search.Longitude,
		},
	}

	store := jsonl.New(cfg.Store.Dir, cfg.Store.FilePrefix, logger)
	rules := pipeline.DefaultRuleset()
	noise := pipeline.NewNoiseFilter(rules.Noise)
	enricher := pipeline.NewEnricher(cfg.Search.Latitude, cfg.Search.Longitude, rules)
	runner := pipeline.NewRunner(fetcher, store, noise, enricher, logger)

	deps := &Dependencies{Runner: runner}

	if senders := buildSenders(cfg); len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("app: s3 client: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			return nil, fmt.Errorf("app: s3 health check: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client),
			s3blob.NewReader(s3Client),
			store,
			cfg.S3.ArchiveAfterDays,
			logger,
		)
	}

	return deps, nil
}

func buildSenders(cfg *config.Config) []notify.Sender {
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	return senders
}

// searchFetcher adapts the wallapop client to the pipeline's Fetcher
// contract with a fixed search request.
type searchFetcher struct {
	client *wallapop.Client
	req    wallapop.SearchRequest
}

func (f *searchFetcher) FetchAll(ctx context.Context) ([]domain.Listing, int, bool) {
	res := f.client.FetchAll(ctx, f.req)
	return res.Items, res.Pages, res.Truncated
}
