// Package wallapop is the REST client for the Wallapop search API. It fetches
// today's listings for a query, newest first, page by page.
package wallapop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dvalverde/motowatch/internal/domain"
)

// Config holds the client parameters. Zero fields fall back to the upstream
// defaults the original deployment used.
type Config struct {
	// BaseURL is the full search endpoint, e.g.
	// "https://api.wallapop.com/api/v3/search".
	BaseURL string

	// PageSize is the limit parameter sent per page.
	PageSize int

	// PageDelay is the pause between consecutive page requests.
	PageDelay time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

const (
	defaultPageSize  = 50
	defaultPageDelay = 500 * time.Millisecond
	defaultTimeout   = 15 * time.Second
)

// Client performs paginated searches against the Wallapop API.
type Client struct {
	baseURL    string
	host       string
	pageSize   int
	pageDelay  time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a search client. The Host header is derived from the base URL;
// it is sent explicitly, together with X-DeviceOS, because the upstream
// rejects requests without these two client-identifying headers.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("wallapop: parse base url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("wallapop: base url %q has no host", cfg.BaseURL)
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = defaultPageDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		host:      u.Host,
		pageSize:  cfg.PageSize,
		pageDelay: cfg.PageDelay,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(slog.String("component", "wallapop")),
	}, nil
}

// Search fetches a single page of results at the given offset. A response
// whose envelope lacks the item path yields an empty slice, not an error.
func (c *Client) Search(ctx context.Context, req SearchRequest, offset int) ([]domain.Listing, error) {
	params := url.Values{}
	params.Set("source", "search_box")
	params.Set("keywords", req.Keywords)
	params.Set("category_id", req.CategoryID)
	params.Set("latitude", req.Latitude)
	params.Set("longitude", req.Longitude)
	params.Set("time_filter", "today")
	params.Set("order_by", "newest")
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(c.pageSize))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("wallapop: create request: %w", err)
	}
	httpReq.Host = c.host
	httpReq.Header.Set("X-DeviceOS", "0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("wallapop: search offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("wallapop: search offset %d: unexpected status %d: %s",
			offset, resp.StatusCode, string(body))
	}

	var envelope searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("wallapop: decode search response: %w", err)
	}

	return envelope.Data.Section.Payload.Items, nil
}

// FetchAll pages through the full result set for the query. Pagination stops
// on an empty page, on a short page (fewer items than the page size), or on
// the first failed page. Failures do not surface as errors: the result keeps
// whatever was accumulated and marks itself Truncated, so the caller can tell
// a complete set from a cut-off one. There is no retry.
func (c *Client) FetchAll(ctx context.Context, req SearchRequest) SearchResult {
	var result SearchResult
	offset := 0

	for {
		items, err := c.Search(ctx, req, offset)
		if err != nil {
			c.logger.WarnContext(ctx, "page fetch failed, keeping partial results",
				slog.Int("offset", offset),
				slog.Int("accumulated", len(result.Items)),
				slog.String("error", err.Error()),
			)
			result.Truncated = true
			return result
		}

		if len(items) == 0 {
			return result
		}

		result.Items = append(result.Items, items...)
		result.Pages++

		if len(items) < c.pageSize {
			return result
		}

		offset += c.pageSize

		select {
		case <-ctx.Done():
			result.Truncated = true
			return result
		case <-time.After(c.pageDelay):
		}
	}
}
