package domain

import (
	"encoding/json"
	"time"
)

// CrawlTimestampFormat is the fixed serialization format for crawl
// timestamps: ISO-8601 with a Z suffix, always UTC.
const CrawlTimestampFormat = "2006-01-02T15:04:05.000000Z"

// FormatCrawlTimestamp renders t in the canonical crawl timestamp format.
func FormatCrawlTimestamp(t time.Time) string {
	return t.UTC().Format(CrawlTimestampFormat)
}

// Enrichment holds the derived per-listing signals computed from the batch
// context at crawl time.
type Enrichment struct {
	SuspiciousKeywords      []string `json:"suspicious_keywords"`
	SuspiciousKeywordsCount int      `json:"suspicious_keywords_count"`
	RiskScore               int      `json:"risk_score"`
	RelativePriceIndex      float64  `json:"relative_price_index"`
	SellerItemsToday        int      `json:"seller_items_today"`
	DescriptionLength       int      `json:"description_length"`
	HasImages               bool     `json:"has_images"`
	ImageCount              int      `json:"image_count"`
}

// EnrichedListing is a Listing plus the computed enrichment record. It
// serializes as a single flat JSON object: every original source field,
// unchanged, with crawl_timestamp, relative_price_index, and enrichment
// added on top.
type EnrichedListing struct {
	Listing
	CrawlTimestamp     string
	RelativePriceIndex float64
	Enrichment         Enrichment
}

func (e EnrichedListing) MarshalJSON() ([]byte, error) {
	fields, err := e.Listing.fields()
	if err != nil {
		return nil, err
	}

	for key, v := range map[string]any{
		"crawl_timestamp":      e.CrawlTimestamp,
		"relative_price_index": e.RelativePriceIndex,
		"enrichment":           e.Enrichment,
	} {
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[key] = enc
	}
	return json.Marshal(fields)
}
