package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dvalverde/motowatch/internal/domain"
)

// Risk score factor weights. Factors are additive and the total is clamped,
// so each contribution stays individually auditable.
const (
	scoreCriticalKeywords    = 30
	scoreGeneralKeywords     = 15
	scoreVeryCheap           = 40 // price < 0.4 x batch mean
	scoreCheap               = 20 // price < 0.6 x batch mean
	scoreConditionMismatch   = 20 // price < 0.7 x mean but described as like-new
	scoreShortDescription    = 10
	scoreDenseSeller         = 20
	scoreNoImages            = 5
	scoreAnchorCoordinates   = 10
	maxRiskScore             = 100
	shortDescriptionRunes    = 50
	denseSellerThreshold     = 3
	veryCheapRatio           = 0.4
	cheapRatio               = 0.6
	conditionMismatchRatio   = 0.7
)

// keywordHit records the first phrase that matched within one category.
type keywordHit struct {
	category KeywordCategory
	phrase   string
}

// Enricher computes the derived fields for a batch of listings. Price and
// seller factors are relative to the batch itself, so enrichment always runs
// over the whole post-filter batch in one call.
type Enricher struct {
	anchorLat string
	anchorLon string
	rules     Ruleset
	now       func() time.Time
}

// NewEnricher creates an Enricher. anchorLat/anchorLon are the search anchor
// coordinates; a listing located exactly there most likely means the seller
// never set a real location.
func NewEnricher(anchorLat, anchorLon string, rules Ruleset) *Enricher {
	return &Enricher{
		anchorLat: anchorLat,
		anchorLon: anchorLon,
		rules:     rules,
		now:       time.Now,
	}
}

// EnrichBatch returns an enriched copy of every listing. Inputs are not
// mutated. The statistical context (valid prices, seller densities) is
// computed from this batch only, never across runs.
func (e *Enricher) EnrichBatch(items []domain.Listing) []domain.EnrichedListing {
	prices := validPrices(items)
	sellerCounts := countBySeller(items)

	enriched := make([]domain.EnrichedListing, 0, len(items))
	for _, item := range items {
		enriched = append(enriched, e.enrich(item, prices, sellerCounts[item.UserID]))
	}
	return enriched
}

func (e *Enricher) enrich(item domain.Listing, prices []float64, sellerCount int) domain.EnrichedListing {
	rpi := RelativePriceIndex(item.Price.Amount, prices)

	textLower := strings.ToLower(item.Title + " " + item.Description)
	hits := e.detectKeywords(textLower)

	keywords := make([]string, 0, len(hits))
	for _, hit := range hits {
		keywords = append(keywords, hit.phrase)
	}
	sort.Strings(keywords)

	return domain.EnrichedListing{
		Listing:            item,
		CrawlTimestamp:     domain.FormatCrawlTimestamp(e.now()),
		RelativePriceIndex: rpi,
		Enrichment: domain.Enrichment{
			SuspiciousKeywords:      keywords,
			SuspiciousKeywordsCount: len(keywords),
			RiskScore:               e.riskScore(item, prices, sellerCount, hits),
			RelativePriceIndex:      rpi,
			SellerItemsToday:        sellerCount,
			DescriptionLength:       utf8.RuneCountInString(item.Description),
			HasImages:               len(item.Images) > 0,
			ImageCount:              len(item.Images),
		},
	}
}

// detectKeywords scans the lower-cased listing text against every category
// and records the first matching phrase per category.
func (e *Enricher) detectKeywords(textLower string) []keywordHit {
	var hits []keywordHit
	for _, cat := range e.rules.Categories {
		for _, phrase := range cat.Phrases {
			if strings.Contains(textLower, phrase) {
				hits = append(hits, keywordHit{category: cat, phrase: phrase})
				break
			}
		}
	}
	return hits
}

// riskScore computes the 0-100 composite score from additive factors.
func (e *Enricher) riskScore(item domain.Listing, prices []float64, sellerCount int, hits []keywordHit) int {
	score := 0

	critical, general := false, false
	for _, hit := range hits {
		switch hit.category.Severity {
		case SeverityCritical:
			critical = true
		case SeverityGeneral:
			general = true
		}
	}
	if critical {
		score += scoreCriticalKeywords
	}
	if general {
		score += scoreGeneralKeywords
	}

	if len(prices) > 0 && item.Price.Amount > 0 {
		avg := mean(prices)
		price := item.Price.Amount

		if price < avg*veryCheapRatio {
			score += scoreVeryCheap
		} else if price < avg*cheapRatio {
			score += scoreCheap
		}

		if price < avg*conditionMismatchRatio {
			descLower := strings.ToLower(item.Description)
			for _, phrase := range e.rules.ConditionPhrases {
				if strings.Contains(descLower, phrase) {
					score += scoreConditionMismatch
					break
				}
			}
		}
	}

	if utf8.RuneCountInString(item.Description) < shortDescriptionRunes {
		score += scoreShortDescription
	}

	if sellerCount > denseSellerThreshold {
		score += scoreDenseSeller
	}

	if len(item.Images) == 0 {
		score += scoreNoImages
	}

	if item.Location.Latitude == e.anchorLat && item.Location.Longitude == e.anchorLon {
		score += scoreAnchorCoordinates
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score
}

// RelativePriceIndex is the listing price divided by the mean of the batch's
// valid prices, rounded to two decimals. It degrades to 1.0 when the batch
// has no valid prices, the listing has no price, or the mean is zero.
func RelativePriceIndex(price float64, prices []float64) float64 {
	if len(prices) == 0 || price == 0 {
		return 1.0
	}
	avg := mean(prices)
	if avg == 0 {
		return 1.0
	}
	return math.Round(price/avg*100) / 100
}

// validPrices collects the batch's usable price amounts (present and > 0).
func validPrices(items []domain.Listing) []float64 {
	var prices []float64
	for _, item := range items {
		if item.Price.Amount > 0 {
			prices = append(prices, item.Price.Amount)
		}
	}
	return prices
}

// countBySeller maps seller id to the number of listings that seller has in
// the batch. Listings without a seller id are not counted.
func countBySeller(items []domain.Listing) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		if item.UserID != "" {
			counts[item.UserID]++
		}
	}
	return counts
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
