package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvalverde/motowatch/internal/domain"
)

func item(price float64, risk int) domain.EnrichedListing {
	return domain.EnrichedListing{
		Listing:    domain.Listing{Price: domain.Price{Amount: price}},
		Enrichment: domain.Enrichment{RiskScore: risk},
	}
}

func TestComputePriceStats(t *testing.T) {
	items := []domain.EnrichedListing{
		item(100, 0),
		item(200, 0),
		item(300, 0),
		item(400, 0),
		item(0, 0), // no usable price, excluded from price stats
	}

	s := Compute(items, 70, 40, false)

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 4, s.Prices.Count)
	assert.Equal(t, 100.0, s.Prices.Min)
	assert.Equal(t, 400.0, s.Prices.Max)
	assert.Equal(t, 250.0, s.Prices.Mean)
	assert.Equal(t, 250.0, s.Prices.Median)
	assert.InDelta(t, 129.1, s.Prices.Stdev, 0.05)
}

func TestComputeMedianOddCount(t *testing.T) {
	s := Compute([]domain.EnrichedListing{
		item(300, 0), item(100, 0), item(200, 0),
	}, 70, 40, false)

	assert.Equal(t, 200.0, s.Prices.Median)
}

func TestComputeRiskBuckets(t *testing.T) {
	items := []domain.EnrichedListing{
		item(100, 85),
		item(100, 70), // threshold itself lands in the high bucket
		item(100, 55),
		item(100, 40),
		item(100, 10),
	}

	s := Compute(items, 70, 40, false)

	assert.Equal(t, 10, s.Risk.Min)
	assert.Equal(t, 85, s.Risk.Max)
	assert.Equal(t, 52.0, s.Risk.Mean)
	assert.Equal(t, 2, s.Risk.High)
	assert.Equal(t, 2, s.Risk.Medium)
	assert.Equal(t, 1, s.Risk.Low)
}

func TestComputeEmptyBatch(t *testing.T) {
	s := Compute(nil, 70, 40, true)

	assert.Equal(t, 0, s.Count)
	assert.True(t, s.Truncated)
	assert.Equal(t, 0, s.Prices.Count)
}

func TestPrintRendersSections(t *testing.T) {
	items := []domain.EnrichedListing{
		item(100, 80),
		item(300, 20),
	}
	s := Compute(items, 70, 40, true)

	var buf bytes.Buffer
	Print(&buf, s, 70, 40)
	out := buf.String()

	require.Contains(t, out, "DATASET STATISTICS")
	assert.Contains(t, out, "NOTE: fetch was truncated")
	assert.Contains(t, out, "New listings: 2")
	assert.Contains(t, out, "Min: 100.00€ | Max: 300.00€ | Mean: 200.00€")
	assert.Contains(t, out, "HIGH   (>=70): 1")
	assert.Contains(t, out, "MEDIUM (40-69): 0")
	assert.Contains(t, out, "LOW    (<40): 1")
}

func TestPrintOmitsPricesWhenNoneValid(t *testing.T) {
	s := Compute([]domain.EnrichedListing{item(0, 15)}, 70, 40, false)

	var buf bytes.Buffer
	Print(&buf, s, 70, 40)
	out := buf.String()

	assert.NotContains(t, out, "Prices:")
	assert.Contains(t, out, "Risk scores:")
}
