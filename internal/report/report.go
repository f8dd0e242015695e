// Package report computes and prints aggregate statistics for a batch of
// enriched listings. It is a pure side-effect on stdout and never influences
// what gets stored.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/dvalverde/motowatch/internal/domain"
)

// PriceStats summarizes the valid prices in a batch.
type PriceStats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Stdev  float64
}

// RiskStats summarizes the risk scores in a batch, bucketed by the
// configured thresholds.
type RiskStats struct {
	Min    int
	Max    int
	Mean   float64
	High   int
	Medium int
	Low    int
}

// Stats is the aggregate view of one enriched batch.
type Stats struct {
	Count     int
	Truncated bool
	Prices    PriceStats
	Risk      RiskStats
}

// Compute derives Stats from a batch. highThreshold and mediumThreshold
// bound the risk buckets: high is score >= highThreshold, medium is
// [mediumThreshold, highThreshold), low is the rest.
func Compute(items []domain.EnrichedListing, highThreshold, mediumThreshold int, truncated bool) Stats {
	stats := Stats{Count: len(items), Truncated: truncated}

	var prices []float64
	for _, item := range items {
		if item.Price.Amount > 0 {
			prices = append(prices, item.Price.Amount)
		}
	}
	if len(prices) > 0 {
		sorted := append([]float64(nil), prices...)
		sort.Float64s(sorted)
		stats.Prices = PriceStats{
			Count:  len(sorted),
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
			Mean:   mean(sorted),
			Median: median(sorted),
			Stdev:  stdev(sorted),
		}
	}

	if len(items) > 0 {
		risk := RiskStats{Min: items[0].Enrichment.RiskScore, Max: items[0].Enrichment.RiskScore}
		sum := 0
		for _, item := range items {
			score := item.Enrichment.RiskScore
			sum += score
			if score < risk.Min {
				risk.Min = score
			}
			if score > risk.Max {
				risk.Max = score
			}
			switch {
			case score >= highThreshold:
				risk.High++
			case score >= mediumThreshold:
				risk.Medium++
			default:
				risk.Low++
			}
		}
		risk.Mean = float64(sum) / float64(len(items))
		stats.Risk = risk
	}

	return stats
}

// Print renders the statistics block in the operator-facing console format.
func Print(w io.Writer, s Stats, highThreshold, mediumThreshold int) {
	rule := "======================================================================"
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "DATASET STATISTICS")
	fmt.Fprintln(w, rule)

	if s.Truncated {
		fmt.Fprintln(w, "NOTE: fetch was truncated; this batch is incomplete")
	}
	fmt.Fprintf(w, "New listings: %d\n", s.Count)

	if s.Prices.Count > 0 {
		fmt.Fprintln(w, "Prices:")
		fmt.Fprintf(w, "   Min: %.2f€ | Max: %.2f€ | Mean: %.2f€\n",
			s.Prices.Min, s.Prices.Max, s.Prices.Mean)
		if s.Prices.Count > 1 {
			fmt.Fprintf(w, "   Median: %.2f€ | Stdev: %.2f€\n",
				s.Prices.Median, s.Prices.Stdev)
		}
	}

	if s.Count > 0 {
		fmt.Fprintln(w, "Risk scores:")
		fmt.Fprintf(w, "   Min: %d | Max: %d | Mean: %.1f\n",
			s.Risk.Min, s.Risk.Max, s.Risk.Mean)
		fmt.Fprintf(w, "   HIGH   (>=%d): %d\n", highThreshold, s.Risk.High)
		fmt.Fprintf(w, "   MEDIUM (%d-%d): %d\n", mediumThreshold, highThreshold-1, s.Risk.Medium)
		fmt.Fprintf(w, "   LOW    (<%d): %d\n", mediumThreshold, s.Risk.Low)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median expects values sorted ascending.
func median(values []float64) float64 {
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// stdev is the sample standard deviation; zero for fewer than two values.
func stdev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}
