package pipeline

import (
	"strings"

	"github.com/dvalverde/motowatch/internal/domain"
)

// NoiseFilter drops listings that are apparel or personal gear rather than
// vehicles, by matching a denylist against title and description.
type NoiseFilter struct {
	phrases []string
}

// NewNoiseFilter creates a filter over the given denylist phrases.
func NewNoiseFilter(phrases []string) *NoiseFilter {
	return &NoiseFilter{phrases: phrases}
}

// IsNoise reports whether any denylist phrase appears in the listing title or
// description. Matching is case-insensitive substring containment.
func (f *NoiseFilter) IsNoise(l domain.Listing) bool {
	title := strings.ToLower(l.Title)
	description := strings.ToLower(l.Description)

	for _, phrase := range f.phrases {
		if strings.Contains(title, phrase) || strings.Contains(description, phrase) {
			return true
		}
	}
	return false
}

// Filter partitions items into kept listings and a removed count, preserving
// order.
func (f *NoiseFilter) Filter(items []domain.Listing) ([]domain.Listing, int) {
	kept := make([]domain.Listing, 0, len(items))
	removed := 0

	for _, item := range items {
		if f.IsNoise(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}
