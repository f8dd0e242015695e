package pipeline

import "github.com/dvalverde/motowatch/internal/domain"

// DropInternalDuplicates removes repeated listings within one batch, keyed on
// id, preserving first-seen order. Listings without an id never match
// anything: they are kept and not tracked. Returns the unique listings and
// the number removed.
func DropInternalDuplicates(items []domain.Listing) ([]domain.Listing, int) {
	seen := make(map[string]struct{}, len(items))
	unique := make([]domain.Listing, 0, len(items))
	removed := 0

	for _, item := range items {
		if item.ID != "" {
			if _, dup := seen[item.ID]; dup {
				removed++
				continue
			}
			seen[item.ID] = struct{}{}
		}
		unique = append(unique, item)
	}
	return unique, removed
}

// DropSeen removes listings whose id was already recorded in the daily
// dataset. Listings without an id always pass. Returns the fresh listings
// and the number removed.
func DropSeen(items []domain.Listing, existing map[string]struct{}) ([]domain.Listing, int) {
	fresh := make([]domain.Listing, 0, len(items))
	removed := 0

	for _, item := range items {
		if item.ID != "" {
			if _, ok := existing[item.ID]; ok {
				removed++
				continue
			}
		}
		fresh = append(fresh, item)
	}
	return fresh, removed
}
