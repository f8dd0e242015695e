package wallapop

import "github.com/dvalverde/motowatch/internal/domain"

// searchResponse mirrors the nested search envelope. Every level is optional:
// if the expected path is absent the zero value yields an empty item list,
// which the client treats as "no items".
type searchResponse struct {
	Data struct {
		Section struct {
			Payload struct {
				Items []domain.Listing `json:"items"`
			} `json:"payload"`
		} `json:"section"`
	} `json:"data"`
}

// SearchRequest identifies one search query: free-text keywords, the numeric
// category, and the anchor coordinates the marketplace centers results on.
type SearchRequest struct {
	Keywords   string
	CategoryID string
	Latitude   string
	Longitude  string
}

// SearchResult is the outcome of a full paginated fetch. Truncated reports
// that pagination stopped because a page failed, so Items holds only the
// pages accumulated up to that point rather than the complete result set.
type SearchResult struct {
	Items     []domain.Listing
	Pages     int
	Truncated bool
}
