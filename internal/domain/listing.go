// Package domain defines the core data model shared by the fetcher, the
// enrichment pipeline, and the daily store.
package domain

import (
	"encoding/json"
	"strings"
)

// Price is the monetary value attached to a listing. A zero Amount means the
// source did not provide a usable price.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

// Location holds the listing coordinates as text, preserving the exact source
// representation so they can be compared against the configured search anchor
// the same way the upstream renders them.
type Location struct {
	Latitude  string
	Longitude string
}

// UnmarshalJSON accepts latitude/longitude as either JSON numbers or strings.
func (loc *Location) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	loc.Latitude = flexString(fields["latitude"])
	loc.Longitude = flexString(fields["longitude"])
	return nil
}

// MarshalJSON re-encodes the coordinates as strings. Round-trips of fetched
// listings never hit this path (the original raw value is replayed); it only
// matters for listings constructed in code.
func (loc Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
	})
}

// Listing is one marketplace item as returned by the search API. The fields
// the pipeline inspects are decoded into typed members; every other source
// field is retained verbatim and written back unchanged when the listing is
// persisted.
type Listing struct {
	ID          string
	Title       string
	Description string
	Price       Price
	Images      []json.RawMessage
	Location    Location
	UserID      string

	raw map[string]json.RawMessage
}

// knownKeys are the top-level source fields with typed counterparts.
var knownKeys = map[string]bool{
	"id":          true,
	"title":       true,
	"description": true,
	"price":       true,
	"images":      true,
	"location":    true,
	"user_id":     true,
}

// UnmarshalJSON decodes the fields the pipeline needs and keeps the complete
// raw record for passthrough. Individually malformed known fields degrade to
// their zero value rather than failing the whole listing; the pipeline treats
// zero values as "missing".
func (l *Listing) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*l = Listing{raw: fields}
	for key, rawVal := range fields {
		switch key {
		case "id":
			l.ID = flexString(rawVal)
		case "title":
			_ = json.Unmarshal(rawVal, &l.Title)
		case "description":
			_ = json.Unmarshal(rawVal, &l.Description)
		case "price":
			_ = json.Unmarshal(rawVal, &l.Price)
		case "images":
			_ = json.Unmarshal(rawVal, &l.Images)
		case "location":
			_ = json.Unmarshal(rawVal, &l.Location)
		case "user_id":
			l.UserID = flexString(rawVal)
		}
	}
	return nil
}

// MarshalJSON writes the listing back as it arrived: source fields are
// replayed from the raw record when present, while listings built in code
// fall back to encoding the typed members.
func (l Listing) MarshalJSON() ([]byte, error) {
	fields, err := l.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// fields builds the flat field map for serialization. Shared with
// EnrichedListing, which layers its computed keys on top.
func (l Listing) fields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(l.raw)+7)
	for k, v := range l.raw {
		fields[k] = v
	}
	if len(l.raw) > 0 {
		return fields, nil
	}

	set := func(key string, v any) error {
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fields[key] = enc
		return nil
	}

	if l.ID != "" {
		if err := set("id", l.ID); err != nil {
			return nil, err
		}
	}
	if l.Title != "" {
		if err := set("title", l.Title); err != nil {
			return nil, err
		}
	}
	if l.Description != "" {
		if err := set("description", l.Description); err != nil {
			return nil, err
		}
	}
	if l.Price != (Price{}) {
		if err := set("price", l.Price); err != nil {
			return nil, err
		}
	}
	if l.Images != nil {
		if err := set("images", l.Images); err != nil {
			return nil, err
		}
	}
	if l.Location != (Location{}) {
		if err := set("location", l.Location); err != nil {
			return nil, err
		}
	}
	if l.UserID != "" {
		if err := set("user_id", l.UserID); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

// Extra returns the raw value of a source field that has no typed member, or
// nil if the field is absent.
func (l Listing) Extra(key string) json.RawMessage {
	if knownKeys[key] {
		return nil
	}
	return l.raw[key]
}

// flexString decodes a JSON value that may be a string, a number, or absent
// into its textual form. Numbers keep their exact source spelling; null and
// missing values become the empty string.
func flexString(rawVal json.RawMessage) string {
	if len(rawVal) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(rawVal, &s); err == nil {
		return s
	}
	tok := strings.TrimSpace(string(rawVal))
	if tok == "null" {
		return ""
	}
	return tok
}
