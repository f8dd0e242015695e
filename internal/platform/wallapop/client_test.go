package wallapop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRequest() SearchRequest {
	return SearchRequest{
		Keywords:   "moto",
		CategoryID: "14000",
		Latitude:   "41.648823",
		Longitude:  "-0.889085",
	}
}

// pageBody renders a search envelope with count items whose ids start at
// first.
func pageBody(first, count int) string {
	items := make([]string, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, fmt.Sprintf(`{"id":"item-%d","title":"Moto %d"}`, first+i, first+i))
	}
	return fmt.Sprintf(`{"data":{"section":{"payload":{"items":[%s]}}}}`, strings.Join(items, ","))
}

func newTestClient(t *testing.T, handler http.Handler, pageSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:   srv.URL + "/api/v3/search",
		PageSize:  pageSize,
		PageDelay: time.Millisecond,
		Timeout:   5 * time.Second,
	}, testLogger())
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{name: "no host", baseURL: "/api/v3/search"},
		{name: "unparseable", baseURL: "http://bad url with spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{BaseURL: tt.baseURL}, testLogger())
			assert.Error(t, err)
		})
	}
}

func TestSearchSendsExpectedQuery(t *testing.T) {
	var got url.Values
	var gotDeviceOS string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		gotDeviceOS = r.Header.Get("X-DeviceOS")
		fmt.Fprint(w, pageBody(0, 1))
	})

	c := newTestClient(t, handler, 50)
	_, err := c.Search(context.Background(), testRequest(), 100)
	require.NoError(t, err)

	assert.Equal(t, "search_box", got.Get("source"))
	assert.Equal(t, "moto", got.Get("keywords"))
	assert.Equal(t, "14000", got.Get("category_id"))
	assert.Equal(t, "41.648823", got.Get("latitude"))
	assert.Equal(t, "-0.889085", got.Get("longitude"))
	assert.Equal(t, "today", got.Get("time_filter"))
	assert.Equal(t, "newest", got.Get("order_by"))
	assert.Equal(t, "100", got.Get("offset"))
	assert.Equal(t, "50", got.Get("limit"))
	assert.Equal(t, "0", gotDeviceOS)
}

func TestSearchMissingEnvelopePathYieldsNoItems(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	})

	c := newTestClient(t, handler, 50)
	items, err := c.Search(context.Background(), testRequest(), 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchNonSuccessStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	c := newTestClient(t, handler, 50)
	_, err := c.Search(context.Background(), testRequest(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearchMalformedBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	})

	c := newTestClient(t, handler, 50)
	_, err := c.Search(context.Background(), testRequest(), 0)
	assert.Error(t, err)
}

func TestFetchAllStopsOnShortPage(t *testing.T) {
	var offsets []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		switch offset {
		case "0":
			fmt.Fprint(w, pageBody(0, 2))
		default:
			fmt.Fprint(w, pageBody(2, 1))
		}
	})

	c := newTestClient(t, handler, 2)
	result := c.FetchAll(context.Background(), testRequest())

	assert.False(t, result.Truncated)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, []string{"0", "2"}, offsets)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "item-0", result.Items[0].ID)
	assert.Equal(t, "item-2", result.Items[2].ID)
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, pageBody(0, 2))
			return
		}
		fmt.Fprint(w, pageBody(0, 0))
	})

	c := newTestClient(t, handler, 2)
	result := c.FetchAll(context.Background(), testRequest())

	assert.False(t, result.Truncated)
	assert.Equal(t, 1, result.Pages)
	assert.Len(t, result.Items, 2)
}

func TestFetchAllEmptyFirstPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageBody(0, 0))
	})

	c := newTestClient(t, handler, 2)
	result := c.FetchAll(context.Background(), testRequest())

	assert.False(t, result.Truncated)
	assert.Equal(t, 0, result.Pages)
	assert.Empty(t, result.Items)
}

func TestFetchAllTruncatesOnPageFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, pageBody(0, 2))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := newTestClient(t, handler, 2)
	result := c.FetchAll(context.Background(), testRequest())

	assert.True(t, result.Truncated)
	assert.Equal(t, 1, result.Pages)
	assert.Len(t, result.Items, 2)
}

func TestFetchAllFirstPageFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	c := newTestClient(t, handler, 2)
	result := c.FetchAll(context.Background(), testRequest())

	assert.True(t, result.Truncated)
	assert.Equal(t, 0, result.Pages)
	assert.Empty(t, result.Items)
}

func TestFetchAllStopsWhenContextCancelled(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageBody(0, 2))
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	// The page delay far exceeds the context deadline, so the wait between
	// the first and second page is where cancellation lands.
	c, err := New(Config{
		BaseURL:   srv.URL + "/api/v3/search",
		PageSize:  2,
		PageDelay: time.Hour,
		Timeout:   5 * time.Second,
	}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	result := c.FetchAll(ctx, testRequest())

	assert.True(t, result.Truncated)
	assert.Equal(t, 1, result.Pages)
	assert.Len(t, result.Items, 2)
}

// Decoding inside the envelope must keep unknown listing fields for
// passthrough.
func TestFetchAllKeepsExtraFields(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"section":{"payload":{"items":[
			{"id":"x","title":"Moto","shipping":{"item_is_shippable":true}}
		]}}}}`)
	})

	c := newTestClient(t, handler, 50)
	result := c.FetchAll(context.Background(), testRequest())

	require.Len(t, result.Items, 1)
	extra := result.Items[0].Extra("shipping")
	require.NotNil(t, extra)

	var shipping struct {
		Shippable bool `json:"item_is_shippable"`
	}
	require.NoError(t, json.Unmarshal(extra, &shipping))
	assert.True(t, shipping.Shippable)
}
