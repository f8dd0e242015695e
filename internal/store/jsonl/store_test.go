package jsonl

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvalverde/motowatch/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(t.TempDir(), "wallapop_motos", logger)
}

func enriched(id, title string) domain.EnrichedListing {
	return domain.EnrichedListing{
		Listing:        domain.Listing{ID: id, Title: title},
		CrawlTimestamp: "2026-08-30T10:00:00.000000Z",
	}
}

func TestKeyUsesUTCDay(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name     string
		t        time.Time
		expected string
	}{
		{
			name:     "plain utc",
			t:        time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC),
			expected: "wallapop_motos_20260830.json",
		},
		{
			name:     "late evening east of greenwich is still the same utc day",
			t:        time.Date(2026, 8, 30, 23, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected: "wallapop_motos_20260830.json",
		},
		{
			name:     "local midnight after utc midnight rolls the key",
			t:        time.Date(2026, 8, 30, 1, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected: "wallapop_motos_20260830.json",
		},
		{
			name:     "west of greenwich lags behind",
			t:        time.Date(2026, 8, 30, 22, 0, 0, 0, time.FixedZone("PDT", -7*3600)),
			expected: "wallapop_motos_20260831.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Key(tt.t))
		})
	}
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	key := "wallapop_motos_20260830.json"

	require.NoError(t, s.Append(key, []domain.EnrichedListing{
		enriched("a", "Honda CB500F"),
		enriched("b", "Vespa GTS"),
	}))
	require.NoError(t, s.Append(key, []domain.EnrichedListing{
		enriched("c", "Kawasaki Z900"),
	}))

	ids := s.LoadExistingIDs(key)
	assert.Equal(t, map[string]struct{}{
		"a": {}, "b": {}, "c": {},
	}, ids)
}

func TestAppendEmptyBatchCreatesNothing(t *testing.T) {
	s := newTestStore(t)
	key := "wallapop_motos_20260830.json"

	require.NoError(t, s.Append(key, nil))

	_, err := os.Stat(s.Path(key))
	assert.True(t, os.IsNotExist(err))
}

func TestAppendPreservesNonASCII(t *testing.T) {
	s := newTestStore(t)
	key := "wallapop_motos_20260830.json"

	require.NoError(t, s.Append(key, []domain.EnrichedListing{
		enriched("a", "Montaña rusa, años 90, cuñado vendió"),
	}))

	data, err := os.ReadFile(s.Path(key))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Montaña rusa, años 90, cuñado vendió")
	assert.NotContains(t, string(data), `\u`)
}

func TestLoadExistingIDsMissingFile(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.LoadExistingIDs("wallapop_motos_20260830.json"))
}

func TestLoadExistingIDsSkipsMalformedLines(t *testing.T) {
	s := newTestStore(t)
	key := "wallapop_motos_20260830.json"

	content := strings.Join([]string{
		`{"id":"a","title":"ok"}`,
		`{"id":"b","title":"trunc`, // interrupted trailing write from a crashed run
		``,
		`{"id":"c"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(s.Path(key), []byte(content), 0o644))

	ids := s.LoadExistingIDs(key)
	assert.Equal(t, map[string]struct{}{"a": {}, "c": {}}, ids)
}

func TestLoadExistingIDsIgnoresRecordsWithoutID(t *testing.T) {
	s := newTestStore(t)
	key := "wallapop_motos_20260830.json"

	content := `{"title":"no id"}` + "\n" + `{"id":"a"}` + "\n"
	require.NoError(t, os.WriteFile(s.Path(key), []byte(content), 0o644))

	assert.Equal(t, map[string]struct{}{"a": {}}, s.LoadExistingIDs(key))
}

func TestFilesBefore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	s := New(dir, "wallapop_motos", logger)

	for _, name := range []string{
		"wallapop_motos_20260825.json",
		"wallapop_motos_20260828.json",
		"wallapop_motos_20260830.json",
		"wallapop_motos_notadate.json",
		"other_20260101.json",
		"wallapop_motos_20260826.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o644))
	}

	names, err := s.FilesBefore(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"wallapop_motos_20260825.json",
		"wallapop_motos_20260828.json",
	}, names)
}
