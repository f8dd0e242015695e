// Package jsonl implements the daily append-only dataset: one UTF-8 file per
// UTC day, one self-describing JSON object per line. The format tolerates a
// half-written trailing line from an interrupted run; loading skips lines
// that fail to parse.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dvalverde/motowatch/internal/domain"
)

// maxLineBytes bounds a single stored record when scanning. Listings carry
// image metadata and free text but stay far below this.
const maxLineBytes = 4 << 20

// Store reads and appends the per-day listing files under one directory.
type Store struct {
	dir    string
	prefix string
	logger *slog.Logger
}

// New creates a Store rooted at dir with the given filename prefix.
func New(dir, prefix string, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		prefix: prefix,
		logger: logger.With(slog.String("component", "store")),
	}
}

// Key derives the dataset filename for the UTC day containing t, e.g.
// "wallapop_motos_20260830.json". A new key starts at every UTC midnight.
func (s *Store) Key(t time.Time) string {
	return fmt.Sprintf("%s_%s.json", s.prefix, t.UTC().Format("20060102"))
}

// Path resolves a dataset key to its location on disk.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// LoadExistingIDs returns the set of listing ids already recorded under key.
// Lines that fail to parse are skipped, and a missing or unreadable file
// yields an empty set; re-adding a previously seen listing is preferred over
// failing the run.
func (s *Store) LoadExistingIDs(key string) map[string]struct{} {
	ids := make(map[string]struct{})

	f, err := os.Open(s.Path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("daily file unreadable, starting with no existing ids",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return ids
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	skipped := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec domain.Listing
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		if rec.ID != "" {
			ids[rec.ID] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("stopped reading daily file early",
			slog.String("key", key),
			slog.Int("ids_loaded", len(ids)),
			slog.String("error", err.Error()),
		)
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed lines in daily file",
			slog.String("key", key),
			slog.Int("skipped", skipped),
		)
	}
	return ids
}

// Append durably appends each listing as one JSON line under key. It never
// rewrites existing content, keeps non-ASCII text unescaped, and is a no-op
// for an empty batch.
func (s *Store) Append(key string, items []domain.EnrichedListing) error {
	if len(items) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.Path(key), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("jsonl: open %s for append: %w", key, err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			f.Close()
			return fmt.Errorf("jsonl: encode listing %s: %w", item.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("jsonl: flush %s: %w", key, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("jsonl: sync %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("jsonl: close %s: %w", key, err)
	}
	return nil
}

// FilesBefore lists the dataset filenames whose UTC date falls strictly
// before day, oldest first. Files that do not follow the daily naming scheme
// are ignored.
func (s *Store) FilesBefore(day time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("jsonl: read dataset dir: %w", err)
	}

	cutoff := day.UTC().Format("20060102")
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		date, ok := strings.CutPrefix(name, s.prefix+"_")
		if !ok {
			continue
		}
		date, ok = strings.CutSuffix(date, ".json")
		if !ok || len(date) != 8 {
			continue
		}
		if _, err := time.Parse("20060102", date); err != nil {
			continue
		}
		if date < cutoff {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
