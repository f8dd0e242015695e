package s3blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// multipartThreshold is the local file size above which uploads switch to
// the multipart path.
const multipartThreshold int64 = 8 * 1024 * 1024

// DatasetFiles is the slice of the daily store the archiver needs: listing
// closed files by date and resolving them to local paths.
type DatasetFiles interface {
	// FilesBefore returns daily filenames whose UTC date is strictly before
	// day, oldest first.
	FilesBefore(day time.Time) ([]string, error)
	// Path resolves a daily filename to its location on disk.
	Path(key string) string
}

// ObjectWriter uploads archive objects.
type ObjectWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// ObjectChecker reports whether an archive object already exists.
type ObjectChecker interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Archiver uploads daily dataset files that are at least afterDays old to
// cold storage under archive/listings/, then removes the local copy. The
// current day's file is never eligible, so the append-only contract of the
// live dataset is untouched.
type Archiver struct {
	writer    ObjectWriter
	checker   ObjectChecker
	files     DatasetFiles
	afterDays int
	logger    *slog.Logger
}

// NewArchiver creates an Archiver. afterDays is the minimum age in whole UTC
// days before a file is archived.
func NewArchiver(writer ObjectWriter, checker ObjectChecker, files DatasetFiles, afterDays int, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:    writer,
		checker:   checker,
		files:     files,
		afterDays: afterDays,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

// Run executes one archive pass and returns the number of files uploaded.
// Files already present remotely are not re-uploaded, only pruned locally.
func (a *Archiver) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -a.afterDays)

	names, err := a.files.FilesBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("s3blob: list archivable files: %w", err)
	}
	if len(names) == 0 {
		return 0, nil
	}

	archived := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		uploaded, err := a.archiveOne(ctx, name)
		if err != nil {
			return archived, err
		}
		if uploaded {
			archived++
		}
	}

	a.logger.InfoContext(ctx, "archive pass complete",
		slog.Int("eligible", len(names)),
		slog.Int("uploaded", archived),
	)
	return archived, nil
}

func (a *Archiver) archiveOne(ctx context.Context, name string) (bool, error) {
	remote := "archive/listings/" + name
	local := a.files.Path(name)

	exists, err := a.checker.Exists(ctx, remote)
	if err != nil {
		return false, fmt.Errorf("s3blob: check %s: %w", remote, err)
	}
	if exists {
		a.logger.InfoContext(ctx, "already archived, pruning local copy",
			slog.String("file", name),
		)
		if err := os.Remove(local); err != nil {
			return false, fmt.Errorf("s3blob: prune %s: %w", local, err)
		}
		return false, nil
	}

	f, err := os.Open(local)
	if err != nil {
		return false, fmt.Errorf("s3blob: open %s: %w", local, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("s3blob: stat %s: %w", local, err)
	}

	if info.Size() > multipartThreshold {
		err = a.writer.PutMultipart(ctx, remote, f, minPartSize)
	} else {
		err = a.writer.Put(ctx, remote, f, "application/x-ndjson")
	}
	if err != nil {
		return false, fmt.Errorf("s3blob: upload %s: %w", name, err)
	}

	if err := os.Remove(local); err != nil {
		return false, fmt.Errorf("s3blob: remove archived %s: %w", local, err)
	}

	a.logger.InfoContext(ctx, "archived daily file",
		slog.String("file", name),
		slog.String("remote", remote),
		slog.Int64("bytes", info.Size()),
	)
	return true, nil
}
