// Package site writes the generated pages into the static site directory
// and patches the generated sections of the host page.
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"suomi-feed/internal/observability/logging"
	"suomi-feed/internal/pkg/fileutil"
	"suomi-feed/internal/repository"
	"suomi-feed/internal/utils/text"
)

// DefaultWriteConcurrency bounds parallel page writes.
const DefaultWriteConcurrency = 4

const pagePerm = 0o644

// Writer implements repository.SiteRepository on a site directory.
type Writer struct {
	dir         string
	hostPage    string
	concurrency int
}

var _ repository.SiteRepository = (*Writer)(nil)

// NewWriter creates a Writer for dir. hostPage is relative to dir unless
// absolute.
func NewWriter(dir, hostPage string) *Writer {
	return &Writer{
		dir:         dir,
		hostPage:    hostPage,
		concurrency: DefaultWriteConcurrency,
	}
}

// HostPagePath returns the path of the host page. An absolute host page
// path is used as is.
func (w *Writer) HostPagePath() string {
	if filepath.IsAbs(w.hostPage) {
		return w.hostPage
	}
	return filepath.Join(w.dir, w.hostPage)
}

// WriteYearPages writes every page atomically, at most
// DefaultWriteConcurrency at a time. The first error cancels the
// remaining writes; pages already written stay in place.
func (w *Writer) WriteYearPages(ctx context.Context, pages []repository.Page) error {
	if len(pages) == 0 {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("WriteYearPages: create site dir: %w", err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(w.concurrency)

	for _, page := range pages {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			path := filepath.Join(w.dir, page.Name)
			if err := fileutil.WriteFileAtomic(path, []byte(page.Content), pagePerm); err != nil {
				return fmt.Errorf("write %s: %w", page.Name, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("WriteYearPages: %w", err)
	}

	logging.FromContext(ctx).Debug("year pages written",
		slog.String("dir", w.dir),
		slog.Int("pages", len(pages)))
	return nil
}

// PatchHostPage replaces the recent and archives sections of the host page.
// Each marker pair is patched independently; a missing pair is logged at
// WARN and leaves that section untouched. The file is rewritten only when
// its content changed. A missing host page is logged and skipped.
func (w *Writer) PatchHostPage(ctx context.Context, sections repository.HostSections) (repository.PatchResult, error) {
	logger := logging.FromContext(ctx)
	path := w.HostPagePath()
	var res repository.PatchResult

	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Missing = true
			logger.Warn("host page not found, skipping patch",
				slog.String("path", path))
			return res, nil
		}
		return res, fmt.Errorf("PatchHostPage: read: %w", err)
	}

	doc := string(raw)
	doc, res.RecentPatched = text.PatchBetweenMarkers(doc,
		text.RecentStartMarker, text.RecentEndMarker, sections.Recent)
	if !res.RecentPatched {
		logger.Warn("host page markers not found",
			slog.String("path", path),
			slog.String("section", "recent"))
	}

	doc, res.ArchivesPatched = text.PatchBetweenMarkers(doc,
		text.ArchivesStartMarker, text.ArchivesEndMarker, sections.Archives)
	if !res.ArchivesPatched {
		logger.Warn("host page markers not found",
			slog.String("path", path),
			slog.String("section", "archives"))
	}

	if doc == string(raw) {
		return res, nil
	}

	perm := os.FileMode(pagePerm)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fileutil.WriteFileAtomic(path, []byte(doc), perm); err != nil {
		return res, fmt.Errorf("PatchHostPage: write: %w", err)
	}
	res.Written = true
	return res, nil
}
