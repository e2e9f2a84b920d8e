// Package jsonfile stores the item history as a single JSON document on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"suomi-feed/internal/domain/entity"
	"suomi-feed/internal/pkg/fileutil"
	"suomi-feed/internal/repository"
)

// HistoryRepo implements repository.HistoryRepository on a JSON file.
//
// Load accepts every historical shape of the file and migrates it to the
// current schema. Save writes the current schema atomically and refuses to
// overwrite a file whose revision changed since Load.
type HistoryRepo struct {
	path   string
	logger *slog.Logger
}

var _ repository.HistoryRepository = (*HistoryRepo)(nil)

// NewHistoryRepo creates a repository backed by the file at path.
// A nil logger falls back to slog.Default().
func NewHistoryRepo(path string, logger *slog.Logger) *HistoryRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryRepo{path: path, logger: logger}
}

// Path returns the backing file path.
func (repo *HistoryRepo) Path() string {
	return repo.path
}

// Load reads and migrates the stored history.
//
// A missing, unreadable or corrupt file yields an empty history and a nil
// error; the reason is logged as a warning. Only a cancelled context is
// reported as an error.
func (repo *HistoryRepo) Load(ctx context.Context) (*entity.History, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	data, err := os.ReadFile(repo.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			repo.logger.Info("history file not found, starting empty",
				slog.String("path", repo.path))
		} else {
			repo.logger.Warn("history file unreadable, starting empty",
				slog.String("path", repo.path),
				slog.Any("error", err))
		}
		return entity.NewHistory(), nil
	}

	doc, err := decode(data)
	if err != nil {
		repo.logger.Warn("history file corrupt, starting empty",
			slog.String("path", repo.path),
			slog.Int("bytes", len(data)),
			slog.Any("error", err))
		return entity.NewHistory(), nil
	}

	items, invalid := migrate(doc.records)
	if doc.version != entity.CurrentHistoryVersion {
		repo.logger.Info("history migrated",
			slog.String("path", repo.path),
			slog.Int("from_version", doc.version),
			slog.Int("to_version", entity.CurrentHistoryVersion),
			slog.Int("items", len(items)))
	}
	if skipped := doc.dropped + invalid; skipped > 0 {
		repo.logger.Warn("history records dropped on load",
			slog.String("path", repo.path),
			slog.Int("dropped", skipped))
	}

	return &entity.History{
		Version:  entity.CurrentHistoryVersion,
		Revision: doc.revision,
		Items:    items,
	}, nil
}

// Save writes history in the current schema and advances its revision.
//
// It returns repository.ErrConcurrentModification, leaving the file as it
// is, when the stored revision no longer matches history.Revision.
func (repo *HistoryRepo) Save(ctx context.Context, history *entity.History) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Save: %w", err)
	}

	stored := repo.storedRevision()
	if stored != history.Revision {
		return fmt.Errorf("Save: stored revision %d, loaded revision %d: %w",
			stored, history.Revision, repository.ErrConcurrentModification)
	}

	next := history.Revision + 1
	data, err := encode(history, next)
	if err != nil {
		return fmt.Errorf("Save: encode: %w", err)
	}
	if err := fileutil.WriteFileAtomic(repo.path, data, 0o644); err != nil {
		return fmt.Errorf("Save: %w", err)
	}

	history.Version = entity.CurrentHistoryVersion
	history.Revision = next
	return nil
}

// storedRevision returns the revision of the file currently on disk.
// Missing, legacy and corrupt files all count as revision 0, matching what
// Load reports for them.
func (repo *HistoryRepo) storedRevision() int64 {
	data, err := os.ReadFile(repo.path)
	if err != nil {
		return 0
	}
	doc, err := decode(data)
	if err != nil {
		return 0
	}
	return doc.revision
}
