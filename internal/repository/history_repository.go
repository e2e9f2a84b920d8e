package repository

import (
	"context"
	"errors"

	"suomi-feed/internal/domain/entity"
)

// ErrConcurrentModification is returned by Save when the stored history was
// rewritten by another run after it was loaded.
var ErrConcurrentModification = errors.New("history modified concurrently")

// HistoryRepository persists the item history between runs.
//
// Load never fails on a missing or corrupt store; it returns an empty history
// instead. Save overwrites the stored history atomically.
type HistoryRepository interface {
	Load(ctx context.Context) (*entity.History, error)
	Save(ctx context.Context, history *entity.History) error
}
