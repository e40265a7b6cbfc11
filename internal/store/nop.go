package store

import (
	"context"

	"github.com/amishk599/jobradar/internal/model"
)

// NopCursorStore is used in dry-run mode. It reads through to the real
// cursors so a dry run sees what a live cycle would, but never advances them.
type NopCursorStore struct {
	Reader model.CursorStore
}

func (s NopCursorStore) Get(ctx context.Context, sourceID string) (*model.Cursor, error) {
	if s.Reader == nil {
		return nil, nil
	}
	return s.Reader.Get(ctx, sourceID)
}

func (NopCursorStore) Advance(context.Context, string, string) error { return nil }

// NopJobStore is used in dry-run mode. It never records anything, so every
// matched job reports as new and nothing becomes pending.
type NopJobStore struct{}

func (NopJobStore) PublishIfNew(context.Context, model.Job) (bool, error) { return true, nil }
