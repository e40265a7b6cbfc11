package store

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/jobradar/internal/kv"
	"github.com/amishk599/jobradar/internal/model"
)

var _ model.CursorStore = (*CursorStore)(nil)

// CursorStore persists one Cursor per source under lastcheck:<sourceId>.
type CursorStore struct {
	base
	now func() time.Time
}

// NewCursorStore returns a CursorStore over k.
func NewCursorStore(k kv.Store, opTimeout time.Duration) *CursorStore {
	return &CursorStore{base: newBase(k, opTimeout), now: time.Now}
}

// Get returns the cursor for sourceID, or nil on a first run.
func (s *CursorStore) Get(ctx context.Context, sourceID string) (*model.Cursor, error) {
	var c model.Cursor
	found, err := s.getJSON(ctx, cursorKey(sourceID), &c)
	if err != nil {
		return nil, fmt.Errorf("loading cursor for %s: %w", sourceID, err)
	}
	if !found {
		return nil, nil
	}
	if c.SourceID == "" {
		c.SourceID = sourceID
	}
	return &c, nil
}

// Advance overwrites the cursor with nativeID and stamps the check time.
// The caller guarantees nativeID is the newest posting of a successful fetch.
func (s *CursorStore) Advance(ctx context.Context, sourceID, nativeID string) error {
	c := model.Cursor{
		SourceID:      sourceID,
		LastJobID:     nativeID,
		LastCheckTime: s.now().UTC(),
	}
	if err := s.setJSON(ctx, cursorKey(sourceID), c, 0); err != nil {
		return fmt.Errorf("advancing cursor for %s: %w", sourceID, err)
	}
	return nil
}

// Reset deletes the cursor so the next poll of sourceID runs as a first run.
func (s *CursorStore) Reset(ctx context.Context, sourceID string) error {
	if err := s.delete(ctx, cursorKey(sourceID)); err != nil {
		return fmt.Errorf("resetting cursor for %s: %w", sourceID, err)
	}
	return nil
}
