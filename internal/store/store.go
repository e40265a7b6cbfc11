// Package store maps the pipeline's records onto kv keys:
//
//	config:sources, config:professions  externally managed configuration
//	lastcheck:<sourceId>                Cursor
//	job:<jobId>                         PublishedJob (permanent dedup ledger)
//	new:job:<jobId>                     PendingNotification (retention TTL)
//	user:<chatId>                       Subscriber
//	sent:<jobId>:<chatId>               delivery marker (retention TTL)
//
// All values are JSON. Backend failures are wrapped with model.ErrStoreUnavailable.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amishk599/jobradar/internal/kv"
	"github.com/amishk599/jobradar/internal/model"
)

const (
	keySources     = "config:sources"
	keyProfessions = "config:professions"

	prefixCursor     = "lastcheck:"
	prefixPublished  = "job:"
	prefixPending    = "new:job:"
	prefixSubscriber = "user:"
	prefixSent       = "sent:"
)

// DefaultOpTimeout bounds a single kv operation when no timeout is configured.
const DefaultOpTimeout = 5 * time.Second

func cursorKey(sourceID string) string { return prefixCursor + sourceID }
func publishedKey(jobID string) string { return prefixPublished + jobID }
func pendingKey(jobID string) string   { return prefixPending + jobID }
func subscriberKey(chatID int64) string {
	return prefixSubscriber + strconv.FormatInt(chatID, 10)
}
func sentKey(jobID string, chatID int64) string {
	return prefixSent + jobID + ":" + strconv.FormatInt(chatID, 10)
}

// base carries the backend and the per-operation timeout shared by every store.
type base struct {
	kv      kv.Store
	timeout time.Duration
}

func newBase(k kv.Store, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return base{kv: k, timeout: timeout}
}

func (b base) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// getJSON decodes key into v. It reports false when the key does not exist.
func (b base) getJSON(ctx context.Context, key string, v any) (bool, error) {
	ctx, cancel := b.opCtx(ctx)
	defer cancel()

	data, err := b.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (b base) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	ctx, cancel := b.opCtx(ctx)
	defer cancel()

	if err := b.kv.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (b base) setNXJSON(ctx context.Context, key string, v any, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encoding %s: %w", key, err)
	}

	ctx, cancel := b.opCtx(ctx)
	defer cancel()

	ok, err := b.kv.SetNX(ctx, key, data, ttl)
	if err != nil {
		return false, fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return ok, nil
}

func (b base) delete(ctx context.Context, key string) error {
	ctx, cancel := b.opCtx(ctx)
	defer cancel()

	if err := b.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (b base) keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := b.opCtx(ctx)
	defer cancel()

	keys, err := b.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return keys, nil
}
