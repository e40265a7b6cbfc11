package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Limiter enforces a minimum delay between requests to the same upstream
// platform, keyed by source type. Concurrent callers queue behind each other:
// each Wait reserves the next free slot before sleeping.
type Limiter struct {
	mu        sync.Mutex
	nextSlot  map[model.SourceType]time.Time
	minDelay  time.Duration
	overrides map[model.SourceType]time.Duration
}

// NewLimiter creates a limiter with a default minDelay and optional per-type overrides.
func NewLimiter(minDelay time.Duration, overrides map[model.SourceType]time.Duration) *Limiter {
	return &Limiter{
		nextSlot:  make(map[model.SourceType]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

// Delay returns the spacing applied to requests of the given type.
func (l *Limiter) Delay(typ model.SourceType) time.Duration {
	if d, ok := l.overrides[typ]; ok {
		return d
	}
	return l.minDelay
}

// Wait blocks until the caller's slot for typ arrives.
// Returns an error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, typ model.SourceType) error {
	l.mu.Lock()
	now := time.Now()
	slot := l.nextSlot[typ]
	if slot.Before(now) {
		slot = now
	}
	l.nextSlot[typ] = slot.Add(l.Delay(typ))
	l.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", typ, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Adapter is a SourceAdapter decorator that waits on a shared Limiter before
// delegating.
type Adapter struct {
	inner   model.SourceAdapter
	limiter *Limiter
	typ     model.SourceType
}

// Wrap rate-limits inner. Every adapter of the same type should share one Limiter.
func Wrap(inner model.SourceAdapter, limiter *Limiter, typ model.SourceType) *Adapter {
	return &Adapter{inner: inner, limiter: limiter, typ: typ}
}

// Fetch waits for the limiter, then delegates to the wrapped adapter.
func (a *Adapter) Fetch(ctx context.Context, cursorHint string) ([]model.Job, error) {
	if err := a.limiter.Wait(ctx, a.typ); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
	}
	return a.inner.Fetch(ctx, cursorHint)
}
