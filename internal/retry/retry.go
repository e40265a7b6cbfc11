package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Adapter retries a SourceAdapter's transient failures with jittered
// exponential backoff. Schema errors and cancellation are returned as is.
type Adapter struct {
	inner      model.SourceAdapter
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// New wraps inner. maxRetries counts attempts after the first; the delay
// starts at baseDelay and doubles per attempt.
func New(inner model.SourceAdapter, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Adapter {
	return &Adapter{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (a *Adapter) Fetch(ctx context.Context, cursorHint string) ([]model.Job, error) {
	for attempt := 0; ; attempt++ {
		jobs, err := a.inner.Fetch(ctx, cursorHint)
		if err == nil {
			return jobs, nil
		}
		if !transient(err) || attempt >= a.maxRetries {
			return nil, err
		}

		delay := a.delay(attempt+1, err)
		a.logger.Warn("source fetch failed, retrying",
			"attempt", attempt+1,
			"max_retries", a.maxRetries,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: retry cancelled: %w", model.ErrSourceUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
}

// delay honours Retry-After, otherwise baseDelay*2^(attempt-1) ±30%.
func (a *Adapter) delay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	d := a.baseDelay << (attempt - 1)
	spread := float64(d) * 0.3
	return d + time.Duration((rand.Float64()*2-1)*spread)
}

func transient(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, model.ErrSourceSchema):
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	// network, DNS
	return true
}
