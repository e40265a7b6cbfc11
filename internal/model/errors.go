package model

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy. Callers test with errors.Is.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSourceSchema      = errors.New("source schema error")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrDeliveryFailure   = errors.New("delivery failure")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// FailureKind buckets an error for summaries and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceSchema):
		return "schema"
	case errors.Is(err, ErrSourceUnavailable):
		return "unavailable"
	case errors.Is(err, ErrStoreUnavailable):
		return "store"
	case errors.Is(err, ErrDeliveryFailure):
		return "delivery"
	default:
		return "config"
	}
}
