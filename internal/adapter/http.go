package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// getJSON fetches url and decodes the body into v. Transport failures and
// non-200 responses wrap model.ErrSourceUnavailable; an undecodable body wraps
// model.ErrSourceSchema.
func getJSON(ctx context.Context, client *http.Client, url, label string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrSourceUnavailable, label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%w: %s: unexpected status %d", model.ErrSourceUnavailable, label, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrSourceSchema, label, err)
	}
	return nil
}

// parseTime accepts RFC 3339 timestamps with or without fractional seconds.
func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil
	}
	return &t
}
