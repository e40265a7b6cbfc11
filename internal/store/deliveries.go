package store

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/jobradar/internal/kv"
)

// DeliveryLedger remembers which (job, chat) pairs were already sent so a
// second dispatch inside the retention window does not repeat an alert.
type DeliveryLedger struct {
	base
	ttl time.Duration
}

// NewDeliveryLedger returns a ledger whose markers expire after ttl. Use the
// same value as the job retention so markers never outlive the pending entry.
func NewDeliveryLedger(k kv.Store, ttl, opTimeout time.Duration) *DeliveryLedger {
	if ttl <= 0 {
		ttl = DefaultRetention
	}
	return &DeliveryLedger{base: newBase(k, opTimeout), ttl: ttl}
}

// Claim reserves the (jobID, chatID) pair. It reports false when another
// dispatch already claimed it.
func (l *DeliveryLedger) Claim(ctx context.Context, jobID string, chatID int64) (bool, error) {
	ok, err := l.setNXJSON(ctx, sentKey(jobID, chatID), time.Now().UTC(), l.ttl)
	if err != nil {
		return false, fmt.Errorf("claiming delivery %s to %d: %w", jobID, chatID, err)
	}
	return ok, nil
}

// Release drops a claim after a failed send so a later dispatch can retry.
func (l *DeliveryLedger) Release(ctx context.Context, jobID string, chatID int64) error {
	if err := l.delete(ctx, sentKey(jobID, chatID)); err != nil {
		return fmt.Errorf("releasing delivery %s to %d: %w", jobID, chatID, err)
	}
	return nil
}
