// Package dispatch fans pending postings out to interested subscribers.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobradar/internal/metrics"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/notifier"
)

// Ledger records which (job, chat) pairs were already delivered.
type Ledger interface {
	Claim(ctx context.Context, jobID string, chatID int64) (bool, error)
	Release(ctx context.Context, jobID string, chatID int64) error
}

// Result counts one dispatch pass.
type Result struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"` // already delivered in an earlier pass
}

// Dispatcher delivers every pending posting to each subscriber following its
// profession.
type Dispatcher struct {
	pending     model.PendingLister
	subscribers model.SubscriberLister
	sender      model.Sender
	ledger      Ledger
	logger      *slog.Logger
}

// New returns a Dispatcher. A nil ledger disables delivery dedup, so every
// pass re-sends every pending posting.
func New(pending model.PendingLister, subscribers model.SubscriberLister, sender model.Sender, ledger Ledger, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		pending:     pending,
		subscribers: subscribers,
		sender:      sender,
		ledger:      ledger,
		logger:      logger,
	}
}

// Dispatch runs one pass. Failures to reach a single subscriber are logged and
// counted; only failing to list pending jobs or subscribers returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context) (Result, error) {
	var res Result

	jobs, err := d.pending.Pending(ctx)
	if err != nil {
		return res, fmt.Errorf("dispatch: %w", err)
	}
	res.Pending = len(jobs)
	if len(jobs) == 0 {
		return res, nil
	}

	subs, err := d.subscribers.Subscribers(ctx)
	if err != nil {
		return res, fmt.Errorf("dispatch: %w", err)
	}

	for _, job := range jobs {
		if job.Profession == "" {
			continue
		}
		text := notifier.FormatAlert(job)
		for _, sub := range subs {
			if !sub.Wants(job.Profession) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return res, err
			}
			switch d.deliver(ctx, job, sub.ChatID, text) {
			case delivered:
				res.Sent++
			case skipped:
				res.Skipped++
			case failed:
				res.Failed++
			}
		}
	}

	d.logger.Info("dispatch complete",
		"pending", res.Pending,
		"subscribers", len(subs),
		"sent", res.Sent,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res, nil
}

type deliveryStatus int

const (
	delivered deliveryStatus = iota
	skipped
	failed
)

func (d *Dispatcher) deliver(ctx context.Context, job model.Job, chatID int64, text string) deliveryStatus {
	logger := d.logger.With("job_id", job.ID, "chat_id", chatID)

	if d.ledger != nil {
		claimed, err := d.ledger.Claim(ctx, job.ID, chatID)
		if err != nil {
			logger.Error("claiming delivery failed", "error", err)
			metrics.DeliveryFailures.Inc()
			return failed
		}
		if !claimed {
			logger.Debug("already delivered")
			return skipped
		}
	}

	if err := d.sender.Send(ctx, chatID, text); err != nil {
		logger.Warn("delivery failed", "error", err)
		metrics.DeliveryFailures.Inc()
		if d.ledger != nil {
			if rerr := d.ledger.Release(ctx, job.ID, chatID); rerr != nil {
				logger.Error("releasing delivery claim failed", "error", rerr)
			}
		}
		return failed
	}

	metrics.NotificationsSent.Inc()
	logger.Debug("delivered")
	return delivered
}
