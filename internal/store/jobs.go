package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobradar/internal/kv"
	"github.com/amishk599/jobradar/internal/model"
)

// DefaultRetention is how long a new posting stays eligible for notification.
const DefaultRetention = 2 * time.Hour

var (
	_ model.JobStore      = (*JobStore)(nil)
	_ model.PendingLister = (*JobStore)(nil)
)

// JobStore is the dedup ledger (job:<id>) plus the pending set (new:job:<id>).
type JobStore struct {
	base
	retention time.Duration
}

// NewJobStore returns a JobStore whose pending markers live for retention.
func NewJobStore(k kv.Store, retention, opTimeout time.Duration) *JobStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &JobStore{base: newBase(k, opTimeout), retention: retention}
}

// Retention returns the pending-notification window.
func (s *JobStore) Retention() time.Duration { return s.retention }

// PublishIfNew records job in the ledger and, only when this call created the
// ledger entry, adds it to the pending set. The ledger write is a conditional
// put, so two racing callers cannot both see stored=true. If the pending
// write fails the ledger entry is removed again so a later call can claim it.
func (s *JobStore) PublishIfNew(ctx context.Context, job model.Job) (bool, error) {
	stored, err := s.setNXJSON(ctx, publishedKey(job.ID), job, 0)
	if err != nil {
		return false, fmt.Errorf("publishing %s: %w", job.ID, err)
	}
	if !stored {
		return false, nil
	}
	if err := s.setJSON(ctx, pendingKey(job.ID), job, s.retention); err != nil {
		err = fmt.Errorf("marking %s pending: %w", job.ID, err)
		if derr := s.delete(context.WithoutCancel(ctx), publishedKey(job.ID)); derr != nil {
			err = errors.Join(err, fmt.Errorf("rolling back %s: %w", job.ID, derr))
		}
		return false, err
	}
	return true, nil
}

// Published returns the ledger copy of a job, or nil if it was never stored.
func (s *JobStore) Published(ctx context.Context, jobID string) (*model.Job, error) {
	var j model.Job
	found, err := s.getJSON(ctx, publishedKey(jobID), &j)
	if err != nil || !found {
		return nil, err
	}
	return &j, nil
}

// Pending returns every unexpired pending notification, newest first.
func (s *JobStore) Pending(ctx context.Context) ([]model.Job, error) {
	keys, err := s.keys(ctx, prefixPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending jobs: %w", err)
	}

	jobs := make([]model.Job, 0, len(keys))
	for _, key := range keys {
		var j model.Job
		found, err := s.getJSON(ctx, key, &j)
		if err != nil {
			return nil, fmt.Errorf("loading pending job %s: %w", strings.TrimPrefix(key, prefixPending), err)
		}
		// Expired between the listing and the read.
		if !found {
			continue
		}
		jobs = append(jobs, j)
	}

	sort.SliceStable(jobs, func(i, k int) bool {
		a, b := jobs[i].PostedAt, jobs[k].PostedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return jobs[i].ID < jobs[k].ID
	})
	return jobs, nil
}
