package adapter

import (
	"sort"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// posting pairs a normalized job with its upstream id.
type posting struct {
	native string
	job    model.Job
}

// sortNewestFirst orders postings by posted time, newest first. Postings
// without a timestamp sink to the end; ties fall back to native id, highest first.
func sortNewestFirst(ps []posting) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i].job.PostedAt, ps[j].job.PostedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return nativeGreater(ps[i].native, ps[j].native)
	})
}

// nativeGreater compares numeric ids by value and everything else lexically.
func nativeGreater(a, b string) bool {
	if isDigits(a) && isDigits(b) && len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// applyCursor cuts a newest-first list down to what the caller has not seen.
//
// With a cursor hint it returns every posting ahead of the hint. If the hint is
// no longer listed it returns nothing: a vanished cursor must never turn into
// a full re-ingest. Without a hint only postings dated today (UTC) are kept.
func applyCursor(ps []posting, cursorHint string, now time.Time) []model.Job {
	jobs := make([]model.Job, 0)
	if cursorHint != "" {
		for _, p := range ps {
			if p.native == cursorHint {
				return jobs
			}
			jobs = append(jobs, p.job)
		}
		return jobs[:0]
	}

	y, m, d := now.UTC().Date()
	for _, p := range ps {
		if p.job.PostedAt == nil {
			continue
		}
		py, pm, pd := p.job.PostedAt.UTC().Date()
		if py == y && pm == m && pd == d {
			jobs = append(jobs, p.job)
		}
	}
	return jobs
}
