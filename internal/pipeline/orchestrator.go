// Package pipeline runs poll cycles: fetch each source from its cursor,
// classify, publish new postings, then hand off to dispatch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobradar/internal/classifier"
	"github.com/amishk599/jobradar/internal/metrics"
	"github.com/amishk599/jobradar/internal/model"
)

// DefaultFetchTimeout bounds a single source fetch, retries included.
const DefaultFetchTimeout = 30 * time.Second

// AdapterFactory builds the decorated adapter for one source.
type AdapterFactory func(source model.JobSource) (model.SourceAdapter, error)

// Outcome is the result of polling one source.
type Outcome struct {
	SourceID string `json:"sourceId"`
	Name     string `json:"name"`
	Found    int    `json:"jobsFound"`
	Stored   int    `json:"jobsStored"`
	Failure  string `json:"failure,omitempty"` // failure kind, empty on success
	Error    string `json:"error,omitempty"`
	Err      error  `json:"-"`
}

// OK reports whether the source completed without error.
func (o Outcome) OK() bool { return o.Err == nil }

func (o *Outcome) fail(err error) {
	o.Err = err
	o.Error = err.Error()
	o.Failure = model.FailureKind(err)
}

// Summary aggregates one poll cycle.
type Summary struct {
	CycleID    string        `json:"cycleId"`
	Sources    []Outcome     `json:"sources"`
	JobsFound  int           `json:"totalJobsFound"`
	JobsStored int           `json:"totalJobsStored"`
	Failed     int           `json:"failedSources"`
	Duration   time.Duration `json:"-"`
}

// Options tunes an Orchestrator. Zero values select defaults.
type Options struct {
	Concurrency  int           // sources polled in parallel, default 1
	FetchTimeout time.Duration // per-source fetch bound, default 30s
	Strategy     string        // classifier strategy, default substring
}

// Orchestrator drives poll cycles over a configuration snapshot.
type Orchestrator struct {
	adapters AdapterFactory
	cursors  model.CursorStore
	jobs     model.JobStore
	gate     *classifier.LocationGate
	opts     Options
	locks    *sourceLocks
	logger   *slog.Logger
}

// NewOrchestrator wires an Orchestrator with all its dependencies.
func NewOrchestrator(
	adapters AdapterFactory,
	cursors model.CursorStore,
	jobs model.JobStore,
	gate *classifier.LocationGate,
	opts Options,
	logger *slog.Logger,
) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	return &Orchestrator{
		adapters: adapters,
		cursors:  cursors,
		jobs:     jobs,
		gate:     gate,
		opts:     opts,
		locks:    newSourceLocks(),
		logger:   logger,
	}
}

// RunCycle polls every source in snap once. Per-source failures are recorded
// in the summary and never abort the cycle; the returned error is reserved for
// failures that prevent the cycle from running at all.
func (o *Orchestrator) RunCycle(ctx context.Context, snap model.Snapshot) (Summary, error) {
	start := time.Now()
	summary := Summary{CycleID: uuid.NewString()}
	logger := o.logger.With("cycle_id", summary.CycleID)

	matcher, err := classifier.NewMatcher(o.opts.Strategy, snap.Professions)
	if err != nil {
		return summary, fmt.Errorf("building classifier: %w", err)
	}
	cls := classifier.New(o.gate, matcher)

	logger.Info("poll cycle starting",
		"sources", len(snap.Sources),
		"professions", len(snap.Professions),
		"concurrency", o.opts.Concurrency,
	)

	summary.Sources = make([]Outcome, len(snap.Sources))
	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, src := range snap.Sources {
		i, src := i, src
		g.Go(func() error {
			summary.Sources[i] = o.pollSource(ctx, src, cls, logger)
			return nil
		})
	}
	_ = g.Wait()

	for _, out := range summary.Sources {
		summary.JobsFound += out.Found
		summary.JobsStored += out.Stored
		if !out.OK() {
			summary.Failed++
		}
	}
	summary.Duration = time.Since(start)
	metrics.CycleDuration.Observe(summary.Duration.Seconds())

	logger.Info("poll cycle complete",
		"found", summary.JobsFound,
		"stored", summary.JobsStored,
		"failed_sources", summary.Failed,
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary, nil
}

// pollSource runs fetch, classify and publish for one source under its lock.
func (o *Orchestrator) pollSource(ctx context.Context, src model.JobSource, cls *classifier.Classifier, logger *slog.Logger) Outcome {
	unlock := o.locks.lock(src.ID)
	defer unlock()

	out := Outcome{SourceID: src.ID, Name: src.Name}
	logger = logger.With("source", src.ID, "source_type", string(src.Type))

	defer func() {
		metrics.JobsFound.WithLabelValues(src.ID).Add(float64(out.Found))
		metrics.JobsStored.WithLabelValues(src.ID).Add(float64(out.Stored))
		if out.Err != nil {
			metrics.SourceFailures.WithLabelValues(src.ID, out.Failure).Inc()
			logger.Error("source failed", "kind", out.Failure, "found", out.Found, "stored", out.Stored, "error", out.Err)
			return
		}
		logger.Info("polled source", "found", out.Found, "stored", out.Stored)
	}()

	adapter, err := o.adapters(src)
	if err != nil {
		out.fail(err)
		return out
	}

	cursor, err := o.cursors.Get(ctx, src.ID)
	if err != nil {
		out.fail(err)
		return out
	}
	hint := ""
	if cursor != nil {
		hint = cursor.LastJobID
	}

	jobs, err := o.fetch(ctx, adapter, hint)
	if err != nil {
		out.fail(err)
		return out
	}
	out.Found = len(jobs)

	for _, job := range jobs {
		classified, ok := cls.Classify(job)
		if !ok {
			logger.Debug("job dropped", "job_id", job.ID, "title", job.Title, "location", job.Location)
			continue
		}

		stored, err := o.jobs.PublishIfNew(ctx, classified)
		if err != nil {
			out.fail(err)
			return out
		}
		if stored {
			out.Stored++
			logger.Debug("job published", "job_id", classified.ID, "profession", classified.Profession)
		}
	}

	// The cursor moves only after every posting of this fetch is published,
	// so a store failure above leaves it where it was and the next cycle
	// re-fetches the same window.
	if len(jobs) > 0 {
		native, ok := model.NativeID(src.ID, jobs[0].ID)
		if !ok {
			out.fail(fmt.Errorf("%w: job id %q does not belong to source %s", model.ErrSourceSchema, jobs[0].ID, src.ID))
			return out
		}
		if err := o.cursors.Advance(ctx, src.ID, native); err != nil {
			out.fail(err)
			return out
		}
	}
	return out
}

// fetch calls the adapter under the fetch timeout. Running out of time is a
// source outage, not a cancellation of the cycle.
func (o *Orchestrator) fetch(ctx context.Context, adapter model.SourceAdapter, hint string) ([]model.Job, error) {
	fctx, cancel := context.WithTimeout(ctx, o.opts.FetchTimeout)
	defer cancel()

	jobs, err := adapter.Fetch(fctx, hint)
	if err == nil {
		return jobs, nil
	}
	if errors.Is(err, model.ErrSourceUnavailable) || errors.Is(err, model.ErrSourceSchema) {
		return nil, err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("%w: fetch timed out after %s: %w", model.ErrSourceUnavailable, o.opts.FetchTimeout, err)
	}
	return nil, fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
}
