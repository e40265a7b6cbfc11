// Package scheduler triggers the search pipeline on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobradar/internal/kv"
	"github.com/amishk599/jobradar/internal/pipeline"
)

// Searcher runs one search invocation.
type Searcher interface {
	Search(ctx context.Context) (pipeline.Result, error)
}

// Scheduler wraps robfig/cron and runs Search every interval. After each run
// it purges expired rows when the backend needs it.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	search Searcher
	purger kv.Purger // nil for backends with native expiry
	logger *slog.Logger
	first  sync.WaitGroup // the run kicked off by Start
}

// New creates a Scheduler. purger may be nil.
func New(search Searcher, purger kv.Purger, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %v", interval)
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:   "@every " + interval.String(),
		search: search,
		purger: purger,
		logger: logger,
	}, nil
}

// Start registers the job, starts the cron loop and kicks off one run right
// away so pending postings exist without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	s.first.Add(1)
	go func() {
		defer s.first.Done()
		s.RunOnce(ctx)
	}()
	return nil
}

// Stop halts the cron loop and waits, until ctx is done, for running jobs
// including the initial run started by Start.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.first.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running search: %w", ctx.Err())
	}
}

// RunOnce performs a single search followed by a purge. Errors are logged.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	res, err := s.search.Search(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("scheduled search failed", "error", err)
	} else if err == nil {
		s.logger.Info("scheduled search complete",
			"cycle_id", res.CycleID,
			"jobs_found", res.JobsFound,
			"jobs_stored", res.JobsStored,
			"failed_sources", res.Failed,
			"sent", res.Dispatch.Sent,
		)
	}

	if s.purger == nil {
		return
	}
	n, err := s.purger.Purge(ctx)
	if err != nil {
		s.logger.Warn("purging expired keys failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("purged expired keys", "count", n)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
