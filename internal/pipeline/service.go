package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/amishk599/jobradar/internal/dispatch"
	"github.com/amishk599/jobradar/internal/model"
)

// SnapshotLoader reads the configuration snapshot for one invocation.
type SnapshotLoader interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

// Dispatcher delivers pending postings.
type Dispatcher interface {
	Dispatch(ctx context.Context) (dispatch.Result, error)
}

// Result is what one search invocation reports.
type Result struct {
	Summary
	Dispatch dispatch.Result `json:"dispatch"`
}

// Service runs a poll cycle followed by dispatch. Overlapping Search calls
// share the cycle already in flight.
type Service struct {
	config       SnapshotLoader
	orchestrator *Orchestrator
	dispatcher   Dispatcher // nil skips dispatch
	group        singleflight.Group
	logger       *slog.Logger
}

// NewService wires a Service. dispatcher may be nil.
func NewService(config SnapshotLoader, orchestrator *Orchestrator, dispatcher Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		config:       config,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Search loads the snapshot, polls every source, then dispatches. The
// returned Result carries whatever counts were accumulated even when err is set.
func (s *Service) Search(ctx context.Context) (Result, error) {
	v, err, shared := s.group.Do("search", func() (any, error) {
		// Detach so one caller going away does not cancel the cycle for the rest.
		return s.run(context.WithoutCancel(ctx))
	})
	if shared {
		s.logger.Debug("joined in-flight search")
	}
	res, _ := v.(Result)
	return res, err
}

// SearchOnce runs a cycle on the caller's context without joining or
// detaching from other searches, so cancelling ctx stops it. One-shot
// commands use it.
func (s *Service) SearchOnce(ctx context.Context) (Result, error) {
	return s.run(ctx)
}

func (s *Service) run(ctx context.Context) (Result, error) {
	var res Result

	snap, err := s.config.Snapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("loading configuration: %w", err)
	}

	res.Summary, err = s.orchestrator.RunCycle(ctx, snap)
	if err != nil {
		return res, err
	}

	if s.dispatcher == nil {
		return res, nil
	}
	res.Dispatch, err = s.dispatcher.Dispatch(ctx)
	if err != nil {
		return res, err
	}
	return res, nil
}
