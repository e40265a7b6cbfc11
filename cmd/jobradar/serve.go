package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/api"
	"github.com/amishk599/jobradar/internal/kv"
	"github.com/amishk599/jobradar/internal/metrics"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the polling schedule",
	Long:  "Serves /search, /new-jobs, /healthz and /metrics, and runs a search every polling.interval when it is set. Blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	logger.Info("config loaded",
		"backend", cfg.Storage.Backend,
		"interval", cfg.Polling.Interval.String(),
		"concurrency", cfg.Polling.Concurrency,
		"retention", cfg.Retention.String(),
		"region", cfg.Region.Name,
		"strategy", cfg.Classifier.Strategy,
	)

	metrics.Register()

	svc := pipeline.NewService(
		st.config,
		newOrchestrator(cfg, st.cursors, st.jobs, logger),
		newDispatcher(cfg, st, setupSender(cfg, logger), logger),
		logger,
	)

	var sched *scheduler.Scheduler
	if cfg.Polling.Interval > 0 {
		purger, _ := st.kv.(kv.Purger)
		sched, err = scheduler.New(svc, purger, cfg.Polling.Interval, logger)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
	} else {
		logger.Info("polling.interval not set, searches run only on POST /search")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.New(svc, st.jobs, st.kv, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("http server failed", "error", serveErr)
		}
	case <-ctx.Done():
	}
	stop()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler did not stop cleanly", "error", err)
		}
	}

	logger.Info("goodbye")
	return serveErr
}
