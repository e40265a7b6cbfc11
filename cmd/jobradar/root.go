package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/classifier"
	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/dispatch"
	"github.com/amishk599/jobradar/internal/kv"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/notifier"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/ratelimit"
	"github.com/amishk599/jobradar/internal/retry"
	"github.com/amishk599/jobradar/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobradar",
	Short: "Job radar for new postings in your region",
	Long:  "jobradar polls company job boards, keeps postings in the target region that match a profession, and alerts subscribers.",
	// No subcommand runs the service, so a bare binary works as a unit file entry point.
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBRADAR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads .env (if any) so secrets expand into the YAML, then parses
// the config file chosen by config.ResolvePath.
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return config.Load(config.ResolvePath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupSender(cfg *config.Config, logger *slog.Logger) model.Sender {
	switch cfg.Notification.Type {
	case "telegram":
		logger.Info("using telegram sender", "rate_per_second", cfg.Notification.RatePerSecond)
		client := &http.Client{Timeout: cfg.Notification.Timeout}
		return notifier.NewTelegramSender(cfg.Notification.APIURL, cfg.Notification.BotToken, cfg.Notification.RatePerSecond, client, logger)
	default:
		return notifier.NewLogSender(logger)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return kv.Open(ctx, kv.Options{
		Backend:     cfg.Storage.Backend,
		RedisURL:    cfg.Storage.RedisURL,
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
	})
}

// buildFactory returns an AdapterFactory that wraps every adapter with retry
// and the shared per-type rate limiter.
func buildFactory(cfg *config.Config, logger *slog.Logger) pipeline.AdapterFactory {
	httpClient := &http.Client{Timeout: cfg.Polling.FetchTimeout}
	limiter := ratelimit.NewLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.Overrides)
	logger.Debug("rate limiter configured", "min_delay", cfg.RateLimit.MinDelay.String())

	return func(src model.JobSource) (model.SourceAdapter, error) {
		a, err := adapter.New(src, httpClient)
		if err != nil {
			return nil, err
		}
		limited := ratelimit.Wrap(a, limiter, src.Type)
		return retry.New(limited, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger.With("source", src.ID)), nil
	}
}

// stores bundles the record stores over one kv backend.
type stores struct {
	kv          kv.Store
	config      *store.ConfigStore
	cursors     *store.CursorStore
	jobs        *store.JobStore
	subscribers *store.SubscriberStore
	ledger      *store.DeliveryLedger
}

func newStores(k kv.Store, cfg *config.Config) stores {
	op := cfg.Storage.OpTimeout
	return stores{
		kv:          k,
		config:      store.NewConfigStore(k, op),
		cursors:     store.NewCursorStore(k, op),
		jobs:        store.NewJobStore(k, cfg.Retention, op),
		subscribers: store.NewSubscriberStore(k, op),
		ledger:      store.NewDeliveryLedger(k, cfg.Retention, op),
	}
}

// connect loads config, opens the backend and builds the stores. The caller
// closes the returned kv store.
func connect(ctx context.Context) (*config.Config, stores, *slog.Logger, error) {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return nil, stores{}, logger, err
	}

	k, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Storage.Backend, "error", err)
		return nil, stores{}, logger, err
	}
	return cfg, newStores(k, cfg), logger, nil
}

func newDispatcher(cfg *config.Config, st stores, sender model.Sender, logger *slog.Logger) *dispatch.Dispatcher {
	var ledger dispatch.Ledger
	if cfg.Dispatch.DedupeDeliveries {
		ledger = st.ledger
	}
	return dispatch.New(st.jobs, st.subscribers, sender, ledger, logger)
}

func newOrchestrator(cfg *config.Config, cursors model.CursorStore, jobs model.JobStore, logger *slog.Logger) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(
		buildFactory(cfg, logger),
		cursors,
		jobs,
		classifier.NewLocationGate(cfg.Region.Name, cfg.Region.Aliases),
		pipeline.Options{
			Concurrency:  cfg.Polling.Concurrency,
			FetchTimeout: cfg.Polling.FetchTimeout,
			Strategy:     cfg.Classifier.Strategy,
		},
		logger,
	)
}
