package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/console"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/store"
)

var (
	dryRun     bool
	noDispatch bool
	progress   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search cycle and exit",
	Long:  "Polls every configured source once, publishes new matches, then dispatches pending alerts. --dry-run reads cursors but writes nothing and sends nothing.",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "poll and classify, but do not advance cursors, publish or notify")
	searchCmd.Flags().BoolVar(&noDispatch, "no-dispatch", false, "publish new jobs but do not notify subscribers")
	searchCmd.Flags().BoolVar(&progress, "progress", false, "show a spinner while the cycle runs")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	var (
		cursors model.CursorStore = st.cursors
		jobs    model.JobStore    = st.jobs
	)
	if dryRun {
		logger.Info("dry-run mode: cursors and the job ledger are left untouched")
		cursors = store.NopCursorStore{Reader: st.cursors}
		jobs = store.NopJobStore{}
	}

	var dispatcher pipeline.Dispatcher
	if !dryRun && !noDispatch {
		dispatcher = newDispatcher(cfg, st, setupSender(cfg, logger), logger)
	}

	svc := pipeline.NewService(st.config, newOrchestrator(cfg, cursors, jobs, logger), dispatcher, logger)

	var res pipeline.Result
	if progress {
		res, err = console.RunLoader(ctx, "Searching job boards", svc.SearchOnce)
	} else {
		res, err = svc.SearchOnce(ctx)
	}
	if err != nil {
		logger.Error("search failed", "error", err)
		return err
	}

	printSummary(res, dispatcher != nil)
	return nil
}

func printSummary(res pipeline.Result, dispatched bool) {
	fmt.Printf("\n%-25s %-8s %-8s %s\n", "Source", "Found", "Stored", "Status")
	fmt.Println(strings.Repeat("─", 60))
	for _, o := range res.Sources {
		status := "ok"
		if !o.OK() {
			status = o.Failure + ": " + o.Error
		}
		fmt.Printf("%-25s %-8d %-8d %s\n", o.Name, o.Found, o.Stored, status)
	}

	fmt.Printf("\nTotal: %d found, %d stored, %d failed sources (cycle %s, %s)\n",
		res.JobsFound, res.JobsStored, res.Failed, res.CycleID, res.Duration.Round(time.Millisecond))
	if dispatched {
		fmt.Printf("Notifications: %d sent, %d failed, %d already delivered\n",
			res.Dispatch.Sent, res.Dispatch.Failed, res.Dispatch.Skipped)
	}
}
