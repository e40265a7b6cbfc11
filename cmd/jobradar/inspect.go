package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/classifier"
	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/console"
	"github.com/amishk599/jobradar/internal/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Browse a source's postings and classifier verdicts (TUI)",
	Long:  "Shows the source picker, fetches the chosen source without a cursor, then opens the split accepted/rejected view.",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	snap, err := st.config.Snapshot(ctx)
	if err != nil {
		logger.Error("loading configuration snapshot failed", "error", err)
		return err
	}
	if len(snap.Sources) == 0 {
		fmt.Println("No sources configured. Run `jobradar seed` first.")
		return nil
	}

	matcher, err := classifier.NewMatcher(cfg.Classifier.Strategy, snap.Professions)
	if err != nil {
		return err
	}
	cls := classifier.New(classifier.NewLocationGate(cfg.Region.Name, cfg.Region.Aliases), matcher)

	// Log output before the alt screen starts corrupts the display.
	silent := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := buildFactory(cfg, silent)

	for {
		choice, err := console.RunSourcePicker(snap.Sources)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		src := snap.Sources[choice]

		quit, err := inspectSource(ctx, cfg, cls, src, factory)
		if err != nil {
			fmt.Printf("%s: %v\n", src.Name, err)
			continue
		}
		if quit {
			return nil
		}
	}
}

func inspectSource(ctx context.Context, cfg *config.Config, cls *classifier.Classifier, src model.JobSource, factory func(model.JobSource) (model.SourceAdapter, error)) (bool, error) {
	a, err := factory(src)
	if err != nil {
		return false, err
	}

	jobs, err := console.RunLoader(ctx, "Fetching jobs from "+src.Name, func(ctx context.Context) ([]model.Job, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Polling.FetchTimeout+time.Minute)
		defer cancel()
		return a.Fetch(ctx, "")
	})
	if err != nil {
		return false, err
	}

	accepted, rejected := console.Partition(cls, jobs)
	return console.RunInspector(src.Name, accepted, rejected)
}
