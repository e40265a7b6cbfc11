package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List postings still awaiting notification",
	RunE:  runPending,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	jobs, err := st.jobs.Pending(ctx)
	if err != nil {
		logger.Error("listing pending jobs failed", "error", err)
		return err
	}

	fmt.Printf("%-30s %-20s %-20s %s\n", "Job ID", "Profession", "Posted", "Title")
	fmt.Println(strings.Repeat("─", 100))
	for _, j := range jobs {
		posted := "n/a"
		if j.PostedAt != nil {
			posted = j.PostedAt.UTC().Format("2006-01-02 15:04")
		}
		fmt.Printf("%-30s %-20s %-20s %s\n", j.ID, j.Profession, posted, j.Title)
	}
	fmt.Printf("\nTotal: %d pending (retention %s)\n", len(jobs), st.jobs.Retention())
	return nil
}
