package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect or reset per-source cursors",
}

var cursorShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cursor of every configured source",
	RunE:  runCursorShow,
}

var cursorResetCmd = &cobra.Command{
	Use:   "reset <source-id>",
	Short: "Delete a source's cursor so its next poll starts fresh",
	Long:  "Deletes lastcheck:<source-id>. The next poll of that source returns only postings dated today.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCursorReset,
}

func init() {
	rootCmd.AddCommand(cursorCmd)
	cursorCmd.AddCommand(cursorShowCmd)
	cursorCmd.AddCommand(cursorResetCmd)
}

func runCursorShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	sources, err := st.config.Sources(ctx)
	if err != nil {
		logger.Error("loading sources failed", "error", err)
		return err
	}

	fmt.Printf("%-20s %-25s %s\n", "Source", "Last Job ID", "Last Check")
	fmt.Println(strings.Repeat("─", 70))
	for _, s := range sources {
		c, err := st.cursors.Get(ctx, s.ID)
		if err != nil {
			logger.Error("loading cursor failed", "source", s.ID, "error", err)
			return err
		}
		if c == nil {
			fmt.Printf("%-20s %-25s %s\n", s.ID, "(none)", "-")
			continue
		}
		fmt.Printf("%-20s %-25s %s\n", s.ID, c.LastJobID, c.LastCheckTime.UTC().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runCursorReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	if err := st.cursors.Reset(ctx, args[0]); err != nil {
		logger.Error("resetting cursor failed", "source", args[0], "error", err)
		return err
	}
	logger.Info("cursor reset", "source", args[0])
	return nil
}
