package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/adapter"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and professions",
	Long:  "Reads config:sources and config:professions from the store and prints them.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	snap, err := st.config.Snapshot(ctx)
	if err != nil {
		logger.Error("loading configuration snapshot failed", "error", err)
		return err
	}

	supported := make(map[string]bool)
	for _, t := range adapter.Types() {
		supported[string(t)] = true
	}

	fmt.Printf("%-20s %-25s %-12s %s\n", "ID", "Name", "Type", "Status")
	fmt.Println(strings.Repeat("─", 70))
	unsupported := 0
	for _, s := range snap.Sources {
		status := "ok"
		if err := s.Validate(); err != nil {
			status = "invalid"
			unsupported++
		} else if !supported[string(s.Type)] {
			status = "unsupported type"
			unsupported++
		}
		fmt.Printf("%-20s %-25s %-12s %s\n", s.ID, s.Name, s.Type, status)
	}
	fmt.Printf("\nTotal: %d sources (%d will fail)\n\n", len(snap.Sources), unsupported)

	fmt.Printf("%-20s %-25s %s\n", "ID", "Profession", "Keywords")
	fmt.Println(strings.Repeat("─", 70))
	for _, p := range snap.Professions {
		fmt.Printf("%-20s %-25s %s\n", p.ID, p.Name, strings.Join(p.Keywords, ", "))
	}
	fmt.Printf("\nTotal: %d professions\n", len(snap.Professions))
	return nil
}
