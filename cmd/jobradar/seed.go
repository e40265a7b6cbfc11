package main

import (
	"context"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the config file's seed sources and professions to the store",
	Long:  "Replaces config:sources and config:professions with the seed lists from the config file. Empty lists are skipped.",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	if len(cfg.Seed.Sources) > 0 {
		if err := st.config.SaveSources(ctx, cfg.Seed.Sources); err != nil {
			logger.Error("saving sources failed", "error", err)
			return err
		}
		logger.Info("seeded sources", "count", len(cfg.Seed.Sources))
	}
	if len(cfg.Seed.Professions) > 0 {
		if err := st.config.SaveProfessions(ctx, cfg.Seed.Professions); err != nil {
			logger.Error("saving professions failed", "error", err)
			return err
		}
		logger.Info("seeded professions", "count", len(cfg.Seed.Professions))
	}
	if len(cfg.Seed.Sources) == 0 && len(cfg.Seed.Professions) == 0 {
		logger.Warn("config has no seed section, nothing written")
	}
	return nil
}
