package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send pending alerts to subscribers without polling",
	RunE:  runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, st, logger, err := connect(ctx)
	if err != nil {
		return err
	}
	defer st.kv.Close()

	res, err := newDispatcher(cfg, st, setupSender(cfg, logger), logger).Dispatch(ctx)
	if err != nil {
		logger.Error("dispatch failed", "error", err)
		return err
	}
	fmt.Printf("Pending: %d  sent: %d  failed: %d  already delivered: %d\n", res.Pending, res.Sent, res.Failed, res.Skipped)
	return nil
}
