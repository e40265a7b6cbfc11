package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/notifier"
)

var chatID int64

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test alert",
	Long:  "Sends a sample job alert to --chat through the configured sender.",
	RunE:  runNotifyTest,
}

func init() {
	notifyTestCmd.Flags().Int64Var(&chatID, "chat", 0, "chat id to send the test alert to")
	_ = notifyTestCmd.MarkFlagRequired("chat")
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	if err := notifier.SendTestMessage(context.Background(), setupSender(cfg, logger), chatID); err != nil {
		logger.Error("test notification failed", "error", err)
		return err
	}
	logger.Info("test notification sent successfully", "chat_id", chatID)
	return nil
}
