package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fullstackslife/guild-scout-reports/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "scout-reports",
	Short: "Scout report reconciliation and contributor credibility engine",
	Long:  "Reconciles human-entered scout reports against their OCR-extracted counterparts field by field, and maintains per-contributor credibility profiles with derived reliability tiers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
