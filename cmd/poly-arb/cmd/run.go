package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := app.New()
		if err := a.Initialize(ctx, configPath); err != nil {
			slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
			return err
		}
		defer a.Close()

		if err := a.Run(ctx); err != nil {
			slog.Error("Engine exited with error", slog.Any("error", err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
