package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "poly-arb",
	Short: "5-minute window trading bot for prediction markets",
	Long: `poly-arb trades 5-minute resolution-window prediction markets.

Each window it reconciles its position ledger against the exchange, fetches
fresh market data, runs the scalp strategy, and places at most one order per
market per window, with full crash recovery from its local fill journal.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: configs/config.yaml)")
}
