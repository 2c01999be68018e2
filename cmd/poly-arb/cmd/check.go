package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = infra.ResolveConfigPath()
		}

		cfg, err := infra.LoadConfig(path)
		if err != nil {
			return err
		}

		fmt.Printf("config:    %s\n", path)
		fmt.Printf("mode:      %s\n", cfg.Trading.Mode)
		fmt.Printf("symbols:   %v\n", cfg.Engine.Symbols)
		fmt.Printf("window:    %ds (staleness %ds, wind-down %ds)\n",
			cfg.Engine.WindowSecs, cfg.Engine.StalenessThresholdSecs, cfg.Engine.WindDownBeforeEndSecs)
		fmt.Printf("overrun:   %s\n", cfg.Engine.OverrunPolicy)
		fmt.Printf("risk:      max_pos=%d max_order=%d trades/day=%d\n",
			cfg.Risk.MaxPositionMicros, cfg.Risk.MaxOrderSizeMicros, cfg.Risk.MaxTradesPerDay)
		fmt.Printf("strategy:  %s %s\n", cfg.Strategy.Name, cfg.Strategy.Version)
		if cfg.Trading.KillSwitch {
			fmt.Println("kill switch: ACTIVE")
		}
		fmt.Println("configuration OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
