package main

import (
	"os"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/cmd/poly-arb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
