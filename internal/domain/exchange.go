package domain

import (
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// SubmitResult is the exchange's answer to an order submission.
type SubmitResult struct {
	ExchangeOrderID string
	Status          OrderStatus
	FilledMicros    quant.SizeMicros
	Fills           []Fill
}

// StatusResult is the exchange's answer to an order status query.
// Fills carries everything the exchange reports for the order so late
// (post-timeout) executions can be applied to the ledger.
type StatusResult struct {
	ExchangeOrderID string
	Status          OrderStatus
	FilledMicros    quant.SizeMicros
	Fills           []Fill
}
