package domain

import (
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// Decision labels for cycle reports.
const (
	DecisionNoOp       = "NOOP"
	DecisionPlace      = "PLACE"
	DecisionSkipStale  = "SKIP_STALE"
	DecisionSkipKill   = "SKIP_KILL_SWITCH"
	DecisionSkipHalted = "SKIP_HALTED"
	DecisionSkipRisk   = "SKIP_RISK_LIMIT"
	DecisionSkipWindow = "SKIP_WINDOW_CLOSED"
	DecisionSkipError  = "SKIP_ERROR"
	DecisionDrift      = "HALT_LEDGER_DRIFT"
)

// CycleReport is the structured per-cycle telemetry event: one per
// (market, window) pass, published after the cycle finishes for any reason.
type CycleReport struct {
	Window        quant.WindowID  `json:"window"`
	MarketID      string          `json:"market_id"`
	Decision      string          `json:"decision"`
	OrderStatus   OrderStatus     `json:"order_status,omitempty"`
	LatencyMicros int64           `json:"latency_micros"`
	Error         string          `json:"error,omitempty"`
	Ts            quant.TimeStamp `json:"ts"`
}
