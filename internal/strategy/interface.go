package strategy

import (
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// Decision is one strategy verdict for one market in one cycle. A nil Intent
// means no order this cycle; Reason says why either way.
type Decision struct {
	Intent *domain.OrderIntent
	Reason string
}

// NoOp builds an empty decision with a reason for the cycle report.
func NoOp(reason string) Decision {
	return Decision{Reason: reason}
}

// Decider turns a market snapshot and the believed position into at most one
// order intent. Implementations must be deterministic for a given input and
// must never mutate the position.
type Decider interface {
	// Decide is called once per (market, window) cycle with a fresh,
	// staleness-checked snapshot.
	Decide(snap domain.MarketSnapshot, pos domain.Position, now quant.TimeStamp) Decision

	// Version identifies the strategy revision. It feeds the idempotency
	// key, so bumping it allows re-entry into a window already traded by a
	// previous revision.
	Version() string
}
