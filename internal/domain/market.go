package domain

import (
	"time"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// MarketStatus is the lifecycle state of a resolution-window market.
type MarketStatus string

const (
	MarketOpen     MarketStatus = "OPEN"
	MarketClosing  MarketStatus = "CLOSING"
	MarketResolved MarketStatus = "RESOLVED"
)

// MarketSnapshot is a timestamped read of one market's book state.
// Snapshots are immutable once fetched; a RESOLVED market never changes again.
type MarketSnapshot struct {
	MarketID string `json:"market_id"`
	Symbol   string `json:"symbol"` // e.g. "btc", "eth"

	WindowStart quant.TimeStamp `json:"window_start"`
	WindowEnd   quant.TimeStamp `json:"window_end"`

	BestBidMicros quant.PriceMicros `json:"best_bid"`
	BestAskMicros quant.PriceMicros `json:"best_ask"`
	LastMicros    quant.PriceMicros `json:"last"`
	BidDepth      quant.SizeMicros  `json:"bid_depth"`
	AskDepth      quant.SizeMicros  `json:"ask_depth"`

	Status    MarketStatus    `json:"status"`
	FetchedAt quant.TimeStamp `json:"fetched_at"`
}

// MidMicros returns the mid price, or 0 when either side of the book is empty.
func (s *MarketSnapshot) MidMicros() quant.PriceMicros {
	if s.BestBidMicros <= 0 || s.BestAskMicros <= 0 {
		return 0
	}
	return (s.BestBidMicros + s.BestAskMicros) / 2
}

// Age returns how old the snapshot is relative to now.
func (s *MarketSnapshot) Age(now quant.TimeStamp) time.Duration {
	return time.Duration(now-s.FetchedAt) * time.Microsecond
}

// IsStale reports whether the snapshot is older than the given threshold.
func (s *MarketSnapshot) IsStale(now quant.TimeStamp, threshold time.Duration) bool {
	return s.Age(now) > threshold
}

// IsTradable reports whether orders may be placed against this snapshot.
func (s *MarketSnapshot) IsTradable() bool {
	return s.Status == MarketOpen
}
