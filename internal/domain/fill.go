package domain

import (
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// Fill is a confirmed (partial or complete) execution reported by the
// exchange. FillID is the exchange-assigned identifier and is the dedup key:
// replaying the same fill is a no-op everywhere.
type Fill struct {
	FillID          string            `json:"fill_id"`
	ExchangeOrderID string            `json:"order_id"`
	MarketID        string            `json:"market_id"`
	Side            Side              `json:"side"`
	PriceMicros     quant.PriceMicros `json:"price"`
	SizeMicros      quant.SizeMicros  `json:"size"`
	Seq             uint64            `json:"seq"` // exchange-assigned ordering
	Ts              quant.TimeStamp   `json:"ts"`
}

// SignedSizeMicros returns the position delta this fill causes.
func (f *Fill) SignedSizeMicros() quant.SizeMicros {
	if f.Side == SideSell {
		return -f.SizeMicros
	}
	return f.SizeMicros
}
