package domain

import (
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/safe"
)

// Position is the bot's believed exposure in one market.
// All monetary values are strictly int64 fixed point.
// Mutated only by the ledger from confirmed fills, never by intents.
type Position struct {
	MarketID          string            `json:"market_id"`
	SizeMicros        quant.SizeMicros  `json:"size"`      // positive = long YES shares
	AvgEntryMicros    quant.PriceMicros `json:"avg_entry"` // weighted average entry price
	RealizedPnLMicros int64             `json:"realized_pnl"`
}

// IsLong checks if the position holds shares.
func (p *Position) IsLong() bool {
	return p.SizeMicros > 0
}

// IsShort checks if the position is net short.
func (p *Position) IsShort() bool {
	return p.SizeMicros < 0
}

// IsFlat checks if there is no exposure.
func (p *Position) IsFlat() bool {
	return p.SizeMicros == 0
}

// UnrealizedPnLMicros marks the open exposure to the given price.
func (p *Position) UnrealizedPnLMicros(mark quant.PriceMicros) int64 {
	if p.SizeMicros == 0 {
		return 0
	}
	diff := safe.Sub(int64(mark), int64(p.AvgEntryMicros))
	return safe.MulDiv(diff, int64(p.SizeMicros), quant.SizeScale)
}
