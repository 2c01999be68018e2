package quant

import (
	"fmt"
)

// PriceMicros represents a share price multiplied by 1,000,000 (10^6).
// Prediction-market prices live in (0, 1), so valid values are (0, 1_000_000).
// E.g., 0.42 USDC = 420,000 PriceMicros.
type PriceMicros int64

// SizeMicros represents a share quantity multiplied by 1,000,000 (10^6).
// E.g., 10 shares = 10,000,000 SizeMicros.
type SizeMicros int64

// TimeStamp represents Unix Microseconds.
type TimeStamp int64

const (
	PriceScale = 1000000
	SizeScale  = 1000000

	// PriceMax is the price of a settled winning share ($1.00).
	PriceMax PriceMicros = PriceScale
)

func (p PriceMicros) String() string {
	return fmt.Sprintf("%.6f", float64(p)/PriceScale)
}

func (s SizeMicros) String() string {
	return fmt.Sprintf("%.6f", float64(s)/SizeScale)
}

// Valid reports whether the price is inside the tradable band (0, $1).
func (p PriceMicros) Valid() bool {
	return p > 0 && p < PriceMax
}
