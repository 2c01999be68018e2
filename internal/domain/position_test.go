package domain

import (
	"testing"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

func TestPosition_Direction(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		isLong  bool
		isShort bool
		isFlat  bool
	}{
		{"Long", 10000000, true, false, false},
		{"Short", -10000000, false, true, false},
		{"Flat", 0, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Position{SizeMicros: quant.SizeMicros(tt.size)}
			if got := p.IsLong(); got != tt.isLong {
				t.Errorf("IsLong() = %v, want %v", got, tt.isLong)
			}
			if got := p.IsShort(); got != tt.isShort {
				t.Errorf("IsShort() = %v, want %v", got, tt.isShort)
			}
			if got := p.IsFlat(); got != tt.isFlat {
				t.Errorf("IsFlat() = %v, want %v", got, tt.isFlat)
			}
		})
	}
}

func TestPosition_UnrealizedPnL(t *testing.T) {
	// Long 10 shares from 0.40, marked at 0.45 -> +0.50 USDC
	p := &Position{SizeMicros: 10000000, AvgEntryMicros: 400000}
	if got := p.UnrealizedPnLMicros(450000); got != 500000 {
		t.Errorf("UnrealizedPnLMicros = %d, want 500000", got)
	}

	// Same position marked below entry -> negative
	if got := p.UnrealizedPnLMicros(350000); got != -500000 {
		t.Errorf("UnrealizedPnLMicros = %d, want -500000", got)
	}

	// Flat position has no unrealized PnL
	flat := &Position{}
	if got := flat.UnrealizedPnLMicros(450000); got != 0 {
		t.Errorf("flat UnrealizedPnLMicros = %d, want 0", got)
	}
}
