package domain

import (
	"testing"
	"time"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

func TestMarketSnapshot_Staleness(t *testing.T) {
	fetched := quant.TimeStamp(1_700_000_000_000_000)
	snap := &MarketSnapshot{FetchedAt: fetched}

	// 3 minutes old, threshold 2.5 minutes -> stale
	now := fetched + quant.TimeStamp(3*time.Minute/time.Microsecond)
	if !snap.IsStale(now, 150*time.Second) {
		t.Error("3m-old snapshot must be stale at a 2.5m threshold")
	}

	// 2 minutes old, threshold 2.5 minutes -> fresh
	now = fetched + quant.TimeStamp(2*time.Minute/time.Microsecond)
	if snap.IsStale(now, 150*time.Second) {
		t.Error("2m-old snapshot must be fresh at a 2.5m threshold")
	}
}

func TestMarketSnapshot_Mid(t *testing.T) {
	tests := []struct {
		name     string
		bid, ask quant.PriceMicros
		want     quant.PriceMicros
	}{
		{"normal book", 400000, 440000, 420000},
		{"empty bid", 0, 440000, 0},
		{"empty ask", 400000, 0, 0},
		{"empty book", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &MarketSnapshot{BestBidMicros: tt.bid, BestAskMicros: tt.ask}
			if got := snap.MidMicros(); got != tt.want {
				t.Errorf("MidMicros() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMarketSnapshot_IsTradable(t *testing.T) {
	for _, tt := range []struct {
		status MarketStatus
		want   bool
	}{
		{MarketOpen, true},
		{MarketClosing, false},
		{MarketResolved, false},
	} {
		snap := &MarketSnapshot{Status: tt.status}
		if got := snap.IsTradable(); got != tt.want {
			t.Errorf("IsTradable(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
