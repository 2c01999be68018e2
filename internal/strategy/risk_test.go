package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

func testGuard() *RiskGuard {
	cfg := &infra.Config{}
	cfg.Risk.MaxPositionMicros = 50_000_000
	cfg.Risk.MaxOrderSizeMicros = 20_000_000
	cfg.Risk.MaxTradesPerDay = 2
	return NewRiskGuard(cfg)
}

func intent(side domain.Side, size, price int64) *domain.OrderIntent {
	return &domain.OrderIntent{
		MarketID:         "mkt-btc",
		Side:             side,
		SizeMicros:       quant.SizeMicros(size),
		LimitPriceMicros: quant.PriceMicros(price),
	}
}

func TestRiskGuard_Validate(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		intent *domain.OrderIntent
		pos    domain.Position
		wantOK bool
	}{
		{
			name:   "valid buy",
			intent: intent(domain.SideBuy, 10_000_000, 500000),
			wantOK: true,
		},
		{
			name:   "zero size",
			intent: intent(domain.SideBuy, 0, 500000),
			wantOK: false,
		},
		{
			name:   "price above one",
			intent: intent(domain.SideBuy, 10_000_000, 1_100_000),
			wantOK: false,
		},
		{
			name:   "order size over cap",
			intent: intent(domain.SideBuy, 25_000_000, 500000),
			wantOK: false,
		},
		{
			name:   "resulting long over cap",
			intent: intent(domain.SideBuy, 20_000_000, 500000),
			pos:    domain.Position{SizeMicros: 40_000_000},
			wantOK: false,
		},
		{
			name:   "resulting short over cap",
			intent: intent(domain.SideSell, 20_000_000, 500000),
			pos:    domain.Position{SizeMicros: -40_000_000},
			wantOK: false,
		},
		{
			name:   "sell reducing a long is fine",
			intent: intent(domain.SideSell, 20_000_000, 500000),
			pos:    domain.Position{SizeMicros: 40_000_000},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testGuard().Validate(tt.intent, tt.pos, now)
			if tt.wantOK && err != nil {
				t.Errorf("unexpected rejection: %v", err)
			}
			if !tt.wantOK {
				if err == nil {
					t.Fatal("expected rejection")
				}
				if !errors.Is(err, domain.ErrRiskLimit) {
					t.Errorf("error %v is not ErrRiskLimit", err)
				}
			}
		})
	}
}

func TestRiskGuard_DailyCap(t *testing.T) {
	g := testGuard()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	in := intent(domain.SideBuy, 10_000_000, 500000)

	g.RecordSubmitted(now)
	g.RecordSubmitted(now)

	err := g.Validate(in, domain.Position{}, now)
	if !errors.Is(err, domain.ErrRiskLimit) {
		t.Fatalf("expected daily cap rejection, got %v", err)
	}

	// Next UTC day resets the counter
	tomorrow := now.Add(24 * time.Hour)
	if err := g.Validate(in, domain.Position{}, tomorrow); err != nil {
		t.Errorf("counter must reset at UTC midnight: %v", err)
	}
	if got := g.TradesToday(tomorrow); got != 0 {
		t.Errorf("TradesToday = %d, want 0", got)
	}
}
