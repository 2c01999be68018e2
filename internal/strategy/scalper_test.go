package strategy

import (
	"testing"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

const testWindowStartSecs = int64(1717243200) // aligned to a 300s boundary

func testScalper() *Scalper {
	cfg := &infra.Config{}
	cfg.Strategy.Version = "v1"
	cfg.Strategy.Scalp.MoveThresholdMicros = 20000 // 0.02
	cfg.Strategy.Scalp.OrderSizeMicros = 10_000_000
	cfg.Strategy.Scalp.TakeProfitMicros = 30000 // 0.03
	cfg.Strategy.Scalp.StopLossMicros = 20000   // 0.02
	cfg.Strategy.Scalp.MaxHoldSecs = 120
	cfg.Engine.WindowSecs = 300
	cfg.Engine.WindDownBeforeEndSecs = 30
	cfg.Risk.SlippageBuyMicros = 5000
	cfg.Risk.SlippageSellMicros = 5000
	return NewScalper(cfg)
}

// snap builds an OPEN snapshot with the given mid and a 0.01 spread.
func snap(midMicros int64) domain.MarketSnapshot {
	ws := quant.TimeStamp(testWindowStartSecs * 1_000_000)
	return domain.MarketSnapshot{
		MarketID:      "mkt-btc",
		Symbol:        "btc",
		WindowStart:   ws,
		WindowEnd:     ws + 300_000_000,
		BestBidMicros: quant.PriceMicros(midMicros - 5000),
		BestAskMicros: quant.PriceMicros(midMicros + 5000),
		Status:        domain.MarketOpen,
		FetchedAt:     ws + 60_000_000,
	}
}

func tsAt(offsetSecs int64) quant.TimeStamp {
	return quant.TimeStamp((testWindowStartSecs + offsetSecs) * 1_000_000)
}

func flat() domain.Position { return domain.Position{MarketID: "mkt-btc"} }

func TestScalper_NoEntryBelowThreshold(t *testing.T) {
	s := testScalper()

	// First sight sets the reference
	d := s.Decide(snap(500000), flat(), tsAt(10))
	if d.Intent != nil {
		t.Fatalf("reference cycle must not trade: %+v", d.Intent)
	}

	// 0.01 move is below the 0.02 threshold
	d = s.Decide(snap(510000), flat(), tsAt(20))
	if d.Intent != nil {
		t.Errorf("sub-threshold move must not trade: %+v", d.Intent)
	}
}

func TestScalper_EntryOnUpMove(t *testing.T) {
	s := testScalper()
	s.Decide(snap(500000), flat(), tsAt(10))

	d := s.Decide(snap(530000), flat(), tsAt(20))
	if d.Intent == nil {
		t.Fatal("expected an entry intent")
	}
	if d.Intent.Side != domain.SideBuy {
		t.Errorf("Side = %s, want BUY", d.Intent.Side)
	}
	if d.Intent.SizeMicros != 10_000_000 {
		t.Errorf("SizeMicros = %d, want 10000000", d.Intent.SizeMicros)
	}
	// Limit crosses the ask plus the slippage allowance
	if d.Intent.LimitPriceMicros != 540000 {
		t.Errorf("LimitPriceMicros = %d, want 540000", d.Intent.LimitPriceMicros)
	}

	wantKey := domain.NewIdempotencyKey("mkt-btc", quant.WindowID(testWindowStartSecs), "v1")
	if d.Intent.IdempotencyKey != wantKey {
		t.Errorf("IdempotencyKey = %s, want %s", d.Intent.IdempotencyKey, wantKey)
	}
}

func TestScalper_EntryOnDownMove(t *testing.T) {
	s := testScalper()
	s.Decide(snap(500000), flat(), tsAt(10))

	d := s.Decide(snap(470000), flat(), tsAt(20))
	if d.Intent == nil {
		t.Fatal("expected an entry intent")
	}
	if d.Intent.Side != domain.SideSell {
		t.Errorf("Side = %s, want SELL", d.Intent.Side)
	}
	// bid minus slippage
	if d.Intent.LimitPriceMicros != 460000 {
		t.Errorf("LimitPriceMicros = %d, want 460000", d.Intent.LimitPriceMicros)
	}
}

func TestScalper_NoEntryDuringWindDown(t *testing.T) {
	s := testScalper()
	s.Decide(snap(500000), flat(), tsAt(10))

	// 20s before window end, inside the 30s wind-down
	d := s.Decide(snap(530000), flat(), tsAt(280))
	if d.Intent != nil {
		t.Errorf("wind-down must block entries: %+v", d.Intent)
	}
}

func TestScalper_TakeProfitExit(t *testing.T) {
	s := testScalper()
	pos := domain.Position{
		MarketID:       "mkt-btc",
		SizeMicros:     10_000_000,
		AvgEntryMicros: 500000,
	}

	d := s.Decide(snap(540000), pos, tsAt(60))
	if d.Intent == nil {
		t.Fatal("expected an exit intent")
	}
	if d.Intent.Side != domain.SideSell {
		t.Errorf("Side = %s, want SELL", d.Intent.Side)
	}
	if d.Intent.SizeMicros != 10_000_000 {
		t.Errorf("SizeMicros = %d, want full position", d.Intent.SizeMicros)
	}

	entryKey := domain.NewIdempotencyKey("mkt-btc", quant.WindowID(testWindowStartSecs), "v1")
	if d.Intent.IdempotencyKey == entryKey {
		t.Error("exit key must not collide with the entry key of the same window")
	}
}

func TestScalper_StopLossExitOnShort(t *testing.T) {
	s := testScalper()
	pos := domain.Position{
		MarketID:       "mkt-btc",
		SizeMicros:     -10_000_000,
		AvgEntryMicros: 500000,
	}

	// Mid rose 0.03 against the short, past the 0.02 stop
	d := s.Decide(snap(530000), pos, tsAt(60))
	if d.Intent == nil {
		t.Fatal("expected a stop-loss exit")
	}
	if d.Intent.Side != domain.SideBuy {
		t.Errorf("Side = %s, want BUY to cover", d.Intent.Side)
	}
}

func TestScalper_HoldsInsideBands(t *testing.T) {
	s := testScalper()
	pos := domain.Position{
		MarketID:       "mkt-btc",
		SizeMicros:     10_000_000,
		AvgEntryMicros: 500000,
	}

	d := s.Decide(snap(510000), pos, tsAt(60))
	if d.Intent != nil {
		t.Errorf("inside TP/SL bands must hold: %+v", d.Intent)
	}
	if d.Reason != "holding" {
		t.Errorf("Reason = %q, want holding", d.Reason)
	}
}

func TestScalper_MaxHoldExitForRecoveredPosition(t *testing.T) {
	s := testScalper()
	// No entry state recorded: entry time falls back to the window start.
	pos := domain.Position{
		MarketID:       "mkt-btc",
		SizeMicros:     10_000_000,
		AvgEntryMicros: 500000,
	}

	d := s.Decide(snap(510000), pos, tsAt(130))
	if d.Intent == nil {
		t.Fatal("expected a max-hold exit after 130s with a 120s cap")
	}
	if d.Intent.Side != domain.SideSell {
		t.Errorf("Side = %s, want SELL", d.Intent.Side)
	}
}

func TestScalper_SkipsUntradableMarkets(t *testing.T) {
	s := testScalper()

	closed := snap(500000)
	closed.Status = domain.MarketResolved
	if d := s.Decide(closed, flat(), tsAt(10)); d.Intent != nil {
		t.Errorf("resolved market must not trade: %+v", d.Intent)
	}

	oneSided := snap(500000)
	oneSided.BestBidMicros = 0
	if d := s.Decide(oneSided, flat(), tsAt(10)); d.Intent != nil {
		t.Errorf("one-sided book must not trade: %+v", d.Intent)
	}
}
