package strategy

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/safe"
)

// RiskGuard validates every intent against position and throughput limits
// before it reaches the executor. Violations return domain.ErrRiskLimit and
// the intent is never submitted.
type RiskGuard struct {
	maxPositionMicros  quant.SizeMicros
	maxOrderSizeMicros quant.SizeMicros
	maxTradesPerDay    int

	mu         sync.Mutex
	tradeDay   string // UTC date of the counter
	tradeCount int
}

// NewRiskGuard builds a guard from configuration.
func NewRiskGuard(cfg *infra.Config) *RiskGuard {
	return &RiskGuard{
		maxPositionMicros:  quant.SizeMicros(cfg.Risk.MaxPositionMicros),
		maxOrderSizeMicros: quant.SizeMicros(cfg.Risk.MaxOrderSizeMicros),
		maxTradesPerDay:    cfg.Risk.MaxTradesPerDay,
	}
}

// Validate checks one intent against the current believed position.
func (g *RiskGuard) Validate(intent *domain.OrderIntent, pos domain.Position, now time.Time) error {
	if intent.SizeMicros <= 0 {
		return fmt.Errorf("%w: non-positive size %d", domain.ErrRiskLimit, intent.SizeMicros)
	}
	if !intent.LimitPriceMicros.Valid() {
		return fmt.Errorf("%w: limit price %d outside [0, %d]", domain.ErrRiskLimit, intent.LimitPriceMicros, quant.PriceMax)
	}
	if intent.SizeMicros > g.maxOrderSizeMicros {
		return fmt.Errorf("%w: order size %d exceeds max %d", domain.ErrRiskLimit, intent.SizeMicros, g.maxOrderSizeMicros)
	}

	delta := int64(intent.SizeMicros)
	if intent.Side == domain.SideSell {
		delta = -delta
	}
	resulting := safe.Add(int64(pos.SizeMicros), delta)
	if resulting > int64(g.maxPositionMicros) || resulting < -int64(g.maxPositionMicros) {
		return fmt.Errorf("%w: resulting position %d exceeds max %d", domain.ErrRiskLimit, resulting, g.maxPositionMicros)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDayLocked(now)
	if g.tradeCount >= g.maxTradesPerDay {
		return fmt.Errorf("%w: daily trade cap %d reached", domain.ErrRiskLimit, g.maxTradesPerDay)
	}
	return nil
}

// RecordSubmitted counts one submitted order against the daily cap.
func (g *RiskGuard) RecordSubmitted(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDayLocked(now)
	g.tradeCount++

	slog.Info("RISK_TRADE_COUNTED",
		slog.Int("count", g.tradeCount),
		slog.Int("max", g.maxTradesPerDay),
	)
}

// TradesToday returns the current counter, rolling the day first.
func (g *RiskGuard) TradesToday(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDayLocked(now)
	return g.tradeCount
}

func (g *RiskGuard) rollDayLocked(now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if day != g.tradeDay {
		g.tradeDay = day
		g.tradeCount = 0
	}
}
