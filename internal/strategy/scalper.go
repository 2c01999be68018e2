package strategy

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/safe"
)

// Scalper trades short momentum inside a resolution window: enter when the
// mid moves past a threshold from the window's opening reference, exit on
// take-profit, stop-loss, max hold time, or wind-down before the window ends.
//
// It is stateful per market (the reference mid and entry time) and
// deterministic given the same snapshot sequence.
type Scalper struct {
	version string

	moveThresholdMicros quant.PriceMicros
	orderSizeMicros     quant.SizeMicros
	takeProfitMicros    quant.PriceMicros
	stopLossMicros      quant.PriceMicros
	maxHoldSecs         int64
	windDownSecs        int64
	windowSecs          int64

	slippageBuyMicros  quant.PriceMicros
	slippageSellMicros quant.PriceMicros

	mu     sync.Mutex
	states map[string]*marketState
}

type marketState struct {
	window    quant.WindowID
	refMid    quant.PriceMicros
	enteredAt quant.TimeStamp // zero until an entry intent was issued
}

// NewScalper builds a scalper from configuration.
func NewScalper(cfg *infra.Config) *Scalper {
	return &Scalper{
		version:             cfg.Strategy.Version,
		moveThresholdMicros: quant.PriceMicros(cfg.Strategy.Scalp.MoveThresholdMicros),
		orderSizeMicros:     quant.SizeMicros(cfg.Strategy.Scalp.OrderSizeMicros),
		takeProfitMicros:    quant.PriceMicros(cfg.Strategy.Scalp.TakeProfitMicros),
		stopLossMicros:      quant.PriceMicros(cfg.Strategy.Scalp.StopLossMicros),
		maxHoldSecs:         cfg.Strategy.Scalp.MaxHoldSecs,
		windDownSecs:        cfg.Engine.WindDownBeforeEndSecs,
		windowSecs:          cfg.Engine.WindowSecs,
		slippageBuyMicros:   quant.PriceMicros(cfg.Risk.SlippageBuyMicros),
		slippageSellMicros:  quant.PriceMicros(cfg.Risk.SlippageSellMicros),
		states:              make(map[string]*marketState),
	}
}

// Version implements Decider.
func (s *Scalper) Version() string { return s.version }

// Decide implements Decider.
func (s *Scalper) Decide(snap domain.MarketSnapshot, pos domain.Position, now quant.TimeStamp) Decision {
	if !snap.IsTradable() {
		return NoOp("market not open")
	}

	mid := snap.MidMicros()
	if mid == 0 {
		return NoOp("one-sided book")
	}

	window := quant.WindowID(int64(snap.WindowStart) / 1_000_000)

	s.mu.Lock()
	st, ok := s.states[snap.MarketID]
	if !ok || st.window != window {
		// First sight of this window: its mid is the move reference.
		st = &marketState{window: window, refMid: mid}
		s.states[snap.MarketID] = st
	}
	s.mu.Unlock()

	windDown := int64(snap.WindowEnd)-int64(now) <= s.windDownSecs*1_000_000

	if !pos.IsFlat() {
		return s.decideExit(snap, pos, st, window, mid, now, windDown)
	}

	if windDown {
		return NoOp("wind-down, no new entries")
	}

	return s.decideEntry(snap, st, window, mid, now)
}

func (s *Scalper) decideEntry(snap domain.MarketSnapshot, st *marketState, window quant.WindowID, mid quant.PriceMicros, now quant.TimeStamp) Decision {
	move := safe.Sub(int64(mid), int64(st.refMid))

	var side domain.Side
	var limit quant.PriceMicros
	switch {
	case move >= int64(s.moveThresholdMicros):
		side = domain.SideBuy
		limit = capPrice(snap.BestAskMicros + s.slippageBuyMicros)
	case move <= -int64(s.moveThresholdMicros):
		side = domain.SideSell
		limit = floorPrice(snap.BestBidMicros - s.slippageSellMicros)
	default:
		return NoOp("move below threshold")
	}

	if limit == 0 {
		return NoOp("no price inside slippage bound")
	}

	s.mu.Lock()
	st.enteredAt = now
	s.mu.Unlock()

	slog.Info("STRATEGY_ENTRY_SIGNAL",
		slog.String("market", snap.MarketID),
		slog.String("side", string(side)),
		slog.Int64("move", move),
		slog.Int64("limit", int64(limit)),
	)

	return Decision{
		Intent: s.intent(snap.MarketID, window, side, s.orderSizeMicros, limit, s.version, now),
		Reason: fmt.Sprintf("momentum entry, move %d", move),
	}
}

func (s *Scalper) decideExit(snap domain.MarketSnapshot, pos domain.Position, st *marketState, window quant.WindowID, mid quant.PriceMicros, now quant.TimeStamp, windDown bool) Decision {
	// Unrealized move per share, signed so profit is positive for both
	// directions.
	pnlPerShare := safe.Sub(int64(mid), int64(pos.AvgEntryMicros))
	if pos.IsShort() {
		pnlPerShare = -pnlPerShare
	}

	enteredAt := st.enteredAt
	if enteredAt == 0 {
		// Position recovered from the journal; treat the window start as
		// the entry time so max-hold still bounds it.
		enteredAt = snap.WindowStart
	}
	heldSecs := (int64(now) - int64(enteredAt)) / 1_000_000

	var reason string
	switch {
	case windDown:
		reason = "wind-down flatten"
	case pnlPerShare >= int64(s.takeProfitMicros):
		reason = fmt.Sprintf("take profit, %d per share", pnlPerShare)
	case pnlPerShare <= -int64(s.stopLossMicros):
		reason = fmt.Sprintf("stop loss, %d per share", pnlPerShare)
	case heldSecs >= s.maxHoldSecs:
		reason = fmt.Sprintf("max hold, %ds", heldSecs)
	default:
		return NoOp("holding")
	}

	var side domain.Side
	var limit quant.PriceMicros
	if pos.IsLong() {
		side = domain.SideSell
		limit = floorPrice(snap.BestBidMicros - s.slippageSellMicros)
	} else {
		side = domain.SideBuy
		limit = capPrice(snap.BestAskMicros + s.slippageBuyMicros)
	}
	if limit == 0 {
		return NoOp("no exit price inside slippage bound")
	}

	size := pos.SizeMicros
	if size < 0 {
		size = -size
	}

	slog.Info("STRATEGY_EXIT_SIGNAL",
		slog.String("market", snap.MarketID),
		slog.String("reason", reason),
		slog.Int64("size", int64(size)),
	)

	// The exit leg carries its own version suffix so its idempotency key
	// never collides with the entry placed in the same window.
	return Decision{
		Intent: s.intent(snap.MarketID, window, side, size, limit, s.version+"-exit", now),
		Reason: reason,
	}
}

func (s *Scalper) intent(marketID string, window quant.WindowID, side domain.Side, size quant.SizeMicros, limit quant.PriceMicros, version string, now quant.TimeStamp) *domain.OrderIntent {
	return &domain.OrderIntent{
		MarketID:         marketID,
		Window:           window,
		Side:             side,
		SizeMicros:       size,
		LimitPriceMicros: limit,
		IdempotencyKey:   domain.NewIdempotencyKey(marketID, window, version),
		StrategyVersion:  version,
		CreatedAt:        now,
	}
}

func capPrice(p quant.PriceMicros) quant.PriceMicros {
	if p > quant.PriceMax {
		return quant.PriceMax
	}
	return p
}

func floorPrice(p quant.PriceMicros) quant.PriceMicros {
	if p < 0 {
		return 0
	}
	return p
}
