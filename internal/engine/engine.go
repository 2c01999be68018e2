package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/strategy"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/telemetry"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// MarketData is the read side of the venue.
type MarketData interface {
	ActiveMarkets(ctx context.Context, symbols []string) ([]domain.MarketSnapshot, error)
	Snapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, error)
}

// PositionSource reports venue-side positions, the reference the ledger is
// reconciled against at the start of every cycle.
type PositionSource interface {
	Positions(ctx context.Context) (map[string]quant.SizeMicros, error)
}

// OrderExecutor is the slice of the execution engine the scheduler drives.
type OrderExecutor interface {
	Execute(ctx context.Context, intent *domain.OrderIntent) (domain.OrderRecord, error)
	ResolveUnknown(ctx context.Context, marketID string) error
	SyncOpen(ctx context.Context, marketID string) error
	CancelOpen(ctx context.Context, marketID string) error
	OpenMarkets() []string
	HasUnknown(marketID string) bool
}

// PositionLedger is the slice of the ledger the scheduler reads.
type PositionLedger interface {
	Snapshot(marketID string) domain.Position
	Reconcile(marketID string, reported quant.SizeMicros) error
}

// Engine schedules one trading cycle per (market, window). Cycles for
// different markets run concurrently; a second cycle for the same market and
// window is never started.
type Engine struct {
	clock     Clock
	markets   MarketData
	positions PositionSource
	exec      OrderExecutor
	ledger    PositionLedger
	decider   strategy.Decider
	risk      *strategy.RiskGuard
	publisher telemetry.Publisher

	symbols            []string
	windowSecs         int64
	refreshAdvanceSecs int64
	stalenessThreshold time.Duration
	overrunPolicy      string
	killSwitch         bool

	mu      sync.Mutex
	running map[string]*cycleHandle // by market ID
	started map[cycleKey]bool
	halted  map[string]error

	wg sync.WaitGroup
}

type cycleKey struct {
	marketID string
	window   quant.WindowID
}

type cycleHandle struct {
	window quant.WindowID
	cancel context.CancelFunc
	done   chan struct{}
}

// New assembles the engine.
func New(cfg *infra.Config, clock Clock, markets MarketData, positions PositionSource, exec OrderExecutor, ledger PositionLedger, decider strategy.Decider, risk *strategy.RiskGuard, publisher telemetry.Publisher) *Engine {
	return &Engine{
		clock:              clock,
		markets:            markets,
		positions:          positions,
		exec:               exec,
		ledger:             ledger,
		decider:            decider,
		risk:               risk,
		publisher:          publisher,
		symbols:            cfg.Engine.Symbols,
		windowSecs:         cfg.Engine.WindowSecs,
		refreshAdvanceSecs: cfg.Engine.MarketRefreshAdvanceSecs,
		stalenessThreshold: time.Duration(cfg.Engine.StalenessThresholdSecs) * time.Second,
		overrunPolicy:      cfg.Engine.OverrunPolicy,
		killSwitch:         cfg.Trading.KillSwitch,
		running:            make(map[string]*cycleHandle),
		started:            make(map[cycleKey]bool),
		halted:             make(map[string]error),
	}
}

// Run drives the boundary loop until the context is cancelled. Shortly before
// each window boundary it refreshes the active market list, then starts one
// cycle per market at the boundary.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("ENGINE_STARTED",
		slog.Any("symbols", e.symbols),
		slog.Int64("window_secs", e.windowSecs),
		slog.String("overrun_policy", e.overrunPolicy),
	)

	for {
		now := e.clock.Now()
		boundary := quant.NextBoundary(now, e.windowSecs)
		prep := boundary.Add(-time.Duration(e.refreshAdvanceSecs) * time.Second)

		if prep.After(now) {
			if err := e.sleepUntil(ctx, prep); err != nil {
				return e.drain(err)
			}
		}

		markets, err := e.markets.ActiveMarkets(ctx, e.symbols)
		if err != nil {
			slog.Warn("Market discovery failed, window skipped", slog.Any("error", err))
		}

		if err := e.sleepUntil(ctx, boundary); err != nil {
			return e.drain(err)
		}

		window := quant.WindowIDFor(boundary, e.windowSecs)
		discovered := make(map[string]bool, len(markets))
		for _, m := range markets {
			discovered[m.MarketID] = true
			e.StartCycle(ctx, m.MarketID, window)
		}
		e.syncDeparted(ctx, discovered)
	}
}

// syncDeparted reconciles open orders on markets that dropped out of
// discovery. No cycle runs for those markets anymore, so a fill the stream
// missed would otherwise never reach the ledger.
func (e *Engine) syncDeparted(ctx context.Context, discovered map[string]bool) {
	for _, marketID := range e.exec.OpenMarkets() {
		if discovered[marketID] {
			continue
		}
		e.wg.Add(1)
		go func(marketID string) {
			defer e.wg.Done()
			if err := e.exec.ResolveUnknown(ctx, marketID); err != nil {
				slog.Warn("Departed market resolve failed",
					slog.String("market", marketID), slog.Any("error", err))
				return
			}
			if err := e.exec.SyncOpen(ctx, marketID); err != nil {
				slog.Warn("Departed market sync failed",
					slog.String("market", marketID), slog.Any("error", err))
			}
		}(marketID)
	}
}

func (e *Engine) drain(err error) error {
	e.wg.Wait()
	slog.Info("ENGINE_STOPPED")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (e *Engine) sleepUntil(ctx context.Context, t time.Time) error {
	d := t.Sub(e.clock.Now())
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.clock.After(d):
		return nil
	}
}

// StartCycle launches the cycle for one (market, window) if it has not run
// yet. A prior cycle for the same market still running past its window is
// handled per the overrun policy: cancel_prior cancels it and its open
// orders, skip_new leaves it alone and drops the new window.
func (e *Engine) StartCycle(ctx context.Context, marketID string, window quant.WindowID) bool {
	key := cycleKey{marketID: marketID, window: window}

	e.mu.Lock()
	if e.started[key] {
		e.mu.Unlock()
		return false
	}

	if prior, ok := e.running[marketID]; ok && prior.window != window {
		if e.overrunPolicy == infra.OverrunSkipNew {
			e.mu.Unlock()
			slog.Warn("CYCLE_OVERRUN_SKIP_NEW",
				slog.String("market", marketID),
				slog.Int64("prior_window", int64(prior.window)),
				slog.Int64("window", int64(window)),
			)
			return false
		}

		slog.Warn("CYCLE_OVERRUN_CANCEL_PRIOR",
			slog.String("market", marketID),
			slog.Int64("prior_window", int64(prior.window)),
		)
		prior.cancel()
		e.mu.Unlock()
		<-prior.done
		// Acknowledged orders the cancel could not reach stay tracked; the
		// next cycle's SyncOpen picks up whatever happened to them.
		if err := e.exec.CancelOpen(ctx, marketID); err != nil {
			slog.Warn("Overrun cancel failed", slog.String("market", marketID), slog.Any("error", err))
		}
		e.mu.Lock()
	}

	cycleCtx, cancel := context.WithDeadline(ctx, window.End(e.windowSecs))
	handle := &cycleHandle{window: window, cancel: cancel, done: make(chan struct{})}
	e.started[key] = true
	e.running[marketID] = handle
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		defer close(handle.done)
		defer func() {
			e.mu.Lock()
			if e.running[marketID] == handle {
				delete(e.running, marketID)
			}
			e.mu.Unlock()
		}()

		e.runCycle(cycleCtx, marketID, window)
	}()
	return true
}

// runCycle executes one full pass for one market: resolve unknowns, sync and
// reconcile, fetch, decide, risk-check, execute, report.
func (e *Engine) runCycle(ctx context.Context, marketID string, window quant.WindowID) {
	start := e.clock.Now()
	report := domain.CycleReport{
		Window:   window,
		MarketID: marketID,
	}
	defer func() {
		report.LatencyMicros = int64(e.clock.Now().Sub(start) / time.Microsecond)
		report.Ts = quant.Micros(e.clock.Now())
		e.publisher.Publish(context.WithoutCancel(ctx), report)
	}()

	if e.killSwitch {
		report.Decision = domain.DecisionSkipKill
		return
	}

	if err := e.haltedErr(marketID); err != nil {
		report.Decision = domain.DecisionSkipHalted
		report.Error = err.Error()
		return
	}

	// Unknown outcomes block the market until the exchange answers.
	if err := e.exec.ResolveUnknown(ctx, marketID); err != nil {
		report.Decision = domain.DecisionSkipError
		report.Error = err.Error()
		return
	}

	// Pull in fills that landed between cycles before reconciling.
	if err := e.exec.SyncOpen(ctx, marketID); err != nil {
		report.Decision = domain.DecisionSkipError
		report.Error = err.Error()
		return
	}

	reported, err := e.positions.Positions(ctx)
	if err != nil {
		report.Decision = domain.DecisionSkipError
		report.Error = err.Error()
		return
	}
	if err := e.ledger.Reconcile(marketID, reported[marketID]); err != nil {
		e.haltMarket(marketID, err)
		report.Decision = domain.DecisionDrift
		report.Error = err.Error()
		return
	}

	snap, err := e.markets.Snapshot(ctx, marketID)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			e.haltMarket(marketID, err)
		}
		report.Decision = domain.DecisionSkipError
		report.Error = err.Error()
		return
	}

	now := quant.Micros(e.clock.Now())
	if snap.IsStale(now, e.stalenessThreshold) {
		report.Decision = domain.DecisionSkipStale
		report.Error = fmt.Sprintf("%v: snapshot age %s", domain.ErrStaleData, snap.Age(now))
		return
	}

	if !e.clock.Now().Before(window.End(e.windowSecs)) {
		report.Decision = domain.DecisionSkipWindow
		report.Error = domain.ErrWindowClosed.Error()
		return
	}

	pos := e.ledger.Snapshot(marketID)
	decision := e.decider.Decide(snap, pos, now)
	if decision.Intent == nil {
		report.Decision = domain.DecisionNoOp
		report.Error = decision.Reason
		return
	}

	if err := e.risk.Validate(decision.Intent, pos, e.clock.Now()); err != nil {
		report.Decision = domain.DecisionSkipRisk
		report.Error = err.Error()
		slog.Warn("RISK_REJECTED",
			slog.String("market", marketID),
			slog.Any("error", err),
		)
		return
	}

	rec, err := e.exec.Execute(ctx, decision.Intent)
	report.Decision = domain.DecisionPlace
	report.OrderStatus = rec.Status
	if err != nil {
		report.Error = err.Error()
		if errors.Is(err, domain.ErrAuth) {
			e.haltMarket(marketID, err)
		}
	}
	// The attempt counts against the daily cap even when the outcome is
	// ambiguous; the order may exist.
	if rec.Status != "" && rec.Status != domain.OrderRejected {
		e.risk.RecordSubmitted(e.clock.Now())
	}
}

func (e *Engine) haltMarket(marketID string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.halted[marketID]; !ok {
		e.halted[marketID] = err
		slog.Error("MARKET_HALTED",
			slog.String("market", marketID),
			slog.Any("cause", err),
		)
	}
}

func (e *Engine) haltedErr(marketID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cause, ok := e.halted[marketID]; ok {
		return fmt.Errorf("%w: %v", domain.ErrMarketHalted, cause)
	}
	return nil
}

// HaltedMarkets returns the markets currently suspended and why.
func (e *Engine) HaltedMarkets() map[string]error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]error, len(e.halted))
	for id, err := range e.halted {
		out[id] = err
	}
	return out
}

// Wait blocks until all in-flight cycles finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}
