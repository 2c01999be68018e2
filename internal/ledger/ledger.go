package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/safe"
)

// Journal is the durable fill log backing the ledger.
type Journal interface {
	SaveFill(ctx context.Context, fill domain.Fill) (bool, error)
	LoadFills(ctx context.Context) ([]domain.Fill, error)
}

// Ledger is the single source of truth for believed positions. It mutates
// state only from confirmed fills, journal-first: a fill is persisted before
// it is applied, and a fill ID that was already journaled is a no-op. Intents
// and acknowledgements never touch it.
type Ledger struct {
	mu        sync.RWMutex
	journal   Journal
	positions map[string]*domain.Position
}

// New creates an empty ledger over the given journal.
func New(journal Journal) *Ledger {
	return &Ledger{
		journal:   journal,
		positions: make(map[string]*domain.Position),
	}
}

// Recover rebuilds in-memory positions by replaying the journal in exchange
// order. Must be called before trading starts.
func (l *Ledger) Recover(ctx context.Context) error {
	fills, err := l.journal.LoadFills(ctx)
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions = make(map[string]*domain.Position)
	for i := range fills {
		l.applyLocked(&fills[i])
	}

	slog.Info("LEDGER_RECOVERED",
		slog.Int("fills", len(fills)),
		slog.Int("markets", len(l.positions)),
	)
	return nil
}

// ApplyFill journals and applies one fill. Replaying a fill ID that was
// already journaled changes nothing and returns nil.
func (l *Ledger) ApplyFill(ctx context.Context, fill domain.Fill) error {
	inserted, err := l.journal.SaveFill(ctx, fill)
	if err != nil {
		return fmt.Errorf("journal fill %s: %w", fill.FillID, err)
	}
	if !inserted {
		slog.Debug("LEDGER_FILL_DUPLICATE", slog.String("fill_id", fill.FillID))
		return nil
	}

	l.mu.Lock()
	pos := l.applyLocked(&fill)
	l.mu.Unlock()

	slog.Info("LEDGER_FILL_APPLIED",
		slog.String("fill_id", fill.FillID),
		slog.String("market", fill.MarketID),
		slog.String("side", string(fill.Side)),
		slog.Int64("size", int64(fill.SizeMicros)),
		slog.Int64("price", int64(fill.PriceMicros)),
		slog.Int64("position", int64(pos.SizeMicros)),
	)
	return nil
}

// applyLocked mutates the position for one fill. Caller holds l.mu.
func (l *Ledger) applyLocked(fill *domain.Fill) *domain.Position {
	pos, ok := l.positions[fill.MarketID]
	if !ok {
		pos = &domain.Position{MarketID: fill.MarketID}
		l.positions[fill.MarketID] = pos
	}

	delta := int64(fill.SignedSizeMicros())
	size := int64(pos.SizeMicros)
	price := int64(fill.PriceMicros)

	switch {
	case size == 0 || sameSign(size, delta):
		// Opening or adding: weighted average entry.
		oldNotional := safe.MulDiv(int64(pos.AvgEntryMicros), abs(size), quant.SizeScale)
		addNotional := safe.MulDiv(price, abs(delta), quant.SizeScale)
		newSize := safe.Add(size, delta)
		pos.AvgEntryMicros = quant.PriceMicros(
			safe.MulDiv(safe.Add(oldNotional, addNotional), quant.SizeScale, abs(newSize)),
		)
		pos.SizeMicros = quant.SizeMicros(newSize)

	default:
		// Reducing or flipping: realize PnL on the closed portion.
		closed := min64(abs(delta), abs(size))
		pnlPerUnit := safe.Sub(price, int64(pos.AvgEntryMicros))
		if size < 0 {
			pnlPerUnit = -pnlPerUnit
		}
		pos.RealizedPnLMicros = safe.Add(pos.RealizedPnLMicros,
			safe.MulDiv(pnlPerUnit, closed, quant.SizeScale))

		newSize := safe.Add(size, delta)
		pos.SizeMicros = quant.SizeMicros(newSize)
		switch {
		case newSize == 0:
			pos.AvgEntryMicros = 0
		case !sameSign(newSize, size):
			// Flipped through flat: the remainder opened at the fill price.
			pos.AvgEntryMicros = quant.PriceMicros(price)
		}
	}

	return pos
}

// Snapshot returns a copy of the position for one market. A market with no
// fills reports a flat position.
func (l *Ledger) Snapshot(marketID string) domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if pos, ok := l.positions[marketID]; ok {
		return *pos
	}
	return domain.Position{MarketID: marketID}
}

// Positions returns a copy of every tracked position.
func (l *Ledger) Positions() map[string]domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]domain.Position, len(l.positions))
	for id, pos := range l.positions {
		out[id] = *pos
	}
	return out
}

// Reconcile compares the believed position against the exchange-reported size.
// A mismatch is ErrLedgerDrift: the market must be halted, never silently
// corrected, because drift means a fill was double-applied or lost.
func (l *Ledger) Reconcile(marketID string, reported quant.SizeMicros) error {
	believed := l.Snapshot(marketID).SizeMicros
	if believed == reported {
		return nil
	}

	slog.Error("LEDGER_DRIFT",
		slog.String("market", marketID),
		slog.Int64("believed", int64(believed)),
		slog.Int64("reported", int64(reported)),
	)
	return fmt.Errorf("%w: market %s believed %d reported %d",
		domain.ErrLedgerDrift, marketID, believed, reported)
}

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
