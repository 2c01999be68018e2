package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// Executor owns the order state machine. It is the sole writer of order
// records: submissions, status transitions, and the handoff of confirmed
// fills to the ledger all pass through here.
//
// Duplicate protection is layered. The intent's idempotency key dedups
// locally (a key already submitted is returned, not resubmitted) and rides to
// the exchange so even a lost local record cannot double-place.
type Executor struct {
	exchange Exchange
	ledger   FillLedger
	store    OrderStore

	mu      sync.Mutex
	records map[string]*domain.OrderRecord // by idempotency key
}

// NewExecutor creates an executor with an empty record set.
func NewExecutor(exchange Exchange, ledger FillLedger, store OrderStore) *Executor {
	return &Executor{
		exchange: exchange,
		ledger:   ledger,
		store:    store,
		records:  make(map[string]*domain.OrderRecord),
	}
}

// Recover reloads non-terminal order records from the store. Orders that were
// UNKNOWN or still open at the last shutdown come back and get resolved
// before their markets trade again. A record still PENDING means the process
// died between persisting the intent and learning the submit outcome; the
// order may exist on the venue, so it becomes UNKNOWN and must be settled by
// a status query, never resubmitted.
func (e *Executor) Recover(ctx context.Context) error {
	records, err := e.store.LoadOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("load open orders: %w", err)
	}

	var unresolved []domain.OrderRecord
	e.mu.Lock()
	for i := range records {
		rec := records[i]
		if rec.Status == domain.OrderPending {
			rec.Status = domain.OrderUnknown
			rec.UpdatedAt = quant.Micros(time.Now())
			unresolved = append(unresolved, rec)
		}
		e.records[rec.Intent.IdempotencyKey] = &rec
	}
	e.mu.Unlock()

	for _, rec := range unresolved {
		if err := e.store.UpsertOrder(ctx, rec); err != nil {
			return fmt.Errorf("persist recovered order %s: %w", rec.ClientOrderID, err)
		}
	}

	slog.Info("EXECUTOR_RECOVERED",
		slog.Int("open_orders", len(records)),
		slog.Int("unresolved", len(unresolved)),
	)
	return nil
}

// Execute submits one intent. If the intent's idempotency key was already
// submitted, the existing record is returned untouched; an UNKNOWN record
// additionally returns ErrAmbiguousOutcome because the market must not trade
// until it is resolved.
func (e *Executor) Execute(ctx context.Context, intent *domain.OrderIntent) (domain.OrderRecord, error) {
	e.mu.Lock()
	if existing, ok := e.records[intent.IdempotencyKey]; ok {
		rec := *existing
		e.mu.Unlock()
		if rec.Status == domain.OrderUnknown {
			return rec, fmt.Errorf("%w: order %s unresolved", domain.ErrAmbiguousOutcome, rec.ClientOrderID)
		}
		slog.Info("EXECUTOR_DUPLICATE_INTENT",
			slog.String("key", intent.IdempotencyKey),
			slog.String("client_order_id", rec.ClientOrderID),
		)
		return rec, nil
	}

	rec := &domain.OrderRecord{
		ClientOrderID: ulid.Make().String(),
		Intent:        *intent,
		Status:        domain.OrderPending,
		UpdatedAt:     quant.Micros(time.Now()),
	}
	e.records[intent.IdempotencyKey] = rec
	e.mu.Unlock()

	if err := e.store.UpsertOrder(ctx, *rec); err != nil {
		return *rec, fmt.Errorf("persist pending order: %w", err)
	}

	result, err := e.exchange.SubmitOrder(ctx, rec.ClientOrderID, *intent)
	if err != nil {
		if errors.Is(err, domain.ErrAmbiguousOutcome) {
			e.transition(ctx, rec, domain.OrderUnknown, "", 0)
			slog.Warn("EXECUTOR_SUBMIT_AMBIGUOUS",
				slog.String("client_order_id", rec.ClientOrderID),
				slog.Any("error", err),
			)
			return e.snapshot(intent.IdempotencyKey), err
		}
		// A definite failure: the exchange never accepted the order.
		e.transition(ctx, rec, domain.OrderRejected, "", 0)
		return e.snapshot(intent.IdempotencyKey), err
	}

	e.transition(ctx, rec, result.Status, result.ExchangeOrderID, result.FilledMicros)
	e.applyFills(ctx, result.Fills)

	slog.Info("EXECUTOR_ORDER_SUBMITTED",
		slog.String("client_order_id", rec.ClientOrderID),
		slog.String("market", intent.MarketID),
		slog.String("status", string(result.Status)),
	)
	return e.snapshot(intent.IdempotencyKey), nil
}

// ResolveUnknown queries the exchange for every UNKNOWN order on the given
// market and applies the authoritative answer. An order that cannot be
// resolved stays UNKNOWN and the error is returned so the caller skips the
// market this cycle.
func (e *Executor) ResolveUnknown(ctx context.Context, marketID string) error {
	for _, rec := range e.byMarket(marketID, domain.OrderUnknown) {
		result, err := e.exchange.OrderStatus(ctx, rec.ClientOrderID)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", rec.ClientOrderID, err)
		}

		status := result.Status
		if status == domain.OrderUnknown {
			// The exchange has no trace of the client order ID: the submit
			// never landed, so the order cannot ever fill.
			status = domain.OrderRejected
		}

		e.mu.Lock()
		live := e.records[rec.Intent.IdempotencyKey]
		e.mu.Unlock()
		e.transition(ctx, live, status, result.ExchangeOrderID, result.FilledMicros)
		e.applyFills(ctx, result.Fills)

		slog.Info("EXECUTOR_UNKNOWN_RESOLVED",
			slog.String("client_order_id", rec.ClientOrderID),
			slog.String("status", string(status)),
		)
	}
	return nil
}

// SyncOpen refreshes every acknowledged or partially filled order on the
// market from the exchange, picking up fills that landed between cycles.
func (e *Executor) SyncOpen(ctx context.Context, marketID string) error {
	open := append(
		e.byMarket(marketID, domain.OrderAcknowledged),
		e.byMarket(marketID, domain.OrderPartiallyFilled)...,
	)
	for _, rec := range open {
		result, err := e.exchange.OrderStatus(ctx, rec.ClientOrderID)
		if err != nil {
			return fmt.Errorf("sync %s: %w", rec.ClientOrderID, err)
		}

		e.mu.Lock()
		live := e.records[rec.Intent.IdempotencyKey]
		e.mu.Unlock()
		e.transition(ctx, live, result.Status, result.ExchangeOrderID, result.FilledMicros)
		e.applyFills(ctx, result.Fills)
	}
	return nil
}

// CancelOpen cancels every still-open order on the market. Used by the
// cancel_prior overrun policy and by shutdown wind-down.
func (e *Executor) CancelOpen(ctx context.Context, marketID string) error {
	var firstErr error
	open := append(
		e.byMarket(marketID, domain.OrderAcknowledged),
		e.byMarket(marketID, domain.OrderPartiallyFilled)...,
	)
	for _, rec := range open {
		if err := e.exchange.CancelOrder(ctx, rec.ClientOrderID); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			slog.Warn("EXECUTOR_CANCEL_FAILED",
				slog.String("client_order_id", rec.ClientOrderID),
				slog.Any("error", err),
			)
			continue
		}

		e.mu.Lock()
		live := e.records[rec.Intent.IdempotencyKey]
		e.mu.Unlock()
		e.transition(ctx, live, domain.OrderCancelled, rec.ExchangeOrderID, rec.FilledMicros)
	}
	return firstErr
}

// OpenMarkets lists the markets with at least one non-terminal order.
func (e *Executor) OpenMarkets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, rec := range e.records {
		if !rec.Status.IsTerminal() && !seen[rec.Intent.MarketID] {
			seen[rec.Intent.MarketID] = true
			out = append(out, rec.Intent.MarketID)
		}
	}
	return out
}

// HasUnknown reports whether the market has an unresolved order.
func (e *Executor) HasUnknown(marketID string) bool {
	return len(e.byMarket(marketID, domain.OrderUnknown)) > 0
}

// ApplyStreamFill forwards a fill from the WebSocket stream to the ledger and
// updates the owning order's filled quantity.
func (e *Executor) ApplyStreamFill(ctx context.Context, fill domain.Fill) error {
	if err := e.ledger.ApplyFill(ctx, fill); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range e.records {
		if rec.ExchangeOrderID == fill.ExchangeOrderID && !rec.Status.IsTerminal() {
			rec.FilledMicros += fill.SizeMicros
			rec.UpdatedAt = quant.Micros(time.Now())
			status := domain.OrderPartiallyFilled
			if rec.FilledMicros >= rec.Intent.SizeMicros {
				status = domain.OrderFilled
			}
			if rec.Status.CanTransition(status) {
				rec.Status = status
			}
			if err := e.store.UpsertOrder(ctx, *rec); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// transition applies a status change, enforcing the state machine. An
// inadmissible transition is logged and dropped rather than corrupting the
// record.
func (e *Executor) transition(ctx context.Context, rec *domain.OrderRecord, to domain.OrderStatus, exchangeOrderID string, filled quant.SizeMicros) {
	e.mu.Lock()
	if rec.Status != to && !rec.Status.CanTransition(to) {
		slog.Error("EXECUTOR_INVALID_TRANSITION",
			slog.String("client_order_id", rec.ClientOrderID),
			slog.String("from", string(rec.Status)),
			slog.String("to", string(to)),
		)
		e.mu.Unlock()
		return
	}

	rec.Status = to
	if exchangeOrderID != "" {
		rec.ExchangeOrderID = exchangeOrderID
	}
	if filled > rec.FilledMicros {
		rec.FilledMicros = filled
	}
	rec.UpdatedAt = quant.Micros(time.Now())
	snapshot := *rec
	e.mu.Unlock()

	if err := e.store.UpsertOrder(ctx, snapshot); err != nil {
		slog.Error("EXECUTOR_PERSIST_FAILED",
			slog.String("client_order_id", snapshot.ClientOrderID),
			slog.Any("error", err),
		)
	}
}

func (e *Executor) applyFills(ctx context.Context, fills []domain.Fill) {
	for _, f := range fills {
		if err := e.ledger.ApplyFill(ctx, f); err != nil {
			slog.Error("EXECUTOR_FILL_APPLY_FAILED",
				slog.String("fill_id", f.FillID),
				slog.Any("error", err),
			)
		}
	}
}

func (e *Executor) byMarket(marketID string, status domain.OrderStatus) []domain.OrderRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []domain.OrderRecord
	for _, rec := range e.records {
		if rec.Intent.MarketID == marketID && rec.Status == status {
			out = append(out, *rec)
		}
	}
	return out
}

func (e *Executor) snapshot(key string) domain.OrderRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rec, ok := e.records[key]; ok {
		return *rec
	}
	return domain.OrderRecord{}
}
