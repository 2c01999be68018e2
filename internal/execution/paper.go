package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// PaperExchange simulates the venue in memory: every accepted order fills
// immediately and completely at its limit price. It honors idempotency keys
// the same way the real exchange does, so executor dedup behavior is
// exercised in paper mode too.
type PaperExchange struct {
	mu        sync.Mutex
	orders    map[string]*paperOrder // by client order ID
	byKey     map[string]string      // idempotency key -> client order ID
	positions map[string]quant.SizeMicros
	fillSeq   uint64

	// submitErr, when set, fails the next SubmitOrder after the order is
	// recorded, simulating an ambiguous outcome.
	submitErr error

	created int
}

type paperOrder struct {
	clientOrderID   string
	exchangeOrderID string
	intent          domain.OrderIntent
	status          domain.OrderStatus
	fills           []domain.Fill
}

// NewPaperExchange creates an empty simulator.
func NewPaperExchange() *PaperExchange {
	return &PaperExchange{
		orders:    make(map[string]*paperOrder),
		byKey:     make(map[string]string),
		positions: make(map[string]quant.SizeMicros),
	}
}

// FailNextSubmit makes the next submission return the given error after the
// order is accepted internally. The caller sees an ambiguous outcome while
// the simulated venue has the order.
func (p *PaperExchange) FailNextSubmit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitErr = err
}

// CreatedOrders returns how many distinct orders the venue accepted.
func (p *PaperExchange) CreatedOrders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// SubmitOrder implements Exchange.
func (p *PaperExchange) SubmitOrder(_ context.Context, clientOrderID string, intent domain.OrderIntent) (domain.SubmitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Idempotency: a key the venue has seen returns the existing order.
	if existing, ok := p.byKey[intent.IdempotencyKey]; ok {
		ord := p.orders[existing]
		return domain.SubmitResult{
			ExchangeOrderID: ord.exchangeOrderID,
			Status:          ord.status,
			FilledMicros:    filledOf(ord),
			Fills:           append([]domain.Fill(nil), ord.fills...),
		}, nil
	}

	p.created++
	ord := &paperOrder{
		clientOrderID:   clientOrderID,
		exchangeOrderID: fmt.Sprintf("paper-ord-%d", p.created),
		intent:          intent,
		status:          domain.OrderFilled,
	}

	p.fillSeq++
	fill := domain.Fill{
		FillID:          fmt.Sprintf("paper-fill-%d", p.fillSeq),
		ExchangeOrderID: ord.exchangeOrderID,
		MarketID:        intent.MarketID,
		Side:            intent.Side,
		PriceMicros:     intent.LimitPriceMicros,
		SizeMicros:      intent.SizeMicros,
		Seq:             p.fillSeq,
		Ts:              quant.Micros(time.Now()),
	}
	ord.fills = append(ord.fills, fill)

	p.orders[clientOrderID] = ord
	p.byKey[intent.IdempotencyKey] = clientOrderID
	p.positions[intent.MarketID] += fill.SignedSizeMicros()

	slog.Info("PAPER_ORDER_FILLED",
		slog.String("client_order_id", clientOrderID),
		slog.String("market", intent.MarketID),
		slog.String("side", string(intent.Side)),
		slog.Int64("size", int64(intent.SizeMicros)),
		slog.Int64("price", int64(intent.LimitPriceMicros)),
	)

	if p.submitErr != nil {
		// Order exists, but the response was lost.
		err := p.submitErr
		p.submitErr = nil
		return domain.SubmitResult{}, err
	}

	return domain.SubmitResult{
		ExchangeOrderID: ord.exchangeOrderID,
		Status:          ord.status,
		FilledMicros:    intent.SizeMicros,
		Fills:           []domain.Fill{fill},
	}, nil
}

// OrderStatus implements Exchange.
func (p *PaperExchange) OrderStatus(_ context.Context, clientOrderID string) (domain.StatusResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ord, ok := p.orders[clientOrderID]
	if !ok {
		// No trace: mirrors a real venue that never saw the submit.
		return domain.StatusResult{Status: domain.OrderUnknown}, nil
	}

	return domain.StatusResult{
		ExchangeOrderID: ord.exchangeOrderID,
		Status:          ord.status,
		FilledMicros:    filledOf(ord),
		Fills:           append([]domain.Fill(nil), ord.fills...),
	}, nil
}

// CancelOrder implements Exchange. Paper orders fill instantly, so there is
// never anything to cancel.
func (p *PaperExchange) CancelOrder(_ context.Context, clientOrderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.orders[clientOrderID]; !ok {
		return fmt.Errorf("unknown order %s", clientOrderID)
	}
	return nil
}

// Positions reports the venue-side position per market, the reconciliation
// reference in paper mode.
func (p *PaperExchange) Positions(_ context.Context) (map[string]quant.SizeMicros, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]quant.SizeMicros, len(p.positions))
	for id, size := range p.positions {
		out[id] = size
	}
	return out, nil
}

func filledOf(ord *paperOrder) quant.SizeMicros {
	var total quant.SizeMicros
	for _, f := range ord.fills {
		total += f.SizeMicros
	}
	return total
}
