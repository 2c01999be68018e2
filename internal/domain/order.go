package domain

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// idempotencyNamespace scopes the deterministic order-key UUIDs.
// Changing it invalidates dedup across deployments, so it is fixed.
var idempotencyNamespace = uuid.MustParse("7b1a3f6e-0f4d-4c5a-9b2e-5d8c1a6f3e42")

// NewIdempotencyKey derives a deterministic key from the market, the target
// window, and the strategy version. Resubmitting the same intent always
// produces the same key, so the exchange (or the executor's local dedup) can
// reject duplicates.
func NewIdempotencyKey(marketID string, window quant.WindowID, strategyVersion string) string {
	seed := fmt.Sprintf("%s|%d|%s", marketID, window, strategyVersion)
	return uuid.NewSHA1(idempotencyNamespace, []byte(seed)).String()
}

// OrderIntent is the decision engine's output. Immutable once created; a later
// cycle supersedes it with a fresh intent rather than mutating it.
type OrderIntent struct {
	MarketID         string            `json:"market_id"`
	Window           quant.WindowID    `json:"window"`
	Side             Side              `json:"side"`
	SizeMicros       quant.SizeMicros  `json:"size"`
	LimitPriceMicros quant.PriceMicros `json:"limit_price"`
	IdempotencyKey   string            `json:"idempotency_key"`
	StrategyVersion  string            `json:"strategy_version"`
	CreatedAt        quant.TimeStamp   `json:"created_at"`
}

// OrderStatus is the submission state of an intent.
type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderAcknowledged    OrderStatus = "ACKNOWLEDGED"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
	OrderRejected        OrderStatus = "REJECTED"
	// OrderUnknown marks an ambiguous outcome (e.g. submit timeout). It is
	// neither failure nor success and must be resolved by a status query
	// before the next cycle trades this market.
	OrderUnknown OrderStatus = "UNKNOWN"
)

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderFilled, OrderCancelled, OrderRejected:
		return true
	}
	return false
}

// CanTransition encodes the order state machine:
//
//	PENDING -> ACKNOWLEDGED | PARTIALLY_FILLED | FILLED | REJECTED | UNKNOWN
//	ACKNOWLEDGED -> PARTIALLY_FILLED | FILLED | CANCELLED | REJECTED
//	PARTIALLY_FILLED -> PARTIALLY_FILLED | FILLED | CANCELLED | REJECTED
//	UNKNOWN -> ACKNOWLEDGED | PARTIALLY_FILLED | FILLED | CANCELLED | REJECTED
//
// Terminal states admit nothing.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case OrderPending:
		switch to {
		case OrderAcknowledged, OrderPartiallyFilled, OrderFilled, OrderRejected, OrderUnknown:
			return true
		}
	case OrderAcknowledged:
		switch to {
		case OrderPartiallyFilled, OrderFilled, OrderCancelled, OrderRejected:
			return true
		}
	case OrderPartiallyFilled:
		switch to {
		case OrderPartiallyFilled, OrderFilled, OrderCancelled, OrderRejected:
			return true
		}
	case OrderUnknown:
		switch to {
		case OrderAcknowledged, OrderPartiallyFilled, OrderFilled, OrderCancelled, OrderRejected:
			return true
		}
	}
	return false
}

// OrderRecord tracks the submission state of one OrderIntent.
// The execution engine is its sole writer.
type OrderRecord struct {
	ClientOrderID   string           `json:"client_order_id"`
	ExchangeOrderID string           `json:"exchange_order_id"`
	Intent          OrderIntent      `json:"intent"`
	Status          OrderStatus      `json:"status"`
	FilledMicros    quant.SizeMicros `json:"filled"`
	UpdatedAt       quant.TimeStamp  `json:"updated_at"`
}

// IsOpen reports whether the order may still fill.
func (r *OrderRecord) IsOpen() bool {
	return !r.Status.IsTerminal()
}
