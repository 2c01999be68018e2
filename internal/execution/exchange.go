package execution

import (
	"context"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
)

// Exchange is the order-side surface the executor needs. The CLOB client and
// the paper simulator both satisfy it.
//
// SubmitOrder must return an error wrapping domain.ErrAmbiguousOutcome when
// the order may have reached the exchange but no acknowledgement arrived; the
// executor then records UNKNOWN and resolves it with OrderStatus, never by
// resubmitting.
type Exchange interface {
	SubmitOrder(ctx context.Context, clientOrderID string, intent domain.OrderIntent) (domain.SubmitResult, error)
	OrderStatus(ctx context.Context, clientOrderID string) (domain.StatusResult, error)
	CancelOrder(ctx context.Context, clientOrderID string) error
}

// FillLedger receives confirmed fills. Implementations must be idempotent by
// fill ID.
type FillLedger interface {
	ApplyFill(ctx context.Context, fill domain.Fill) error
}

// OrderStore persists order records across restarts.
type OrderStore interface {
	UpsertOrder(ctx context.Context, rec domain.OrderRecord) error
	LoadOpenOrders(ctx context.Context) ([]domain.OrderRecord, error)
}
