package clob

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// Wire types. The exchange sends prices and sizes as decimal strings; they are
// parsed with shopspring/decimal at this boundary and converted to int64
// micros before anything else touches them.

type marketResponse struct {
	MarketID    string `json:"market_id"`
	Symbol      string `json:"symbol"`
	WindowStart int64  `json:"window_start_ms"`
	WindowEnd   int64  `json:"window_end_ms"`
	BestBid     string `json:"best_bid"`
	BestAsk     string `json:"best_ask"`
	Last        string `json:"last"`
	BidDepth    string `json:"bid_depth"`
	AskDepth    string `json:"ask_depth"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp_ms"`
}

type marketsResponse struct {
	Markets []marketResponse `json:"markets"`
}

type orderRequest struct {
	MarketID       string `json:"market_id"`
	Side           string `json:"side"`
	Price          string `json:"price"`
	Size           string `json:"size"`
	ClientOrderID  string `json:"client_order_id"`
	IdempotencyKey string `json:"idempotency_key"`
	OrderType      string `json:"order_type"` // GTD for window-bounded orders
	ExpiresAt      int64  `json:"expires_at_ms,omitempty"`
}

type orderResponse struct {
	OrderID    string     `json:"order_id"`
	Status     string     `json:"status"`
	FilledSize string     `json:"filled_size"`
	Fills      []fillWire `json:"fills,omitempty"`
}

type fillWire struct {
	FillID    string `json:"fill_id"`
	OrderID   string `json:"order_id"`
	MarketID  string `json:"market_id"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Seq       uint64 `json:"seq"`
	Timestamp int64  `json:"timestamp_ms"`
}

type positionWire struct {
	MarketID string `json:"market_id"`
	Size     string `json:"size"` // signed decimal shares
}

type positionsResponse struct {
	Positions []positionWire `json:"positions"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// priceToMicros parses a decimal price string exactly.
func priceToMicros(s string) (quant.PriceMicros, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("bad price %q: %w", s, err)
	}
	return quant.PriceMicros(d.Mul(decimal.NewFromInt(quant.PriceScale)).IntPart()), nil
}

// sizeToMicros parses a decimal size string exactly.
func sizeToMicros(s string) (quant.SizeMicros, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("bad size %q: %w", s, err)
	}
	return quant.SizeMicros(d.Mul(decimal.NewFromInt(quant.SizeScale)).IntPart()), nil
}

// microsToDecimalStr renders int64 micros as the wire decimal string.
func microsToDecimalStr(v int64) string {
	return decimal.New(v, -6).String()
}

func parseMarketStatus(s string) domain.MarketStatus {
	switch s {
	case "OPEN", "open", "active":
		return domain.MarketOpen
	case "CLOSING", "closing":
		return domain.MarketClosing
	default:
		return domain.MarketResolved
	}
}

func parseOrderStatus(s string) domain.OrderStatus {
	switch s {
	case "live", "ACKNOWLEDGED", "open":
		return domain.OrderAcknowledged
	case "matched", "PARTIALLY_FILLED":
		return domain.OrderPartiallyFilled
	case "filled", "FILLED":
		return domain.OrderFilled
	case "cancelled", "canceled", "CANCELLED":
		return domain.OrderCancelled
	case "rejected", "REJECTED":
		return domain.OrderRejected
	default:
		return domain.OrderUnknown
	}
}

func toSnapshot(m marketResponse) (domain.MarketSnapshot, error) {
	bid, err := priceToMicros(m.BestBid)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	ask, err := priceToMicros(m.BestAsk)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	last, err := priceToMicros(m.Last)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	bidDepth, err := sizeToMicros(m.BidDepth)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	askDepth, err := sizeToMicros(m.AskDepth)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	return domain.MarketSnapshot{
		MarketID:      m.MarketID,
		Symbol:        m.Symbol,
		WindowStart:   quant.TimeStamp(m.WindowStart * 1000),
		WindowEnd:     quant.TimeStamp(m.WindowEnd * 1000),
		BestBidMicros: bid,
		BestAskMicros: ask,
		LastMicros:    last,
		BidDepth:      bidDepth,
		AskDepth:      askDepth,
		Status:        parseMarketStatus(m.Status),
		FetchedAt:     quant.TimeStamp(m.Timestamp * 1000),
	}, nil
}

func toFill(w fillWire) (domain.Fill, error) {
	price, err := priceToMicros(w.Price)
	if err != nil {
		return domain.Fill{}, err
	}
	size, err := sizeToMicros(w.Size)
	if err != nil {
		return domain.Fill{}, err
	}

	side := domain.SideBuy
	if w.Side == "SELL" || w.Side == "sell" {
		side = domain.SideSell
	}

	return domain.Fill{
		FillID:          w.FillID,
		ExchangeOrderID: w.OrderID,
		MarketID:        w.MarketID,
		Side:            side,
		PriceMicros:     price,
		SizeMicros:      size,
		Seq:             w.Seq,
		Ts:              quant.TimeStamp(w.Timestamp * 1000),
	}, nil
}
