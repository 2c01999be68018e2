package clob

import (
	"testing"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
)

func TestPriceToMicros(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"0.42", 420000, false},
		{"0.5", 500000, false},
		{"1", 1000000, false},
		{"0.000001", 1, false},
		{"", 0, false},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := priceToMicros(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("priceToMicros(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if int64(got) != tt.want {
			t.Errorf("priceToMicros(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestMicrosToDecimalStr(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{420000, "0.42"},
		{1000000, "1"},
		{10500000, "10.5"},
		{1, "0.000001"},
	}

	for _, tt := range tests {
		if got := microsToDecimalStr(tt.input); got != tt.want {
			t.Errorf("microsToDecimalStr(%d) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestToSnapshot(t *testing.T) {
	wire := marketResponse{
		MarketID:    "mkt-btc-5m-1717243200",
		Symbol:      "btc",
		WindowStart: 1717243200000,
		WindowEnd:   1717243500000,
		BestBid:     "0.41",
		BestAsk:     "0.43",
		Last:        "0.42",
		BidDepth:    "1200",
		AskDepth:    "900.5",
		Status:      "open",
		Timestamp:   1717243260000,
	}

	snap, err := toSnapshot(wire)
	if err != nil {
		t.Fatalf("toSnapshot failed: %v", err)
	}

	if snap.BestBidMicros != 410000 {
		t.Errorf("BestBidMicros = %d, want 410000", snap.BestBidMicros)
	}
	if snap.BestAskMicros != 430000 {
		t.Errorf("BestAskMicros = %d, want 430000", snap.BestAskMicros)
	}
	if snap.Status != domain.MarketOpen {
		t.Errorf("Status = %s, want OPEN", snap.Status)
	}
	if snap.FetchedAt != 1717243260000000 {
		t.Errorf("FetchedAt = %d, want micros conversion", snap.FetchedAt)
	}
	if snap.MidMicros() != 420000 {
		t.Errorf("MidMicros = %d, want 420000", snap.MidMicros())
	}
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		wire string
		want domain.OrderStatus
	}{
		{"live", domain.OrderAcknowledged},
		{"matched", domain.OrderPartiallyFilled},
		{"filled", domain.OrderFilled},
		{"cancelled", domain.OrderCancelled},
		{"rejected", domain.OrderRejected},
		{"???", domain.OrderUnknown},
	}

	for _, tt := range tests {
		if got := parseOrderStatus(tt.wire); got != tt.want {
			t.Errorf("parseOrderStatus(%q) = %s, want %s", tt.wire, got, tt.want)
		}
	}
}

func TestToFill_SellIsNegativeDelta(t *testing.T) {
	fill, err := toFill(fillWire{
		FillID:    "f-1",
		OrderID:   "o-1",
		MarketID:  "mkt",
		Side:      "SELL",
		Price:     "0.42",
		Size:      "10",
		Seq:       7,
		Timestamp: 1717243260000,
	})
	if err != nil {
		t.Fatalf("toFill failed: %v", err)
	}

	if fill.Side != domain.SideSell {
		t.Errorf("Side = %s, want SELL", fill.Side)
	}
	if fill.SignedSizeMicros() != -10000000 {
		t.Errorf("SignedSizeMicros = %d, want -10000000", fill.SignedSizeMicros())
	}
}
