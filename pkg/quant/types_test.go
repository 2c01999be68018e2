package quant

import "testing"

func TestPriceValid(t *testing.T) {
	tests := []struct {
		price PriceMicros
		want  bool
	}{
		{420000, true},
		{1, true},
		{999999, true},
		{0, false},
		{1000000, false}, // resolved price, not tradable
		{-1, false},
	}

	for _, tt := range tests {
		if got := tt.price.Valid(); got != tt.want {
			t.Errorf("PriceMicros(%d).Valid() = %v, want %v", tt.price, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := PriceMicros(420000).String(); got != "0.420000" {
		t.Errorf("PriceMicros.String() = %s, want 0.420000", got)
	}
	if got := SizeMicros(10_000_000).String(); got != "10.000000" {
		t.Errorf("SizeMicros.String() = %s, want 10.000000", got)
	}
}
