package safe

import (
	"math"
	"testing"
)

func TestAdd(t *testing.T) {
	if got := Add(2, 3); got != 5 {
		t.Errorf("Add(2, 3) = %d, want 5", got)
	}
	if got := Add(-2, -3); got != -5 {
		t.Errorf("Add(-2, -3) = %d, want -5", got)
	}

	assertPanics(t, "Add overflow", func() { Add(math.MaxInt64, 1) })
	assertPanics(t, "Add underflow", func() { Add(math.MinInt64, -1) })
}

func TestSub(t *testing.T) {
	if got := Sub(5, 3); got != 2 {
		t.Errorf("Sub(5, 3) = %d, want 2", got)
	}

	assertPanics(t, "Sub overflow", func() { Sub(math.MaxInt64, -1) })
	assertPanics(t, "Sub underflow", func() { Sub(math.MinInt64, 1) })
}

func TestMul(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{3, 4, 12},
		{-3, 4, -12},
		{-3, -4, 12},
		{0, math.MaxInt64, 0},
	}
	for _, tt := range tests {
		if got := Mul(tt.a, tt.b); got != tt.want {
			t.Errorf("Mul(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}

	assertPanics(t, "Mul overflow", func() { Mul(math.MaxInt64, 2) })
	assertPanics(t, "Mul negative overflow", func() { Mul(math.MinInt64, 2) })
}

func TestDiv(t *testing.T) {
	if got := Div(12, 4); got != 3 {
		t.Errorf("Div(12, 4) = %d, want 3", got)
	}

	assertPanics(t, "Div by zero", func() { Div(1, 0) })
	assertPanics(t, "Div MinInt64 by -1", func() { Div(math.MinInt64, -1) })
}

func TestMulDiv(t *testing.T) {
	// Weighted-average use case: price 420000 * size 10000000 / scale 1000000
	if got := MulDiv(420000, 10000000, 1000000); got != 4200000 {
		t.Errorf("MulDiv = %d, want 4200000", got)
	}
}

func TestAbs(t *testing.T) {
	if got := Abs(-7); got != 7 {
		t.Errorf("Abs(-7) = %d, want 7", got)
	}
	if got := Abs(7); got != 7 {
		t.Errorf("Abs(7) = %d, want 7", got)
	}
	assertPanics(t, "Abs MinInt64", func() { Abs(math.MinInt64) })
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
