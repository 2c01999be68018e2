package safe

import (
	"math"
)

// Add performs int64 addition and panics on overflow/underflow.
// Monetary invariant violations halt the process rather than corrupt a ledger.
func Add(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic("LEDGER_SAFE_ADD_OVERFLOW")
	}
	return a + b
}

// Sub performs int64 subtraction and panics on overflow/underflow.
func Sub(a, b int64) int64 {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		panic("LEDGER_SAFE_SUB_OVERFLOW")
	}
	return a - b
}

// Mul performs int64 multiplication and panics on overflow/underflow.
func Mul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > 0 {
		if b > 0 {
			if a > math.MaxInt64/b {
				panic("LEDGER_SAFE_MUL_OVERFLOW")
			}
		} else {
			if b < math.MinInt64/a {
				panic("LEDGER_SAFE_MUL_OVERFLOW")
			}
		}
	} else {
		if b > 0 {
			if a < math.MinInt64/b {
				panic("LEDGER_SAFE_MUL_OVERFLOW")
			}
		} else {
			if a < math.MaxInt64/b {
				panic("LEDGER_SAFE_MUL_OVERFLOW")
			}
		}
	}
	return a * b
}

// Div performs int64 division and panics on division by zero.
func Div(a, b int64) int64 {
	if b == 0 {
		panic("LEDGER_SAFE_DIV_BY_ZERO")
	}
	if a == math.MinInt64 && b == -1 {
		panic("LEDGER_SAFE_DIV_OVERFLOW")
	}
	return a / b
}

// MulDiv computes a*b/c, guarding each step.
// Used for notional and weighted-average price math where a*b can exceed the
// scale but the quotient cannot.
func MulDiv(a, b, c int64) int64 {
	return Div(Mul(a, b), c)
}

// Abs returns the absolute value, panicking on MinInt64.
func Abs(a int64) int64 {
	if a == math.MinInt64 {
		panic("LEDGER_SAFE_ABS_OVERFLOW")
	}
	if a < 0 {
		return -a
	}
	return a
}
