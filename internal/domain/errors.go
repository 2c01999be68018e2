package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error taxonomy. Per-market errors never crash the process; only ErrAuth and
// ErrLedgerDrift halt trading on the affected market until operator action.
var (
	// ErrStaleData: snapshot too old to trade on. Skip the window.
	ErrStaleData = errors.New("market data stale")

	// ErrRiskLimit: intent exceeds configured limits. Rejected locally,
	// never submitted.
	ErrRiskLimit = errors.New("risk limit exceeded")

	// ErrAuth: credentials rejected. Fatal for the market.
	ErrAuth = errors.New("authentication failed")

	// ErrLedgerDrift: exchange-reported position diverges from the ledger.
	// Fatal for the market; silent correction could mask a double-fill bug.
	ErrLedgerDrift = errors.New("ledger drift detected")

	// ErrAmbiguousOutcome: submission outcome unknown (e.g. timeout after
	// send). Resolved by a status query, never by blind resubmission.
	ErrAmbiguousOutcome = errors.New("ambiguous order outcome")

	// ErrMarketHalted: trading suspended on this market pending operator
	// intervention.
	ErrMarketHalted = errors.New("market halted")

	// ErrWindowClosed: the cycle's target window has already ended.
	ErrWindowClosed = errors.New("window closed")
)

// transientError wraps failures worth retrying (network hiccups, 5xx).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return fmt.Sprintf("transient: %v", e.err) }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks an error as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether an error should be retried with backoff.
// Network-level errors and context deadline expiry at the transport layer
// count even when not explicitly wrapped.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
