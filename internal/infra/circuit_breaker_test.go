package infra

import (
	"testing"
	"time"
)

func testBreaker(timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          timeout,
	})
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := testBreaker(time.Minute)

	if !cb.Allow() {
		t.Fatal("closed breaker must allow requests")
	}

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.GetState() != StateClosed {
		t.Error("breaker should stay closed below threshold")
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Error("breaker should open at threshold")
	}
	if cb.Allow() {
		t.Error("open breaker must reject requests")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := testBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	if cb.GetState() != StateOpen {
		t.Fatal("breaker should be open")
	}

	time.Sleep(15 * time.Millisecond)

	// First request after timeout probes half-open
	if !cb.Allow() {
		t.Fatal("breaker should probe after timeout")
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatal("breaker should be half-open")
	}

	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.GetState() != StateClosed {
		t.Error("breaker should close after success threshold")
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := testBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	time.Sleep(15 * time.Millisecond)
	cb.Allow() // half-open

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Error("failure during half-open must reopen the breaker")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := testBreaker(time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.GetState() != StateClosed {
		t.Error("success must reset the failure count")
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := testBreaker(time.Minute)
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Error("Reset must close the breaker")
	}
}
