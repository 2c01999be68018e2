package infra

import (
	"testing"
	"time"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(3, 10)

	// Burst capacity is immediately available
	for i := 0; i < 3; i++ {
		if !rl.TryAcquire() {
			t.Fatalf("burst token %d should be available", i)
		}
	}

	// Bucket exhausted
	if rl.TryAcquire() {
		t.Error("bucket should be empty after burst")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(1, 100) // fast refill for the test

	if !rl.TryAcquire() {
		t.Fatal("first token should be available")
	}
	if rl.TryAcquire() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(25 * time.Millisecond) // ~2.5 tokens refilled, capped at 1

	if !rl.TryAcquire() {
		t.Error("token should have refilled")
	}
	if rl.TryAcquire() {
		t.Error("refill must cap at bucket size")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(1, 50)
	rl.Wait() // consumes the burst token

	start := time.Now()
	rl.Wait() // must block for ~20ms
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Wait returned too quickly: %s", elapsed)
	}
}
