package infra

import (
	"time"
)

const (
	// Retry delays for exchange API calls. A 5-minute window leaves little
	// room, so the cap stays well under the window length.
	baseDelay = 500 * time.Millisecond
	maxDelay  = 15 * time.Second
)

// CalculateBackoff returns the exponential backoff duration for a given retry
// count: baseDelay * 2^retryCount, capped at maxDelay.
// A negative retryCount returns baseDelay.
func CalculateBackoff(retryCount int) time.Duration {
	if retryCount < 0 {
		return baseDelay
	}

	// 2^30 * 500ms already dwarfs maxDelay; cap early to avoid shift overflow.
	if retryCount > 30 {
		return maxDelay
	}

	backoff := baseDelay * time.Duration(1<<retryCount)
	if backoff > maxDelay {
		return maxDelay
	}
	return backoff
}
