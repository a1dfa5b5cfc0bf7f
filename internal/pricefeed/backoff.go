package pricefeed

import "time"

const (
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// Backoff returns baseDelay * 2^retry, capped at maxDelay.
func Backoff(retry int) time.Duration {
	if retry < 0 {
		return baseDelay
	}
	// 2^30s is already far past the cap
	if retry > 30 {
		return maxDelay
	}

	d := baseDelay * time.Duration(1<<retry)
	if d > maxDelay {
		return maxDelay
	}
	return d
}
