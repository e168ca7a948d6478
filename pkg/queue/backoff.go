package queue

import "time"

// Backoff returns the delay before the next attempt: base * 2^retries, capped at maxDelay.
// A non-positive maxDelay disables the cap.
func Backoff(base, maxDelay time.Duration, retries int) time.Duration {
	if base <= 0 {
		return 0
	}
	retries = max(retries, 0)

	d := base
	for range retries {
		d *= 2
		if maxDelay > 0 && d >= maxDelay {
			return maxDelay
		}
		if d <= 0 {
			// overflow
			if maxDelay > 0 {
				return maxDelay
			}
			return time.Duration(1<<63 - 1)
		}
	}
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
