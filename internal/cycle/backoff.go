package cycle

import "time"

// Delay computes the capped exponential backoff wait after the given number
// of consecutive failures: base doubled per failure, never above max.
func Delay(base, max time.Duration, failures int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if failures < 0 {
		failures = 0
	}
	shift := uint(failures)
	// 2^20 times the base is already days; clamping keeps the shift from
	// overflowing the duration.
	if shift > 20 {
		shift = 20
	}
	delay := base << shift
	if max > 0 && delay > max {
		delay = max
	}
	return delay
}
