// Package backoff provides the jittered exponential backoff used for retrying
// transient upstream failures.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 60 * time.Second
)

// Time returns a full-jitter backoff delay for the given number of consecutive
// failures: a random duration in [0, min(500ms * 2^failures, 60s)).
func Time(failures int) time.Duration {
	upper := float64(minBackoff) * math.Pow(2, float64(failures))
	if upper > float64(maxBackoff) {
		upper = float64(maxBackoff)
	}
	return time.Duration(upper * rand.Float64())
}

// Upper returns the upper bound of the delay window for the given number of
// failures. Exposed so callers can reason about worst-case latency.
func Upper(failures int) time.Duration {
	upper := float64(minBackoff) * math.Pow(2, float64(failures))
	if upper > float64(maxBackoff) {
		return maxBackoff
	}
	return time.Duration(upper)
}
