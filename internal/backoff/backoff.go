// Package backoff computes retry delays for transient failures in the
// thumbnail backfill path.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Compute returns the delay before retry number attempt (0-based).
// base and max bound the delay; rng may be nil for a deterministic
// fallback source.
func Compute(policy string, base, max time.Duration, attempt int, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if max <= 0 {
		max = base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	switch policy {
	case "fixed":
		return minDur(base, max)
	case "linear":
		n := attempt
		if n < 1 {
			n = 1
		}
		return minDur(base*time.Duration(n), max)
	case "exponential":
		return minDur(scale(base, attempt), max)
	case "exp_equal_jitter":
		ceil := minDur(scale(base, attempt), max)
		half := ceil / 2
		return half + time.Duration(rng.Int63n(int64(half)+1))
	default: // exp_full_jitter
		ceil := minDur(scale(base, attempt), max)
		if ceil <= 0 {
			return 0
		}
		return time.Duration(rng.Int63n(int64(ceil) + 1))
	}
}

func scale(base time.Duration, attempt int) time.Duration {
	f := float64(base) * math.Pow(2, float64(attempt))
	if f > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(f)
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
