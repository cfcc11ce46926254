package backoff

import (
	"math/rand"
	"testing"
	"time"
)

func TestFixed(t *testing.T) {
	for attempt := 0; attempt < 5; attempt++ {
		got := Compute("fixed", time.Second, 3*time.Second, attempt, nil)
		if got != time.Second {
			t.Fatalf("fixed attempt %d = %v, want 1s", attempt, got)
		}
	}
}

func TestLinear(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{10, 5 * time.Second}, // capped
	}
	for _, tc := range cases {
		if got := Compute("linear", time.Second, 5*time.Second, tc.attempt, nil); got != tc.want {
			t.Fatalf("linear attempt %d = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestExponential(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{20, 10 * time.Second}, // capped
	}
	for _, tc := range cases {
		if got := Compute("exponential", time.Second, 10*time.Second, tc.attempt, nil); got != tc.want {
			t.Fatalf("exponential attempt %d = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestFullJitterStaysBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for attempt := 0; attempt < 8; attempt++ {
		for i := 0; i < 100; i++ {
			got := Compute("exp_full_jitter", 200*time.Millisecond, 2*time.Second, attempt, rng)
			if got < 0 || got > 2*time.Second {
				t.Fatalf("full jitter attempt %d = %v, out of [0, 2s]", attempt, got)
			}
		}
	}
}

func TestEqualJitterStaysInUpperHalf(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		got := Compute("exp_equal_jitter", time.Second, 8*time.Second, 2, rng)
		// Ceiling is 4s; equal jitter keeps at least half.
		if got < 2*time.Second || got > 4*time.Second {
			t.Fatalf("equal jitter = %v, out of [2s, 4s]", got)
		}
	}
}

func TestUnknownPolicyFallsBackToFullJitter(t *testing.T) {
	got := Compute("bogus", time.Second, 4*time.Second, 1, rand.New(rand.NewSource(7)))
	if got < 0 || got > 2*time.Second {
		t.Fatalf("fallback = %v, out of [0, 2s]", got)
	}
}

func TestDegenerateInputs(t *testing.T) {
	if got := Compute("fixed", 0, 0, -3, nil); got <= 0 {
		t.Fatalf("degenerate inputs = %v, want positive default", got)
	}
	if got := Compute("exponential", time.Second, 0, 5, nil); got != time.Second {
		t.Fatalf("zero max should clamp to base, got %v", got)
	}
}
