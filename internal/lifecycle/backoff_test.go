package lifecycle

import (
	"testing"
	"time"
)

func TestRetryDelayBounds(t *testing.T) {
	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second},
		{10, 60 * time.Second},
		{100, 60 * time.Second},
		{-1, 1 * time.Second},
	}

	for _, tc := range cases {
		for i := 0; i < 50; i++ {
			d := retryDelay(tc.attempt)
			if d < tc.base {
				t.Fatalf("attempt %d: delay %s below base %s, jitter must never subtract", tc.attempt, d, tc.base)
			}
			max := tc.base + tc.base/10
			if d > max {
				t.Fatalf("attempt %d: delay %s above %s, jitter must stay within 10%%", tc.attempt, d, max)
			}
		}
	}
}
