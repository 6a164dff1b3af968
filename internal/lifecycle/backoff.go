package lifecycle

import (
	"time"

	"github.com/bytedance/gopkg/lang/fastrand"
)

const (
	backoffBase = time.Second
	backoffCap  = 60 * time.Second
)

// retryDelay returns the exponential backoff for the given attempt with up
// to 10% additive jitter. Jitter is only ever added, so the delay never
// drops below the deterministic base and concurrent instances stay spread
// out instead of reconnecting in lockstep.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 2^6 s already exceeds the cap; clamp the shift to avoid overflow.
	if attempt > 6 {
		attempt = 6
	}

	delay := backoffBase << uint(attempt)
	if delay > backoffCap {
		delay = backoffCap
	}

	jitter := time.Duration(fastrand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}
