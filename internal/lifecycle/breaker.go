package lifecycle

import (
	"sync"
	"time"
)

const (
	defaultFailureThreshold = 3
	defaultRecoveryTimeout  = 300 * time.Second
)

// CircuitBreaker trips after a run of consecutive connection failures and
// holds further attempts back until the recovery timeout elapses. A single
// success closes it again.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	recovery  time.Duration

	failures  int
	open      bool
	nextRetry time.Time

	now func() time.Time
}

func NewCircuitBreaker(threshold int, recovery time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	if recovery <= 0 {
		recovery = defaultRecoveryTimeout
	}
	return &CircuitBreaker{
		threshold: threshold,
		recovery:  recovery,
		now:       time.Now,
	}
}

// RecordFailure counts a failed attempt and opens the breaker once the
// consecutive-failure threshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.failures >= b.threshold {
		b.open = true
		b.nextRetry = b.now().Add(b.recovery)
	}
}

// RecordSuccess closes the breaker and clears the failure count.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.open = false
	b.nextRetry = time.Time{}
}

// Ready reports whether an attempt may proceed. While open, attempts are
// refused until the recovery timeout has passed; the first attempt after
// that is let through as a probe.
func (b *CircuitBreaker) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	return !b.now().Before(b.nextRetry)
}

// Open reports whether the breaker is currently tripped.
func (b *CircuitBreaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
