package lifecycle

import (
	"testing"
	"time"
)

func newTestBreaker() (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(3, 300*time.Second)
	clock := time.Now()
	b.now = func() time.Time { return clock }
	return b, &clock
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker()

	b.RecordFailure()
	b.RecordFailure()
	if b.Open() {
		t.Fatal("breaker open after 2 failures, want closed")
	}
	if !b.Ready() {
		t.Fatal("closed breaker must be ready")
	}

	b.RecordFailure()
	if !b.Open() {
		t.Fatal("breaker closed after 3 failures, want open")
	}
	if b.Ready() {
		t.Fatal("freshly opened breaker must refuse attempts")
	}
}

func TestBreakerAllowsProbeAfterRecovery(t *testing.T) {
	b, clock := newTestBreaker()

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	if b.Ready() {
		t.Fatal("open breaker ready before recovery timeout")
	}

	*clock = clock.Add(299 * time.Second)
	if b.Ready() {
		t.Fatal("ready 1s before recovery timeout")
	}

	*clock = clock.Add(2 * time.Second)
	if !b.Ready() {
		t.Fatal("breaker must allow a probe after the recovery timeout")
	}
}

func TestBreakerSuccessResets(t *testing.T) {
	b, _ := newTestBreaker()

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	b.RecordSuccess()

	if b.Open() {
		t.Fatal("breaker still open after success")
	}

	// The count starts over, so it takes a full run of failures to trip again.
	b.RecordFailure()
	b.RecordFailure()
	if b.Open() {
		t.Fatal("breaker reopened after only 2 post-reset failures")
	}
}
