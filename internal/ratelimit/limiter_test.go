package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(maxRequests int, window time.Duration) (*Limiter, *time.Time) {
	l := NewLimiter(Options{
		MaxRequests:     maxRequests,
		Window:          window,
		CleanupInterval: time.Minute,
	})
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllowed_Window(t *testing.T) {
	l, clock := newTestLimiter(2, 60*time.Second)

	got := []bool{l.Allowed("u1"), l.Allowed("u1"), l.Allowed("u1")}
	want := []bool{true, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d = %v, want %v", i+1, got[i], want[i])
		}
	}

	// After the window passes, the identifier is admitted again.
	*clock = clock.Add(61 * time.Second)
	if !l.Allowed("u1") {
		t.Error("expected admission after window expiry")
	}
}

func TestAllowed_IndependentIdentifiers(t *testing.T) {
	l, _ := newTestLimiter(1, 60*time.Second)

	if !l.Allowed("u1") {
		t.Fatal("first u1 call should pass")
	}
	if l.Allowed("u1") {
		t.Fatal("second u1 call should be limited")
	}
	if !l.Allowed("u2") {
		t.Error("u2 must not be affected by u1's window")
	}
}

func TestRemainingTime(t *testing.T) {
	l, clock := newTestLimiter(1, 60*time.Second)

	if got := l.RemainingTime("u1"); got != 0 {
		t.Errorf("untracked identifier remaining = %v, want 0", got)
	}

	l.Allowed("u1")
	*clock = clock.Add(20 * time.Second)

	got := l.RemainingTime("u1")
	if got != 40*time.Second {
		t.Errorf("remaining = %v, want 40s", got)
	}

	*clock = clock.Add(45 * time.Second)
	if got := l.RemainingTime("u1"); got != 0 {
		t.Errorf("remaining after expiry = %v, want 0", got)
	}
}

func TestSweep_BoundsMemory(t *testing.T) {
	l, clock := newTestLimiter(5, 10*time.Second)

	l.Allowed("u1")
	l.Allowed("u2")
	l.Allowed("u3")
	if l.Size() != 3 {
		t.Fatalf("size = %d, want 3", l.Size())
	}

	// Nothing is idle yet.
	if removed := l.Sweep(); removed != 0 {
		t.Errorf("premature sweep removed %d", removed)
	}

	// Past 2×cleanupInterval everything is stale.
	*clock = clock.Add(3 * time.Minute)
	if removed := l.Sweep(); removed != 3 {
		t.Errorf("sweep removed %d, want 3", removed)
	}
	if l.Size() != 0 {
		t.Errorf("size after sweep = %d, want 0", l.Size())
	}
}

func TestSweep_KeepsActiveWindows(t *testing.T) {
	l, clock := newTestLimiter(5, 10*time.Second)

	l.Allowed("active")
	l.Allowed("idle")

	*clock = clock.Add(150 * time.Second)
	l.Allowed("active") // refreshes touched

	*clock = clock.Add(30 * time.Second)
	l.Sweep()

	if l.Size() != 1 {
		t.Fatalf("size = %d, want 1 (only the idle window swept)", l.Size())
	}
}
