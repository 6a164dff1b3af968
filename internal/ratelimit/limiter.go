// Package ratelimit provides a per-identifier sliding-window admission gate
// for outbound commands.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultMaxRequests     = 10
	DefaultWindow          = 60 * time.Second
	DefaultCleanupInterval = 5 * time.Minute
)

type Options struct {
	MaxRequests     int
	Window          time.Duration
	CleanupInterval time.Duration
}

// Limiter bounds request throughput per identifier with an ordered,
// oldest-first window of timestamps. Each window has its own lock so
// unrelated identifiers never serialize; the shared map lock is held only
// for lookup and insertion.
type Limiter struct {
	maxRequests     int
	window          time.Duration
	cleanupInterval time.Duration

	mu      sync.RWMutex
	windows map[string]*window

	now func() time.Time
}

type window struct {
	mu      sync.Mutex
	stamps  []time.Time
	touched time.Time
}

func NewLimiter(opts Options) *Limiter {
	if opts.MaxRequests <= 0 {
		opts.MaxRequests = DefaultMaxRequests
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}

	return &Limiter{
		maxRequests:     opts.MaxRequests,
		window:          opts.Window,
		cleanupInterval: opts.CleanupInterval,
		windows:         make(map[string]*window),
		now:             time.Now,
	}
}

// Allowed reports whether one more request for the identifier fits in the
// window, recording it when admitted. Expired entries are evicted lazily on
// each check.
func (l *Limiter) Allowed(identifier string) bool {
	now := l.now()
	w := l.getOrCreate(identifier)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.touched = now
	w.evict(now.Add(-l.window))

	if len(w.stamps) >= l.maxRequests {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}

// RemainingTime returns how long until the identifier's oldest entry expires,
// or 0 when the identifier is not currently limited.
func (l *Limiter) RemainingTime(identifier string) time.Duration {
	l.mu.RLock()
	w, ok := l.windows[identifier]
	l.mu.RUnlock()
	if !ok {
		return 0
	}

	now := l.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(now.Add(-l.window))
	if len(w.stamps) < l.maxRequests {
		return 0
	}

	remaining := w.stamps[0].Add(l.window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Sweep drops identifiers whose windows are empty and untouched for longer
// than twice the cleanup interval, bounding memory regardless of identifier
// churn. Meant to run periodically at low frequency, not on every check.
func (l *Limiter) Sweep() int {
	now := l.now()
	staleCutoff := now.Add(-2 * l.cleanupInterval)
	windowCutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, w := range l.windows {
		w.mu.Lock()
		w.evict(windowCutoff)
		idle := len(w.stamps) == 0 && w.touched.Before(staleCutoff)
		w.mu.Unlock()

		if idle {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked identifiers.
func (l *Limiter) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

func (l *Limiter) getOrCreate(identifier string) *window {
	l.mu.RLock()
	w, ok := l.windows[identifier]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.windows[identifier]; ok {
		return w
	}
	w = &window{}
	l.windows[identifier] = w
	return w
}

// evict drops all stamps at or before the cutoff. Stamps are oldest-first,
// so a single scan from the front suffices.
func (w *window) evict(cutoff time.Time) {
	idx := 0
	for idx < len(w.stamps) && !w.stamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[idx:]...)
	}
}
