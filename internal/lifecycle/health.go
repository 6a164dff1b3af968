package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/omnigate/omnigate/internal/pkg/logs"
)

// HealthStatus is the coarse health rating derived from heartbeat recency
// and the recent error count.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

const (
	healthyBeatAge  = 60 * time.Second
	degradedBeatAge = 120 * time.Second
	degradedErrors  = 10

	healthCheckInterval = 30 * time.Second
)

// HealthMonitor tracks heartbeats and errors for a single channel instance
// and fires a callback once per status transition.
type HealthMonitor struct {
	mu        sync.Mutex
	instance  string
	lastBeat  time.Time
	errors    int
	status    HealthStatus
	onChange  func(from, to HealthStatus)
	interval  time.Duration
	now       func() time.Time
	stopOnce  sync.Once
	stop      chan struct{}
}

func NewHealthMonitor(instance string, onChange func(from, to HealthStatus)) *HealthMonitor {
	m := &HealthMonitor{
		instance: instance,
		status:   HealthHealthy,
		onChange: onChange,
		interval: healthCheckInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	m.lastBeat = m.now()
	return m
}

// Beat records liveness and clears the recent error count.
func (m *HealthMonitor) Beat() {
	m.mu.Lock()
	m.lastBeat = m.now()
	m.errors = 0
	m.mu.Unlock()

	m.evaluate()
}

// RecordError counts one failure against the instance.
func (m *HealthMonitor) RecordError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()

	m.evaluate()
}

// Status returns the current rating without re-evaluating.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Start runs the periodic evaluation loop until Stop is called or the
// context is cancelled.
func (m *HealthMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.evaluate()
			}
		}
	}()
}

func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// evaluate recomputes the rating and fires the callback exactly once per
// transition.
func (m *HealthMonitor) evaluate() {
	m.mu.Lock()
	age := m.now().Sub(m.lastBeat)

	next := HealthHealthy
	switch {
	case age > degradedBeatAge:
		next = HealthUnhealthy
	case age > healthyBeatAge || m.errors > degradedErrors:
		next = HealthDegraded
	}

	prev := m.status
	m.status = next
	errors := m.errors
	m.mu.Unlock()

	if prev != next {
		logs.Warn("[health] instance %s: %s -> %s (beat age %s, errors %d)",
			m.instance, prev, next, age.Truncate(time.Second), errors)
		if m.onChange != nil {
			m.onChange(prev, next)
		}
	}
}
