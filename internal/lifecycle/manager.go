package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/omnigate/omnigate/internal/pkg/logs"
)

// ErrAuthFailed marks a connection failure that no amount of retrying can
// fix, typically a rejected token. Connectors return it (or wrap it) to
// stop the retry loop.
var ErrAuthFailed = errors.New("authentication failed")

// IsPermanent reports whether err should end the retry loop instead of
// scheduling another attempt.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// Connector is the piece of a channel handler the lifecycle manager drives:
// establishing and tearing down the underlying session.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Status is a point-in-time snapshot of a managed connection.
type Status struct {
	Instance    string       `json:"instance"`
	State       State        `json:"-"`
	StateName   string       `json:"state"`
	Health      HealthStatus `json:"health"`
	Attempts    int          `json:"attempts"`
	LastError   string       `json:"last_error,omitempty"`
	ConnectedAt *time.Time   `json:"connected_at,omitempty"`
}

// Manager owns the connection lifecycle for one channel instance: the
// retry loop with breaker-gated backoff, health monitoring, and ordered
// teardown of whatever resources the instance registered.
type Manager struct {
	instance   string
	connector  Connector
	breaker    *CircuitBreaker
	health     *HealthMonitor
	maxRetries int

	mu          sync.Mutex
	state       State
	attempts    int
	lastErr     error
	connectedAt *time.Time
	releases    []func()

	reconnect chan struct{}
	stopOnce  sync.Once
	stopped   chan struct{}
	done      chan struct{}

	// delay and sleep are swappable so tests run without real waits.
	delay func(attempt int) time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

func NewManager(instance string, connector Connector, maxRetries, failureThreshold int, recoveryTimeout time.Duration) *Manager {
	m := &Manager{
		instance:   instance,
		connector:  connector,
		breaker:    NewCircuitBreaker(failureThreshold, recoveryTimeout),
		maxRetries: maxRetries,
		state:      StateIdle,
		reconnect:  make(chan struct{}, 1),
		stopped:    make(chan struct{}),
		done:       make(chan struct{}),
		delay:      retryDelay,
		sleep:      sleepCtx,
	}
	m.health = NewHealthMonitor(instance, func(from, to HealthStatus) {
		if to == HealthUnhealthy {
			m.NotifyDisconnect()
		}
	})
	return m
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// OnRelease registers a cleanup hook run when the instance permanently
// fails or is stopped. Hooks run in reverse registration order.
func (m *Manager) OnRelease(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases = append(m.releases, fn)
}

// Run drives the connection until the context is cancelled, Stop is called,
// retries are exhausted, or a permanent failure occurs.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	m.health.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopped:
			return
		default:
		}

		if err := m.connectWithRetry(ctx); err != nil {
			m.fail(err)
			return
		}

		// Connected. Wait for a disconnect notification or shutdown.
		select {
		case <-ctx.Done():
			return
		case <-m.stopped:
			return
		case <-m.reconnect:
			m.setState(StateDisconnected)
			logs.Warn("[lifecycle] instance %s disconnected, reconnecting", m.instance)
		}
	}
}

// connectWithRetry attempts to connect, applying breaker gating and jittered
// backoff between attempts. It returns nil once connected, or the final
// error when retries are exhausted or the failure is permanent.
func (m *Manager) connectWithRetry(ctx context.Context) error {
	attempt := 0
	for m.maxRetries <= 0 || attempt < m.maxRetries {
		select {
		case <-ctx.Done():
			return nil
		case <-m.stopped:
			return nil
		default:
		}

		// Waiting out an open breaker does not consume an attempt.
		if !m.breaker.Ready() {
			if err := m.sleep(ctx, m.delay(attempt)); err != nil {
				return nil
			}
			continue
		}

		m.setState(StateConnecting)
		m.mu.Lock()
		m.attempts = attempt + 1
		m.mu.Unlock()

		err := m.connector.Connect(ctx)
		if err == nil {
			m.breaker.RecordSuccess()
			now := time.Now()
			m.mu.Lock()
			m.state = StateConnected
			m.lastErr = nil
			m.connectedAt = &now
			m.mu.Unlock()
			m.health.Beat()
			logs.Info("[lifecycle] instance %s connected (attempt %d)", m.instance, attempt+1)
			return nil
		}

		m.breaker.RecordFailure()
		m.health.RecordError()
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()

		if IsPermanent(err) {
			return err
		}

		logs.Warn("[lifecycle] instance %s connect failed (attempt %d): %v", m.instance, attempt+1, err)
		if serr := m.sleep(ctx, m.delay(attempt)); serr != nil {
			return nil
		}
		attempt++
	}

	m.mu.Lock()
	err := m.lastErr
	m.mu.Unlock()
	if err == nil {
		err = errors.New("retries exhausted")
	}
	return err
}

// fail moves the instance to ERROR and releases its resources so a dead
// connection does not pin sockets or monitors.
func (m *Manager) fail(err error) {
	if IsPermanent(err) {
		logs.Error("[lifecycle] instance %s: permanent failure, giving up: %v", m.instance, err)
	} else {
		logs.Error("[lifecycle] instance %s: retries exhausted: %v", m.instance, err)
	}

	m.mu.Lock()
	m.state = StateError
	m.lastErr = err
	releases := m.releases
	m.releases = nil
	m.mu.Unlock()

	m.health.Stop()
	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}

// NotifyDisconnect signals the run loop that the connection dropped.
// Duplicate notifications while a reconnect is already pending are folded.
func (m *Manager) NotifyDisconnect() {
	select {
	case m.reconnect <- struct{}{}:
	default:
	}
}

// Heartbeat records liveness from the underlying session.
func (m *Manager) Heartbeat() {
	m.health.Beat()
}

// RecordError counts a runtime error against the instance's health.
func (m *Manager) RecordError() {
	m.health.RecordError()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status snapshots the connection for reporting.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		Instance:    m.instance,
		State:       m.state,
		StateName:   m.state.String(),
		Health:      m.health.Status(),
		Attempts:    m.attempts,
		ConnectedAt: m.connectedAt,
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

// Stop tears the instance down: the run loop exits, the connector
// disconnects, the health monitor stops, and release hooks run.
func (m *Manager) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopped) })

	select {
	case <-m.done:
	case <-ctx.Done():
	}

	var err error
	m.mu.Lock()
	connected := m.state == StateConnected || m.state == StateConnecting
	m.state = StateIdle
	releases := m.releases
	m.releases = nil
	m.mu.Unlock()

	if connected {
		err = m.connector.Disconnect(ctx)
	}
	m.health.Stop()
	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
	return err
}
