// Package resilience wraps engine operations with timeouts, fallback
// strategies, per-dependency health, and performance statistics. Failures
// are absorbed here instead of propagating: the caller sees either a
// (possibly fallback-derived) result or a service-unavailable error naming
// both failures.
package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
)

// DependencyHealth is the process-local health record for one dependency.
type DependencyHealth struct {
	Healthy     bool      `json:"healthy"`
	LastError   string    `json:"last_error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Manager tracks dependency health and runs operations under deadlines
// with optional fallbacks. Health is self-healing: a successful call marks
// the dependency healthy again without manual reset.
type Manager struct {
	mu      sync.RWMutex
	health  map[string]DependencyHealth
	timeout time.Duration
	monitor *Monitor
	now     func() time.Time
}

const DefaultTimeout = 5 * time.Second

func NewManager(timeout time.Duration, monitor *Monitor) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		health:  make(map[string]DependencyHealth),
		timeout: timeout,
		monitor: monitor,
		now:     time.Now,
	}
}

func (m *Manager) markHealthy(dep string) {
	m.mu.Lock()
	m.health[dep] = DependencyHealth{Healthy: true, LastChecked: m.now()}
	m.mu.Unlock()
}

func (m *Manager) markUnhealthy(dep string, err error) {
	m.mu.Lock()
	m.health[dep] = DependencyHealth{Healthy: false, LastError: err.Error(), LastChecked: m.now()}
	m.mu.Unlock()
}

// Health returns a snapshot of every tracked dependency.
func (m *Manager) Health() map[string]DependencyHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]DependencyHealth, len(m.health))
	for k, v := range m.health {
		out[k] = v
	}
	return out
}

// Healthy reports whether no tracked dependency is currently unhealthy.
func (m *Manager) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.health {
		if !h.Healthy {
			return false
		}
	}
	return true
}

// Execute runs primary under the manager's timeout. On failure (including
// timeout) the dependency is marked unhealthy and, when a fallback is
// given, the fallback runs and the result is flagged as fallback-derived.
// If the fallback also fails, a service-unavailable error naming both
// failures is returned. Caller cancellation is passed through untouched:
// it neither affects dependency health nor triggers the fallback. A
// timed-out primary keeps running in its goroutine; its result is
// discarded and shared state must tolerate that.
func Execute[T any](ctx context.Context, m *Manager, dependency, operation string,
	primary func(context.Context) (T, error),
	fallback func(context.Context) (T, error),
) (T, bool, error) {
	start := m.now()
	result, err := runWithTimeout(ctx, m.timeout, operation, primary)

	if err != nil && ctx.Err() != nil {
		// The caller went away. That says nothing about the dependency,
		// and the fallback would only run against the dead context.
		var zero T
		return zero, false, err
	}

	if m.monitor != nil {
		m.monitor.Record(operation, time.Since(start), err)
	}

	if err == nil {
		m.markHealthy(dependency)
		return result, false, nil
	}

	m.markUnhealthy(dependency, err)
	slog.Error("primary operation failed", "operation", operation, "dependency", dependency,
		"duration_ms", time.Since(start).Milliseconds(), "error", err)

	if fallback == nil {
		var zero T
		return zero, false, apperr.Unavailable(dependency, err, nil)
	}

	fbResult, fbErr := fallback(ctx)
	if fbErr != nil {
		slog.Error("fallback failed", "operation", operation, "dependency", dependency, "error", fbErr)
		var zero T
		return zero, false, apperr.Unavailable(dependency, err, fbErr)
	}

	slog.Warn("served fallback result", "operation", operation, "dependency", dependency)
	return fbResult, true, nil
}

// runWithTimeout abandons the primary when the deadline passes: the
// goroutine may still complete but its result is discarded.
func runWithTimeout[T any](ctx context.Context, timeout time.Duration, operation string,
	fn func(context.Context) (T, error),
) (T, error) {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fn(opCtx)
		ch <- outcome{value: v, err: err}
	}()

	select {
	case out := <-ch:
		return out.value, out.err
	case <-opCtx.Done():
		var zero T
		if ctx.Err() != nil {
			// Caller went away; propagate cancellation unchanged.
			return zero, ctx.Err()
		}
		return zero, apperr.Timeout(operation, timeout)
	}
}
