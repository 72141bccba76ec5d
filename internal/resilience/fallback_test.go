package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
)

func TestExecutePrimarySucceeds(t *testing.T) {
	m := NewManager(time.Second, nil)

	got, degraded, err := Execute(context.Background(), m, "database", "search",
		func(ctx context.Context) (string, error) { return "primary", nil },
		func(ctx context.Context) (string, error) { return "fallback", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "primary", got)
	assert.False(t, degraded)
	assert.True(t, m.Healthy())
	assert.True(t, m.Health()["database"].Healthy)
}

func TestExecuteFallsBackOnPrimaryFailure(t *testing.T) {
	m := NewManager(time.Second, nil)

	got, degraded, err := Execute(context.Background(), m, "database", "search",
		func(ctx context.Context) (string, error) { return "", errors.New("boom") },
		func(ctx context.Context) (string, error) { return "fallback", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
	assert.True(t, degraded)
	assert.False(t, m.Healthy())
	assert.Equal(t, "boom", m.Health()["database"].LastError)
}

func TestExecuteBothFail(t *testing.T) {
	m := NewManager(time.Second, nil)

	_, _, err := Execute(context.Background(), m, "database", "search",
		func(ctx context.Context) (string, error) { return "", errors.New("primary down") },
		func(ctx context.Context) (string, error) { return "", errors.New("fallback down") },
	)
	require.Error(t, err)
	assert.True(t, apperr.IsUnavailable(err))
	assert.Contains(t, err.Error(), "primary down")
	assert.Contains(t, err.Error(), "fallback down")
}

func TestExecuteNoFallback(t *testing.T) {
	m := NewManager(time.Second, nil)

	_, _, err := Execute[string](context.Background(), m, "database", "search",
		func(ctx context.Context) (string, error) { return "", errors.New("down") },
		nil,
	)
	require.Error(t, err)
	assert.True(t, apperr.IsUnavailable(err))
}

func TestExecuteTimesOutSlowPrimary(t *testing.T) {
	m := NewManager(20*time.Millisecond, nil)

	got, degraded, err := Execute(context.Background(), m, "database", "search",
		func(ctx context.Context) (string, error) {
			time.Sleep(200 * time.Millisecond)
			return "too late", nil
		},
		func(ctx context.Context) (string, error) { return "fallback", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
	assert.True(t, degraded)

	h := m.Health()["database"]
	assert.False(t, h.Healthy)
	assert.Contains(t, h.LastError, "timed out")
}

func TestExecuteTimeoutWithoutFallbackIsTimeoutError(t *testing.T) {
	m := NewManager(20*time.Millisecond, nil)

	_, _, err := Execute[string](context.Background(), m, "database", "search",
		func(ctx context.Context) (string, error) {
			time.Sleep(200 * time.Millisecond)
			return "", nil
		},
		nil,
	)
	require.Error(t, err)
	// The unavailable wrapper preserves the timeout cause.
	assert.True(t, apperr.IsTimeout(err))
}

func TestExecuteCallerCancellation(t *testing.T) {
	m := NewManager(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fallbackRan := false
	_, degraded, err := Execute[string](ctx, m, "database", "search",
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		func(ctx context.Context) (string, error) {
			fallbackRan = true
			return "fallback", nil
		},
	)
	require.Error(t, err)
	assert.False(t, apperr.IsTimeout(err))
	assert.False(t, degraded)

	// A disconnected caller is not a dependency failure: health is
	// untouched and the fallback never runs.
	assert.False(t, fallbackRan)
	assert.True(t, m.Healthy())
	_, tracked := m.Health()["database"]
	assert.False(t, tracked)
}

func TestHealthSelfHeals(t *testing.T) {
	m := NewManager(time.Second, nil)

	_, _, _ = Execute[int](context.Background(), m, "database", "op",
		func(ctx context.Context) (int, error) { return 0, errors.New("down") }, nil)
	assert.False(t, m.Healthy())

	_, _, err := Execute(context.Background(), m, "database", "op",
		func(ctx context.Context) (int, error) { return 42, nil }, nil)
	require.NoError(t, err)
	assert.True(t, m.Healthy())
}

func TestMonitorRecordsThroughExecute(t *testing.T) {
	mon := NewMonitor(time.Hour)
	m := NewManager(time.Second, mon)

	_, _, _ = Execute(context.Background(), m, "database", "search",
		func(ctx context.Context) (int, error) { return 1, nil }, nil)
	_, _, _ = Execute[int](context.Background(), m, "database", "search",
		func(ctx context.Context) (int, error) { return 0, errors.New("x") }, nil)

	snap := mon.Snapshot()["search"]
	assert.Equal(t, int64(2), snap.Count)
	assert.InDelta(t, 0.5, snap.ErrorRate, 1e-9)
}
