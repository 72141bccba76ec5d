package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/identity"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestAllowWithinLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("alice")
		assert.True(t, ok)
	}

	ok, retryAfter := rl.Allow("alice")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)
}

func TestAllowSlidingWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(2, time.Minute, clock)

	ok, _ := rl.Allow("alice")
	require.True(t, ok)
	clock.advance(30 * time.Second)
	ok, _ = rl.Allow("alice")
	require.True(t, ok)

	ok, retryAfter := rl.Allow("alice")
	require.False(t, ok)
	// The oldest request expires 30s from now.
	assert.Equal(t, 30*time.Second, retryAfter)

	clock.advance(31 * time.Second)
	ok, _ = rl.Allow("alice")
	assert.True(t, ok)
}

func TestAllowIsolatesCallers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(1, time.Minute, clock)

	ok, _ := rl.Allow("alice")
	require.True(t, ok)
	ok, _ = rl.Allow("alice")
	require.False(t, ok)

	ok, _ = rl.Allow("bob")
	assert.True(t, ok)
}

func TestLimitMiddlewareRejectsWithRetryAfter(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(1, time.Minute, clock)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/search", nil)
		req = req.WithContext(identity.WithCaller(req.Context(), "alice"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	seconds, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, seconds, 0)
	assert.Contains(t, rec.Body.String(), "retry_after")
}

func TestLimitMiddlewareFallsBackToRemoteAddr(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(1, time.Minute, clock)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
