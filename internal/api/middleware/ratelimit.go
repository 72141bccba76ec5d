package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/identity"
)

// Clock is injected so tests can drive the window deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RateLimiter enforces a sliding window per caller identity (falling back
// to remote address for anonymous requests). Rejected requests carry a
// Retry-After hint derived from when the oldest in-window request expires.
type RateLimiter struct {
	mu      sync.Mutex
	callers map[string][]time.Time
	limit   int
	window  time.Duration
	clock   Clock
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(limit, window, realClock{})
}

func NewRateLimiterWithClock(limit int, window time.Duration, clock Clock) *RateLimiter {
	rl := &RateLimiter{
		callers: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		clock:   clock,
	}
	if _, isReal := clock.(realClock); isReal {
		go rl.cleanup()
	}
	return rl
}

// Allow records an attempt for key and reports whether it is within the
// limit; when rejected it returns how long to wait before retrying.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.clock.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.callers[key]
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.callers[key] = kept
		retryAfter := kept[0].Add(rl.window).Sub(now)
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		return false, retryAfter
	}

	rl.callers[key] = append(kept, now)
	return true, 0
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := identity.CallerID(r.Context())
		if key == "" {
			key = r.RemoteAddr
		}

		ok, retryAfter := rl.Allow(key)
		if !ok {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":       "rate limit exceeded",
				"retry_after": seconds,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		cutoff := rl.clock.Now().Add(-rl.window)
		rl.mu.Lock()
		for key, times := range rl.callers {
			if len(times) == 0 || !times[len(times)-1].After(cutoff) {
				delete(rl.callers, key)
			}
		}
		rl.mu.Unlock()
	}
}
