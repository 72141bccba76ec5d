// Package identity carries the caller's identity through request contexts.
// Authentication itself happens upstream; the engine only needs a stable
// caller id for owner scoping and rate limiting.
package identity

import (
	"context"
	"net/http"
)

type contextKey string

const callerKey contextKey = "caller"

// Header is where the upstream auth layer places the caller id.
const Header = "X-User-ID"

func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerKey, callerID)
}

// CallerID returns the caller id from the context, or "" when anonymous.
func CallerID(ctx context.Context) string {
	id, _ := ctx.Value(callerKey).(string)
	return id
}

// Middleware extracts the caller id header into the request context.
// Requests without one proceed as anonymous; handlers that require an
// owner reject them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(Header); id != "" {
			r = r.WithContext(WithCaller(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
