// Package requesttime pins one "now" per request, so the candidate's
// created_at, the conversation's createdAt and the audit timestamp all agree.
package requesttime

import (
	"net/http"
	"time"

	"recruitline/pkg/requestcontext"
)

// Middleware stamps the request context with the current UTC time.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
