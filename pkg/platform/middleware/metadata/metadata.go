// Package metadata records where a request came from so access logs can
// attribute webhook traffic to its sender.
package metadata

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type (
	clientIPKey  struct{}
	userAgentKey struct{}
)

// Client describes the software that sent a request, parsed from User-Agent.
type Client struct {
	Name    string
	Version string
	Bot     bool
}

// ClientMetadata stores the caller's IP and User-Agent in the request context.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the address recorded by ClientMetadata.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// UserAgent returns the User-Agent recorded by ClientMetadata.
func UserAgent(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey{}).(string)
	return ua
}

// ClientFromContext parses the recorded User-Agent. It returns the zero
// Client when none was sent.
func ClientFromContext(ctx context.Context) Client {
	raw := UserAgent(ctx)
	if raw == "" {
		return Client{}
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	return Client{Name: name, Version: version, Bot: ua.Bot()}
}

// WithClientMetadata injects caller metadata, for tests that skip the middleware.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// ClientIPFromRequest prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the connection's remote address.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
