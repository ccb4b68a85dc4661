package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.2:1234", want: "203.0.113.7"},
		{name: "real ip header", headers: map[string]string{"X-Real-IP": " 198.51.100.4 "}, remote: "10.0.0.2:1234", want: "198.51.100.4"},
		{name: "ipv4 remote addr", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "ipv6 remote addr", remote: "[::1]:5555", want: "::1"},
		{name: "remote addr without port", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "nothing known", want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var ip, ua string
	h := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip = ClientIP(r.Context())
		ua = UserAgent(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/webhook/job-application", nil)
	r.RemoteAddr = "192.0.2.10:443"
	r.Header.Set("User-Agent", "ats-webhook/1.0")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.10", ip)
	assert.Equal(t, "ats-webhook/1.0", ua)
}

func TestClientFromContext(t *testing.T) {
	assert.Equal(t, Client{}, ClientFromContext(context.Background()))

	ctx := WithClientMetadata(context.Background(), "192.0.2.1",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	c := ClientFromContext(ctx)
	assert.Equal(t, "Chrome", c.Name)
	assert.Equal(t, "120.0.0.0", c.Version)
	assert.False(t, c.Bot)

	bot := ClientFromContext(WithClientMetadata(context.Background(), "", "Googlebot/2.1 (+http://www.google.com/bot.html)"))
	assert.True(t, bot.Bot)
}
