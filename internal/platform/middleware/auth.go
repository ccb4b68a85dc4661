package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"recruitline/pkg/requestcontext"
)

// Auth failure messages returned to callers.
const (
	msgMissingHeader = "Missing or invalid Authorization header"
	msgInvalidToken  = "Unauthorized: Invalid token"
	msgConfigError   = "Server configuration error"
)

// ErrNotConfigured is returned by validators that have no secret to check against.
var ErrNotConfigured = errors.New("token validator not configured")

// TokenValidator checks a bearer token and returns who presented it.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

// Claims is what the middleware needs from a validated token.
type Claims struct {
	Subject string
}

// StaticToken validates against a single shared API token.
type StaticToken struct {
	token []byte
}

func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: []byte(token)}
}

func (s *StaticToken) ValidateToken(token string) (*Claims, error) {
	if len(s.token) == 0 {
		return nil, ErrNotConfigured
	}
	if subtle.ConstantTimeCompare(s.token, []byte(token)) != 1 {
		return nil, errors.New("token mismatch")
	}
	return &Claims{Subject: "api-token"}, nil
}

// RequireBearer rejects requests without a valid "Authorization: Bearer" token
// and records the token subject in the request context.
func RequireBearer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeAuthError(w, http.StatusUnauthorized, msgMissingHeader)
				return
			}

			if validator == nil {
				logger.ErrorContext(ctx, "no token validator configured",
					"request_id", requestID,
				)
				writeAuthError(w, http.StatusInternalServerError, msgConfigError)
				return
			}

			claims, err := validator.ValidateToken(token)
			if errors.Is(err, ErrNotConfigured) {
				logger.ErrorContext(ctx, "API token secret not set",
					"request_id", requestID,
				)
				writeAuthError(w, http.StatusInternalServerError, msgConfigError)
				return
			}
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeAuthError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			ctx = requestcontext.WithSubject(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
