package testutil

import (
	"context"
	"time"

	"recruitline/pkg/requestcontext"
)

// RequestContext returns a context carrying what the HTTP middleware would
// set: a request id, a fixed request time and the caller subject.
func RequestContext(requestID string, now time.Time, subject string) context.Context {
	ctx := requestcontext.WithRequestID(context.Background(), requestID)
	ctx = requestcontext.WithTime(ctx, now)
	return requestcontext.WithSubject(ctx, subject)
}
