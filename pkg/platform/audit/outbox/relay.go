// Package outbox relays committed audit outbox rows to the event bus.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"recruitline/pkg/platform/audit/store/postgres"
)

type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.Entry, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// Sink delivers one payload. Publish must be synchronous: the row is marked
// published only after it returns nil.
type Sink interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay polls the outbox and publishes pending entries in order. Delivery is
// at least once: a crash between Publish and MarkPublished re-sends the batch.
type Relay struct {
	source    Source
	sink      Sink
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	onError   func(error)
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithErrorHook is called after each failed relay pass, for metrics.
func WithErrorHook(fn func(error)) Option {
	return func(r *Relay) {
		r.onError = fn
	}
}

func NewRelay(source Source, sink Sink, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		sink:      sink,
		logger:    logger,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Publish failures are logged and retried
// on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "outbox relay failed", "error", err)
				if r.onError != nil {
					r.onError(err)
				}
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were marked
// published. It stops at the first publish failure so per-key order holds.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	published := make([]string, 0, len(entries))
	var publishErr error
	for _, e := range entries {
		if err := r.sink.Publish(ctx, e.Key, e.Payload); err != nil {
			publishErr = fmt.Errorf("publish outbox entry %s: %w", e.ID, err)
			break
		}
		published = append(published, e.ID)
	}

	if err := r.source.MarkPublished(ctx, published, time.Now()); err != nil {
		return 0, err
	}
	return len(published), publishErr
}
