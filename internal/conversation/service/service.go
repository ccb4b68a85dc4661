package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"recruitline/internal/conversation/metrics"
	"recruitline/internal/conversation/models"
	audit "recruitline/pkg/platform/audit"
)

const tracerName = "recruitline/internal/conversation/service"

type CandidateStore interface {
	CreateIfAbsent(ctx context.Context, c models.Candidate) (bool, error)
}

type ConversationStore interface {
	Create(ctx context.Context, c *models.Conversation) error
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	FindActiveByCandidate(ctx context.Context, candidateID string) (*models.Conversation, error)
	FindByCandidateAndJob(ctx context.Context, candidateID, jobID string) (*models.Conversation, error)
	List(ctx context.Context, status *models.Status) ([]*models.Conversation, error)
	UpdateStatus(ctx context.Context, id string, from, to models.Status, now time.Time) error
}

// ConversationCache is a read-through cache in front of GetByID. Get returns
// sentinel.ErrNotFound on a miss.
type ConversationCache interface {
	Get(ctx context.Context, id string) (*models.Conversation, error)
	Set(ctx context.Context, c *models.Conversation) error
	Delete(ctx context.Context, id string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type options struct {
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *metrics.Metrics
	cache   ConversationCache
	tracer  trace.Tracer
}

// Option configures Registry, Ledger and Admission. Each constructor picks
// the options it uses and ignores the rest.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(o *options) {
		o.audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func WithCache(c ConversationCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o
}

func (o *options) emit(ctx context.Context, event audit.Event) error {
	if o.audit == nil {
		return nil
	}
	return o.audit.Emit(ctx, event)
}
