package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide HTTP and consumer metrics.
type Metrics struct {
	RequestDuration  *prometheus.HistogramVec
	StatusEvents     *prometheus.CounterVec
	AuditRelayErrors prometheus.Counter
}

// New creates and registers the platform metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recruitline_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		StatusEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recruitline_status_events_total",
			Help: "Status change events consumed, by outcome (applied, skipped, failed)",
		}, []string{"outcome"}),
		AuditRelayErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "recruitline_audit_relay_errors_total",
			Help: "Outbox relay batches that failed to publish",
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncrementStatusEvent counts a consumed status event by outcome.
func (m *Metrics) IncrementStatusEvent(outcome string) {
	m.StatusEvents.WithLabelValues(outcome).Inc()
}

// IncrementAuditRelayErrors counts a failed relay pass.
func (m *Metrics) IncrementAuditRelayErrors() {
	m.AuditRelayErrors.Inc()
}
