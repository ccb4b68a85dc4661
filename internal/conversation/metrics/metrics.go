package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonValidation        = "validation"
	ReasonActive            = "active_conversation"
	ReasonDuplicate         = "duplicate_application"
	ReasonConversationTaken = "conversation_id_taken"
)

// Metrics provides observability for conversation admission and lifecycle.
type Metrics struct {
	Admitted      prometheus.Counter
	Rejected      *prometheus.CounterVec
	Failures      prometheus.Counter
	Transitions   *prometheus.CounterVec
	AdmitDuration prometheus.Histogram
	CacheLookups  *prometheus.CounterVec
}

// New registers the conversation metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Admitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "recruitline_conversations_admitted_total",
			Help: "Total number of conversations created from application events",
		}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recruitline_admissions_rejected_total",
			Help: "Application events rejected, by reason",
		}, []string{"reason"}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "recruitline_admissions_failed_total",
			Help: "Admissions aborted by an infrastructure failure",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recruitline_conversation_transitions_total",
			Help: "Conversation status transitions, by target status",
		}, []string{"to"}),
		AdmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recruitline_admit_duration_seconds",
			Help:    "Duration of Admit operations (webhook critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recruitline_conversation_cache_lookups_total",
			Help: "Conversation cache lookups, by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementAdmitted() {
	m.Admitted.Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementFailures() {
	m.Failures.Inc()
}

func (m *Metrics) IncrementTransition(to string) {
	m.Transitions.WithLabelValues(to).Inc()
}

// ObserveAdmit records the duration of an Admit call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAdmit(start time.Time) {
	m.AdmitDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}
