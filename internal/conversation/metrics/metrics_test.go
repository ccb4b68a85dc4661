package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordOutcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementAdmitted()
	m.IncrementRejected(ReasonActive)
	m.IncrementRejected(ReasonActive)
	m.IncrementRejected(ReasonValidation)
	m.IncrementTransition("ONGOING")
	m.ObserveAdmit(time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Admitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rejected.WithLabelValues(ReasonActive)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected.WithLabelValues(ReasonValidation)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("ONGOING")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AdmitDuration))
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
