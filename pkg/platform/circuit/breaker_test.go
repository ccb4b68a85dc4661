package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type outcome int

const (
	fail outcome = iota
	succeed
)

func TestBreakerSequences(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		outcomes []outcome
		want     State
	}{
		{name: "new breaker is closed", want: StateClosed},
		{name: "failures below threshold", outcomes: []outcome{fail, fail, fail, fail}, want: StateClosed},
		{name: "default threshold opens", outcomes: []outcome{fail, fail, fail, fail, fail}, want: StateOpen},
		{name: "success resets failure streak", outcomes: []outcome{fail, fail, fail, fail, succeed, fail}, want: StateClosed},
		{
			name:     "custom thresholds",
			opts:     []Option{WithFailureThreshold(2), WithSuccessThreshold(1)},
			outcomes: []outcome{fail, fail, succeed},
			want:     StateClosed,
		},
		{
			name:     "failure while recovering restarts the success count",
			opts:     []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			outcomes: []outcome{fail, succeed, fail, succeed},
			want:     StateOpen,
		},
		{
			name:     "non-positive thresholds keep defaults",
			opts:     []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)},
			outcomes: []outcome{fail, fail, fail, fail},
			want:     StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("audit-kafka", tt.opts...)
			for _, o := range tt.outcomes {
				if o == fail {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
			}
			assert.Equal(t, tt.want, b.State())
			assert.Equal(t, tt.want == StateOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsTransitions(t *testing.T) {
	b := New("audit-kafka", WithFailureThreshold(2), WithSuccessThreshold(2))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.Equal(t, StateChange{}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback, "open circuit keeps using the fallback")
	assert.False(t, change.Opened)

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.Equal(t, StateChange{}, change)

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("audit-kafka", WithFailureThreshold(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "audit-kafka", b.Name())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
}
