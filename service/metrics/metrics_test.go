package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt(OutcomeOK, time.Millisecond)
		m.IncSend(ResultDelivered)
		m.IncReceived("push")
	})
}

func TestCountersAreRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAttempt(OutcomeTransport, 10*time.Millisecond)
	m.ObserveAttempt(OutcomeOK, 5*time.Millisecond)
	m.IncSend(ResultDelivered)
	m.IncReceived("airmail")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues(OutcomeTransport)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sends.WithLabelValues(ResultDelivered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Received.WithLabelValues("airmail")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}
