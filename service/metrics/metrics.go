package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "uapush"

// Metrics holds the delivery and fake endpoint collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Attempts        *prometheus.CounterVec
	Sends           *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec
	Received        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_attempts_total",
			Help:      "HTTP delivery attempts by outcome",
		}, []string{"outcome"}),
		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Logical sends by final result",
		}, []string{"result"}),
		AttemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_attempt_seconds",
			Help:      "Duration of a single HTTP delivery attempt",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		Received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fake_pushes_received_total",
			Help:      "Pushes accepted by the fake Airship endpoint",
		}, []string{"endpoint"}),
	}

	if reg != nil {
		reg.MustRegister(m.Attempts, m.Sends, m.AttemptDuration, m.Received)
	}
	return m
}

const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "http_status"
	OutcomeTransport = "transport"

	ResultDelivered = "delivered"
	ResultExhausted = "exhausted"
	ResultRejected  = "rejected"
	ResultCancelled = "cancelled"
)

func (m *Metrics) ObserveAttempt(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(outcome).Inc()
	m.AttemptDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) IncSend(result string) {
	if m == nil {
		return
	}
	m.Sends.WithLabelValues(result).Inc()
}

func (m *Metrics) IncReceived(endpoint string) {
	if m == nil {
		return
	}
	m.Received.WithLabelValues(endpoint).Inc()
}
