package httpclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request outcomes. A nil *Metrics is valid and records
// nothing, so instrumentation stays optional.
type Metrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Attempt outcomes used as metric label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// NewMetrics creates request metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gmonitor",
				Subsystem: "httpclient",
				Name:      "attempts_total",
				Help:      "Total number of request attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gmonitor",
				Subsystem: "httpclient",
				Name:      "attempt_duration_seconds",
				Help:      "Duration of individual request attempts in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
			},
			[]string{"method"},
		),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(method Method, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeFailure
	if success {
		outcome = outcomeSuccess
	}
	m.attempts.WithLabelValues(string(method), outcome).Inc()
	m.duration.WithLabelValues(string(method)).Observe(elapsed.Seconds())
}
