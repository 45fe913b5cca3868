package authapi

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values.
const (
	outcomeSuccess     = "success"
	outcomeInvalid     = "invalid_credentials"
	outcomeBadRequest  = "bad_request"
	outcomeRateLimited = "rate_limited"
	outcomeError       = "error"
	outcomeCancelled   = "cancelled"

	outcomeValid     = "valid"
	outcomeExpired   = "expired"
	outcomeSignature = "invalid_signature"
	outcomeMalformed = "malformed"
	outcomeMissing   = "missing"
)

// Metrics holds the auth API's Prometheus collectors.
type Metrics struct {
	attempts    *prometheus.CounterVec
	validations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Authentication attempts by outcome.",
		}, []string{"outcome"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "session",
			Name:      "validations_total",
			Help:      "Session token validations by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "planner",
			Subsystem: "auth",
			Name:      "request_duration_seconds",
			Help:      "Auth API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.validations, m.latency)
	}
	return m
}

func (m *Metrics) attempt(outcome string) {
	if m != nil {
		m.attempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) validation(outcome string) {
	if m != nil {
		m.validations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) observe(route string, seconds float64) {
	if m != nil {
		m.latency.WithLabelValues(route).Observe(seconds)
	}
}
