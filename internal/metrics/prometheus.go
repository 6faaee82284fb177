package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "router"

const (
	outcomeSuccess        = "success"
	outcomeErrorStatus    = "error_status"
	outcomeTransportError = "transport_error"
)

type promMetrics struct {
	probes          *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	forwardDuration *prometheus.HistogramVec
	dispatches      *prometheus.CounterVec
}

func newPromMetrics(reg prometheus.Registerer) *promMetrics {
	factory := promauto.With(reg)

	return &promMetrics{
		probes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "health_probes_total",
				Help:      "Total number of backend health probes by resulting status.",
			},
			[]string{"backend", "status"},
		),
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forward_attempts_total",
				Help:      "Total number of forward attempts by outcome.",
			},
			[]string{"backend", "outcome"},
		),
		forwardDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "forward_duration_seconds",
				Help:      "Duration of forward attempts.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25},
			},
			[]string{"backend"},
		),
		dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_total",
				Help:      "Total number of dispatched requests by returned status code.",
			},
			[]string{"code"},
		),
	}
}

func (p *promMetrics) observeProbe(backend string, healthy bool) {
	status := "unhealthy"
	if healthy {
		status = "healthy"
	}
	p.probes.WithLabelValues(backend, status).Inc()
}

func (p *promMetrics) observeAttempt(backend string, duration time.Duration, statusCode int, failed bool) {
	outcome := outcomeSuccess
	switch {
	case failed && statusCode == 0:
		outcome = outcomeTransportError
	case failed:
		outcome = outcomeErrorStatus
	}

	p.attempts.WithLabelValues(backend, outcome).Inc()
	p.forwardDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

func (p *promMetrics) observeDispatch(statusCode int) {
	p.dispatches.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}
