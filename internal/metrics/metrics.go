package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics. Each instance registers on
// its own registry so several routers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ClaimsTotal     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		ClaimsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_enquiry_claims_total",
				Help: "Enquiry claim attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ClaimsTotal,
		collectors.NewGoCollector(),
	)

	return m
}

// ObserveClaim counts one claim attempt.
func (m *Metrics) ObserveClaim(outcome string) {
	m.ClaimsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
