package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Attempts        prometheus.Counter
	LoginFailures   prometheus.Counter
	LoginThrottled  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_total",
			Help: "Quiz attempts recorded",
		}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "login_failures_total",
			Help: "Login attempts rejected for bad credentials",
		}),
		LoginThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "login_throttled_total",
			Help: "Login attempts rejected by the rate limiter",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDuration,
		m.Attempts,
		m.LoginFailures,
		m.LoginThrottled,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
