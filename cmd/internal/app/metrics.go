package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	refreshesTotal  *prometheus.CounterVec
}

// NewMetrics builds a registry with Go runtime collectors plus the
// service counters and histograms.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usersvc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method and status class.",
		}, []string{"method", "class"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "usersvc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method"}),
		loginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usersvc",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts, by outcome.",
		}, []string{"outcome"}),
		refreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usersvc",
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Access token refresh attempts, by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveLogin records a login attempt keyed by HTTP status.
func (m *Metrics) ObserveLogin(status int) {
	m.loginsTotal.WithLabelValues(outcomeLabel(status)).Inc()
}

// ObserveRefresh records a refresh attempt keyed by HTTP status.
func (m *Metrics) ObserveRefresh(status int) {
	m.refreshesTotal.WithLabelValues(outcomeLabel(status)).Inc()
}

func outcomeLabel(status int) string {
	if status >= 200 && status < 300 {
		return "ok"
	}
	return "fail_" + strconv.Itoa(status)
}
