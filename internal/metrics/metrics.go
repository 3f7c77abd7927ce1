package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Checkouts *prometheus.CounterVec
	CommitMS  prometheus.Histogram
}

// NewServerMetrics registers the collectors on reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "commits_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	commit := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "commit_duration_ms",
		Help:      "Checkout commit latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	reg.MustRegister(requests, latency, checkouts, commit)
	return &ServerMetrics{Requests: requests, LatencyMS: latency, Checkouts: checkouts, CommitMS: commit}
}

// ObserveCheckout records one checkout attempt.
func (m *ServerMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	m.Checkouts.WithLabelValues(outcome).Inc()
	m.CommitMS.Observe(float64(duration) / float64(time.Millisecond))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
