package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterFor(f *dto.MetricFamily, label, value string) float64 {
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == label && l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestObserveCheckout(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg)

	m.ObserveCheckout("success", 12*time.Millisecond)
	m.ObserveCheckout("success", 8*time.Millisecond)
	m.ObserveCheckout("insufficient_stock", time.Millisecond)

	families := gather(t, reg)
	commits := families["pos_checkout_commits_total"]
	if commits == nil {
		t.Fatal("expected pos_checkout_commits_total")
	}
	if got := counterFor(commits, "outcome", "success"); got != 2 {
		t.Errorf("expected 2 successes, got %v", got)
	}
	if got := counterFor(commits, "outcome", "insufficient_stock"); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}

	latency := families["pos_checkout_commit_duration_ms"]
	if latency == nil || latency.GetMetric()[0].GetHistogram().GetSampleCount() != 3 {
		t.Errorf("expected 3 latency samples, got %v", latency)
	}
}

func TestNewServerMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg)
	m.Requests.WithLabelValues("/health", "GET", "200").Inc()

	if counterFor(gather(t, reg)["pos_http_requests_total"], "handler", "/health") != 1 {
		t.Error("expected one /health request counted")
	}
}
