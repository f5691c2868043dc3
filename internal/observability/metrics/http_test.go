package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCountsByRouteAndStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry)

	m.Observe("/api/github-summarizer", "POST", 200, 120*time.Millisecond)
	m.Observe("/api/github-summarizer", "POST", 200, 80*time.Millisecond)
	m.Observe("/api/github-summarizer", "POST", 429, 5*time.Millisecond)
	m.Observe("", "GET", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/github-summarizer", "POST", "200")); got != 2 {
		t.Fatalf("expected 2 admitted requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/github-summarizer", "POST", "429")); got != 1 {
		t.Fatalf("expected 1 rejected request, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unknown", "GET", "404")); got != 1 {
		t.Fatalf("expected unmatched route to be recorded as unknown, got %v", got)
	}
}

func TestObserveNilReceiverIsSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("/health", "GET", 200, time.Millisecond)
}
