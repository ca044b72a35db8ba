package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCountersAndHistogramRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRelayCollector(reg)
	if err != nil {
		t.Fatalf("NewRelayCollector: %v", err)
	}

	collector.EndpointRegistrations.Inc()
	collector.ServiceLocates.Inc()
	collector.ServiceLocates.Inc()
	collector.ListenerPanics.Inc()
	collector.LocateDuration.Observe(0.002)

	if got := testutil.ToFloat64(collector.EndpointRegistrations); got != 1 {
		t.Fatalf("relay_endpoint_registrations_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ServiceLocates); got != 2 {
		t.Fatalf("relay_service_locates_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ListenerPanics); got != 1 {
		t.Fatalf("relay_listener_panics_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "relay_locate_duration_seconds"); count != 1 {
		t.Fatalf("relay_locate_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestSetTargetCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRelayCollector(reg)
	if err != nil {
		t.Fatalf("NewRelayCollector: %v", err)
	}

	collector.SetTargetCounts(7, 3)
	if got := gaugeValue(t, reg, "relay_tracked_targets"); got != 7 {
		t.Fatalf("relay_tracked_targets = %v, want 7", got)
	}
	if got := gaugeValue(t, reg, "relay_connected_targets"); got != 3 {
		t.Fatalf("relay_connected_targets = %v, want 3", got)
	}

	// A nil collector is a silent no-op for unmetered callers.
	var nilCollector *RelayCollector
	nilCollector.SetTargetCounts(1, 1)
}

func TestReregistrationIsTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRelayCollector(reg)
	if err != nil {
		t.Fatalf("NewRelayCollector: %v", err)
	}
	first.ServiceLocates.Inc()

	second, err := NewRelayCollector(reg)
	if err != nil {
		t.Fatalf("second NewRelayCollector: %v", err)
	}
	second.ServiceLocates.Inc()

	// Both handles resolve to the same underlying collector.
	if got := testutil.ToFloat64(second.ServiceLocates); got != 2 {
		t.Fatalf("relay_service_locates_total = %v, want 2", got)
	}
}

func TestMetricsHandlerExposesRelayMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRelayCollector(reg)
	if err != nil {
		t.Fatalf("NewRelayCollector: %v", err)
	}
	collector.SetTargetCounts(12, 9)
	collector.ServiceLocates.Inc()
	collector.LocateDuration.Observe(0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"relay_endpoint_registrations_total",
		"relay_service_locates_total",
		"relay_locate_duration_seconds",
		"relay_tracked_targets",
		"relay_connected_targets",
		"relay_listener_panics_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
	if !strings.Contains(body, "relay_tracked_targets 12") {
		t.Fatalf("/metrics output missing gauge value: %s", body)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string) uint64 {
	t.Helper()
	for _, m := range gatheredMetrics(t, gatherer, name) {
		if h := m.GetHistogram(); h != nil {
			return h.GetSampleCount()
		}
	}
	return 0
}

func gaugeValue(t *testing.T, gatherer prometheus.Gatherer, name string) float64 {
	t.Helper()
	for _, m := range gatheredMetrics(t, gatherer, name) {
		if g := m.GetGauge(); g != nil {
			return g.GetValue()
		}
	}
	t.Fatalf("gauge %s not gathered", name)
	return 0
}

func gatheredMetrics(t *testing.T, gatherer prometheus.Gatherer, name string) []*dto.Metric {
	t.Helper()

	families, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.Metric
		}
	}
	return nil
}
