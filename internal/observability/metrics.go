// Package observability bundles the Prometheus metrics and OpenTelemetry
// tracing used by the relay core.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RelayCollector bundles the Prometheus metrics of the relay core: the
// target registry, the proximity locator and the connection event
// fan-out. All fields tolerate a nil receiver so instrumented code can
// run unmetered in tests.
type RelayCollector struct {
	gatherer prometheus.Gatherer

	EndpointRegistrations prometheus.Counter
	ServiceLocates        prometheus.Counter
	LocateDuration        prometheus.Histogram
	TrackedTargets        prometheus.Gauge
	ConnectedTargets      prometheus.Gauge
	ListenerPanics        prometheus.Counter
}

// NewRelayCollector registers the relay metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Re-registration of an identical collector is tolerated.
func NewRelayCollector(reg prometheus.Registerer) (*RelayCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	registrations, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_endpoint_registrations_total",
		Help: "Total number of endpoint registrations handled by the relay.",
	}), "relay_endpoint_registrations_total")
	if err != nil {
		return nil, err
	}

	locates, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_service_locates_total",
		Help: "Total number of proximity locate requests served.",
	}), "relay_service_locates_total")
	if err != nil {
		return nil, err
	}

	locateDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_locate_duration_seconds",
		Help:    "Locate request latency in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "relay_locate_duration_seconds")
	if err != nil {
		return nil, err
	}

	tracked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_tracked_targets",
		Help: "Current number of targets in the registry.",
	}), "relay_tracked_targets")
	if err != nil {
		return nil, err
	}

	connected, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connected_targets",
		Help: "Current number of targets with a live connection.",
	}), "relay_connected_targets")
	if err != nil {
		return nil, err
	}

	panics, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_listener_panics_total",
		Help: "Total number of connection listener invocations that panicked.",
	}), "relay_listener_panics_total")
	if err != nil {
		return nil, err
	}

	return &RelayCollector{
		gatherer:              gatherer,
		EndpointRegistrations: registrations,
		ServiceLocates:        locates,
		LocateDuration:        locateDuration,
		TrackedTargets:        tracked,
		ConnectedTargets:      connected,
		ListenerPanics:        panics,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RelayCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetTargetCounts drives the registry gauges from the tracker's mutators.
func (c *RelayCollector) SetTargetCounts(tracked, connected int) {
	if c == nil {
		return
	}
	if c.TrackedTargets != nil {
		c.TrackedTargets.Set(float64(tracked))
	}
	if c.ConnectedTargets != nil {
		c.ConnectedTargets.Set(float64(connected))
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
