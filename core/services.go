package core

import (
	"context"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/harborwave/maritime-relay/geo"
	"github.com/harborwave/maritime-relay/id160"
	"github.com/harborwave/maritime-relay/internal/logging"
	"github.com/harborwave/maritime-relay/internal/observability"
)

// Services answers the endpoint discovery operations of the relay: who,
// near a given position, advertises a named endpoint.
type Services struct {
	tracker *TargetTracker
	log     logging.Logger
	metrics *observability.RelayCollector
	tracer  trace.Tracer
}

// NewServices wires the locator against a tracker. Both log and metrics
// may be nil.
func NewServices(tracker *TargetTracker, log logging.Logger, metrics *observability.RelayCollector) *Services {
	if log == nil {
		log = logging.Noop()
	}
	return &Services{
		tracker: tracker,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("core/services"),
	}
}

// RegisterEndpoint records that the target advertises the named endpoint.
func (s *Services) RegisterEndpoint(id id160.Id160, endpointName string) {
	s.tracker.RegisterEndpoint(id, endpointName)
}

// UnregisterEndpoint removes the advertisement. Removal is real: a
// target that stops offering a service disappears from subsequent
// locate results.
func (s *Services) UnregisterEndpoint(id id160.Id160, endpointName string) {
	s.tracker.UnregisterEndpoint(id, endpointName)
}

type match struct {
	id       id160.Id160
	distance float64
}

// Locate returns the ids of targets advertising endpointName, excluding
// the requester, ordered and filtered as follows:
//
//   - radiusMeters <= 0 means unbounded, maxResults <= 0 means unbounded;
//   - with a requester position, only targets within the geodesic radius
//     qualify and results are sorted ascending by geodesic distance, then
//     truncated to maxResults;
//   - without a requester position the radius is ignored and results come
//     back in registry scan order. This asymmetry is deliberate.
//
// An empty registry or no match yields an empty slice, never an error.
// The call is synchronous and proportional to registry size; ctx is used
// for tracing only.
func (s *Services) Locate(ctx context.Context, requester id160.Id160, requesterPos *geo.Position, endpointName string, radiusMeters float64, maxResults int) []id160.Id160 {
	start := time.Now()
	_, span := s.tracer.Start(ctx, "Services.Locate", trace.WithAttributes(
		attribute.String("endpoint", endpointName),
		attribute.Float64("radius_meters", radiusMeters),
		attribute.Int("max_results", maxResults),
	))
	defer span.End()

	radius := radiusMeters
	if radius <= 0 {
		radius = math.MaxFloat64
	}

	var matches []match
	s.tracker.ForEachTarget(func(target *Target, pt *geo.PositionTime) {
		if target.ID() == requester || !target.HasEndpoint(endpointName) {
			return
		}
		if requesterPos == nil {
			matches = append(matches, match{id: target.ID()})
			return
		}
		if pt == nil {
			return // never reported a position, cannot qualify by distance
		}
		d := pt.GeodesicDistanceTo(*requesterPos)
		if d <= radius {
			matches = append(matches, match{id: target.ID(), distance: d})
		}
	})

	if requesterPos != nil {
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].distance < matches[j].distance
		})
	}
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	result := make([]id160.Id160, len(matches))
	for i, m := range matches {
		result[i] = m.id
	}

	if s.metrics != nil {
		s.metrics.ServiceLocates.Inc()
		s.metrics.LocateDuration.Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.Int("results", len(result)))
	return result
}
