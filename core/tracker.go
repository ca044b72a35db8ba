package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/harborwave/maritime-relay/geo"
	"github.com/harborwave/maritime-relay/id160"
	"github.com/harborwave/maritime-relay/internal/logging"
	"github.com/harborwave/maritime-relay/internal/observability"
)

// TargetTracker is the concurrent registry of all known targets. It is
// written by transport workers (position reports, endpoint
// registrations, connect/disconnect) while locate calls scan it, so no
// operation holds a registry-wide lock: scans over the underlying
// sync.Map are weakly consistent snapshots.
type TargetTracker struct {
	targets sync.Map // id160.Id160 -> *Target
	index   *spatialIndex

	tracked   atomic.Int64
	connected atomic.Int64

	log     logging.Logger
	metrics *observability.RelayCollector
}

// NewTargetTracker creates an empty registry. Both log and metrics may be
// nil.
func NewTargetTracker(log logging.Logger, metrics *observability.RelayCollector) *TargetTracker {
	if log == nil {
		log = logging.Noop()
	}
	return &TargetTracker{
		index:   newSpatialIndex(),
		log:     log,
		metrics: metrics,
	}
}

// Acquire returns the target with the given id, creating it on first
// contact.
func (t *TargetTracker) Acquire(id id160.Id160) *Target {
	if existing, ok := t.targets.Load(id); ok {
		return existing.(*Target)
	}
	created := newTarget(id)
	actual, loaded := t.targets.LoadOrStore(id, created)
	if !loaded {
		t.tracked.Add(1)
		t.publishCounts()
		t.log.Debug(context.Background(), "target created", logging.String("target", id.String()))
	}
	return actual.(*Target)
}

// Get returns the target or nil when unknown.
func (t *TargetTracker) Get(id id160.Id160) *Target {
	if v, ok := t.targets.Load(id); ok {
		return v.(*Target)
	}
	return nil
}

// Len returns the number of tracked targets.
func (t *TargetTracker) Len() int { return int(t.tracked.Load()) }

// UpdatePosition replaces the target's position atomically; concurrent
// readers see either the previous or the new PositionTime, never a mix.
func (t *TargetTracker) UpdatePosition(id id160.Id160, pt geo.PositionTime) {
	target := t.Acquire(id)
	target.setPosition(pt)
	if err := t.index.update(id, pt.Position); err != nil {
		t.log.Warn(context.Background(), "spatial index update failed",
			logging.String("target", id.String()), logging.Err(err))
	}
}

// RegisterEndpoint adds the endpoint name to the target's advertised set.
// Registering an already-present name is a no-op.
func (t *TargetTracker) RegisterEndpoint(id id160.Id160, name string) {
	if t.Acquire(id).registerEndpoint(name) && t.metrics != nil {
		t.metrics.EndpointRegistrations.Inc()
	}
}

// UnregisterEndpoint removes the endpoint name. Removing an absent name
// is a no-op.
func (t *TargetTracker) UnregisterEndpoint(id id160.Id160, name string) {
	if target := t.Get(id); target != nil {
		target.unregisterEndpoint(name)
	}
}

// ForEachTarget visits every target in a weakly consistent snapshot.
// Mutations concurrent with the scan may or may not be observed in the
// same pass. The visitor receives the target and its last position, nil
// when never reported.
func (t *TargetTracker) ForEachTarget(visit func(target *Target, pt *geo.PositionTime)) {
	t.targets.Range(func(_, v any) bool {
		target := v.(*Target)
		visit(target, target.Position())
		return true
	})
}

// TargetsWithin returns the targets whose last known position lies inside
// the area. The R-tree narrows candidates to the area's bounding box and
// the precise containment test refines them.
func (t *TargetTracker) TargetsWithin(area geo.Area) ([]*Target, error) {
	ids, err := t.index.within(area.Bounds())
	if err != nil {
		return nil, err
	}
	out := make([]*Target, 0, len(ids))
	for _, id := range ids {
		target := t.Get(id)
		if target == nil {
			continue // removed since the index was read
		}
		pt := target.Position()
		if pt != nil && area.Contains(pt.Position) {
			out = append(out, target)
		}
	}
	return out, nil
}

// Remove purges the target, its endpoint registrations and its spatial
// index entry. Called on disconnect or timeout.
func (t *TargetTracker) Remove(id id160.Id160) {
	if _, ok := t.targets.LoadAndDelete(id); !ok {
		return
	}
	t.index.remove(id)
	t.tracked.Add(-1)
	t.publishCounts()
	t.log.Debug(context.Background(), "target removed", logging.String("target", id.String()))
}

// noteConnectivity tracks the connected-target count for the gauges.
func (t *TargetTracker) noteConnectivity(up bool) {
	if up {
		t.connected.Add(1)
	} else {
		t.connected.Add(-1)
	}
	t.publishCounts()
}

func (t *TargetTracker) publishCounts() {
	if t.metrics != nil {
		t.metrics.SetTargetCounts(int(t.tracked.Load()), int(t.connected.Load()))
	}
}
