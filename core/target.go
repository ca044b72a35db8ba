// Package core implements the relay's server core: the concurrent target
// registry, the proximity service locator and the connection event
// fan-out.
package core

import (
	"sync"
	"sync/atomic"

	"github.com/harborwave/maritime-relay/geo"
	"github.com/harborwave/maritime-relay/id160"
)

// endpointSet is an immutable endpoint-name set. Mutations build a new
// set and swap the pointer, so readers never take a lock and never see a
// half-built set.
type endpointSet map[string]struct{}

// Target is one tracked network participant: its identifier, the last
// reported position, the endpoints it advertises and whether it currently
// has a live connection.
//
// Targets are owned exclusively by the TargetTracker. Other components
// read them through tracker scans and must not retain mutable access.
type Target struct {
	id id160.Id160

	// position is replaced wholesale on every report so readers always
	// observe a complete PositionTime or nil.
	position atomic.Pointer[geo.PositionTime]

	endpoints atomic.Pointer[endpointSet]
	// mu serialises endpoint set swaps; reads go through the pointer.
	mu sync.Mutex

	connected atomic.Bool
}

func newTarget(id id160.Id160) *Target {
	t := &Target{id: id}
	empty := endpointSet{}
	t.endpoints.Store(&empty)
	return t
}

// ID returns the target identifier.
func (t *Target) ID() id160.Id160 { return t.id }

// Position returns the last reported position, or nil if the target has
// never reported one.
func (t *Target) Position() *geo.PositionTime { return t.position.Load() }

// HasEndpoint reports whether the target advertises the named endpoint.
func (t *Target) HasEndpoint(name string) bool {
	_, ok := (*t.endpoints.Load())[name]
	return ok
}

// Endpoints returns the advertised endpoint names in unspecified order.
func (t *Target) Endpoints() []string {
	set := *t.endpoints.Load()
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

// IsConnected reports the cached connectivity flag maintained by the
// connection event fan-out.
func (t *Target) IsConnected() bool { return t.connected.Load() }

func (t *Target) setConnected(up bool) { t.connected.Store(up) }

func (t *Target) setPosition(pt geo.PositionTime) {
	t.position.Store(&pt)
}

// registerEndpoint adds the name; adding an existing name is a no-op.
// Reports whether the set changed.
func (t *Target) registerEndpoint(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	old := *t.endpoints.Load()
	if _, ok := old[name]; ok {
		return false
	}
	next := make(endpointSet, len(old)+1)
	for k := range old {
		next[k] = struct{}{}
	}
	next[name] = struct{}{}
	t.endpoints.Store(&next)
	return true
}

// unregisterEndpoint removes the name; removing an absent name is a
// no-op. Reports whether the set changed.
func (t *Target) unregisterEndpoint(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	old := *t.endpoints.Load()
	if _, ok := old[name]; !ok {
		return false
	}
	next := make(endpointSet, len(old)-1)
	for k := range old {
		if k != name {
			next[k] = struct{}{}
		}
	}
	t.endpoints.Store(&next)
	return true
}
