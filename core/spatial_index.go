package core

import (
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/harborwave/maritime-relay/geo"
	"github.com/harborwave/maritime-relay/id160"
)

const (
	indexDimensions  = 2
	indexMinChildren = 25
	indexMaxChildren = 50
	// pointExtent gives point entries a tiny non-zero footprint, which
	// rtreego requires.
	pointExtent = 1e-9
)

// indexEntry wraps a target's last indexed position for the R-tree.
type indexEntry struct {
	id   id160.Id160
	rect *rtreego.Rect
}

func (e *indexEntry) Bounds() *rtreego.Rect { return e.rect }

// spatialIndex maintains an R-tree of target positions so area-scoped
// queries avoid a full registry scan. Updates happen on the position
// report path; like the scan path, queries are weakly consistent.
type spatialIndex struct {
	mu      sync.RWMutex
	tree    *rtreego.Rtree
	entries map[id160.Id160]*indexEntry
}

func newSpatialIndex() *spatialIndex {
	return &spatialIndex{
		tree:    rtreego.NewTree(indexDimensions, indexMinChildren, indexMaxChildren),
		entries: make(map[id160.Id160]*indexEntry),
	}
}

func pointRect(p geo.Position) (*rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{p.Latitude(), p.Longitude()},
		[]float64{pointExtent, pointExtent},
	)
}

// update moves the target's index entry to its new position.
func (s *spatialIndex) update(id id160.Id160, p geo.Position) error {
	rect, err := pointRect(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[id]; ok {
		s.tree.Delete(old)
	}
	entry := &indexEntry{id: id, rect: rect}
	s.entries[id] = entry
	s.tree.Insert(entry)
	return nil
}

// remove drops the target's entry if it has one.
func (s *spatialIndex) remove(id id160.Id160) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[id]; ok {
		s.tree.Delete(old)
		delete(s.entries, id)
	}
}

// within returns the ids of indexed targets whose position falls inside
// the box. Callers refine against the precise area afterwards.
func (s *spatialIndex) within(box geo.BoundingBox) ([]id160.Id160, error) {
	rect, err := rtreego.NewRect(
		rtreego.Point{box.MinLatitude, box.MinLongitude},
		[]float64{
			box.MaxLatitude - box.MinLatitude + pointExtent,
			box.MaxLongitude - box.MinLongitude + pointExtent,
		},
	)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := s.tree.SearchIntersect(rect)
	ids := make([]id160.Id160, 0, len(hits))
	for _, h := range hits {
		if e, ok := h.(*indexEntry); ok {
			ids = append(ids, e.id)
		}
	}
	return ids, nil
}
