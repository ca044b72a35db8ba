package geo

import (
	"errors"
	"fmt"

	"github.com/harborwave/maritime-relay/codec"
)

var (
	ErrEmptyArea = errors.New("area contains no positions to sample")
)

// Source supplies uniform draws in [0, 1) for area sampling. Both
// math/rand and the id160 generator satisfy it.
type Source interface {
	Float64() float64
}

// Area is a closed shape on the Earth surface. The concrete variants are
// Circle, Rectangle, Polygon and Union; the set is closed so dispatch
// sites may type-switch exhaustively.
type Area interface {
	// Contains reports whether the position lies inside the shape
	// (boundary included).
	Contains(p Position) bool
	// Intersects reports whether the two shapes overlap. For Polygon the
	// test is conservative: vertex and corner containment over
	// intersecting bounds.
	Intersects(other Area) bool
	// Bounds returns the axis-aligned bounding box of the shape.
	Bounds() BoundingBox
	// RandomPosition returns a position sampled uniformly over the
	// shape's area, or an error when the shape is degenerate (an empty
	// union, or a polygon whose rejection sampling cannot terminate).
	RandomPosition(src Source) (Position, error)

	sealed()
}

// Union is the area covered by any of its members. Members may themselves
// be unions; an empty union contains nothing and intersects nothing.
type Union struct {
	members []Area
}

// NewUnion builds a flat union of the given areas. Nested unions are kept
// as members, not flattened.
func NewUnion(members ...Area) Union {
	return Union{members: append([]Area(nil), members...)}
}

// Members returns the member areas in construction order.
func (u Union) Members() []Area { return append([]Area(nil), u.members...) }

func (u Union) Contains(p Position) bool {
	for _, m := range u.members {
		if m.Contains(p) {
			return true
		}
	}
	return false
}

func (u Union) Intersects(other Area) bool {
	for _, m := range u.members {
		if m.Intersects(other) {
			return true
		}
	}
	return false
}

func (u Union) Bounds() BoundingBox {
	var box BoundingBox
	for i, m := range u.members {
		if i == 0 {
			box = m.Bounds()
		} else {
			box = box.Extend(m.Bounds())
		}
	}
	return box
}

// RandomPosition picks a member uniformly and samples it. This is not
// area-weighted over the union's total geometry; members are equally
// likely regardless of size. Accepted approximation.
func (u Union) RandomPosition(src Source) (Position, error) {
	if len(u.members) == 0 {
		return Position{}, fmt.Errorf("%w: empty union", ErrEmptyArea)
	}
	i := int(src.Float64() * float64(len(u.members)))
	if i == len(u.members) {
		i--
	}
	return u.members[i].RandomPosition(src)
}

func (Union) sealed() {}

// Area wire discriminants, tried in this order by ReadArea.
const (
	tagCircle    = 1
	tagRectangle = 2
	tagPolygon   = 3
	tagUnion     = 4
)

// WriteArea encodes an area with its variant discriminant: circle under
// tag 1, rectangle under 2, polygon under 3, union as a list under 4.
func WriteArea(w codec.Writer, a Area) error {
	switch v := a.(type) {
	case Circle:
		return w.WriteMessage(tagCircle, "circle", v.writeFields)
	case Rectangle:
		return w.WriteMessage(tagRectangle, "box", v.writeFields)
	case Polygon:
		return w.WriteMessage(tagPolygon, "polygon", v.writeFields)
	case Union:
		return w.WriteList(tagUnion, "areas", len(v.members), func(i int, ew codec.Writer) error {
			return WriteArea(ew, v.members[i])
		})
	default:
		return fmt.Errorf("unknown area variant %T", a)
	}
}

// ReadArea decodes an area written by WriteArea. Discriminants are tried
// in the fixed order circle, rectangle, polygon, union list; anything
// else is a decode error.
func ReadArea(r codec.Reader) (Area, error) {
	switch {
	case r.IsNext(tagCircle, "circle"):
		mr, err := r.ReadMessage(tagCircle, "circle")
		if err != nil {
			return nil, err
		}
		return readCircle(mr)
	case r.IsNext(tagRectangle, "box"):
		mr, err := r.ReadMessage(tagRectangle, "box")
		if err != nil {
			return nil, err
		}
		return readRectangle(mr)
	case r.IsNext(tagPolygon, "polygon"):
		mr, err := r.ReadMessage(tagPolygon, "polygon")
		if err != nil {
			return nil, err
		}
		return readPolygon(mr)
	default:
		elems, err := r.ReadList(tagUnion, "areas")
		if err != nil {
			return nil, err
		}
		members := make([]Area, 0, len(elems))
		for _, er := range elems {
			m, err := ReadArea(er)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		return Union{members: members}, nil
	}
}
