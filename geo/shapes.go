package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/harborwave/maritime-relay/codec"
)

var (
	ErrNonPositiveRadius = errors.New("circle radius must be positive")
	ErrTooFewVertices    = errors.New("polygon needs at least three vertices")
)

// polygonSampleAttempts bounds the rejection loop in Polygon sampling so
// a sliver polygon cannot spin forever.
const polygonSampleAttempts = 10000

// Circle is the set of positions within a geodesic radius of a center.
type Circle struct {
	center Position
	radius float64 // metres
}

// NewCircle returns the circle with the given center and radius in
// metres. The radius must be positive.
func NewCircle(center Position, radiusMeters float64) (Circle, error) {
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) {
		return Circle{}, fmt.Errorf("%w: %v", ErrNonPositiveRadius, radiusMeters)
	}
	return Circle{center: center, radius: radiusMeters}, nil
}

// Center returns the circle center.
func (c Circle) Center() Position { return c.center }

// Radius returns the radius in metres.
func (c Circle) Radius() float64 { return c.radius }

func (c Circle) Contains(p Position) bool {
	return c.center.GeodesicDistanceTo(p) <= c.radius
}

func (c Circle) Intersects(other Area) bool {
	switch v := other.(type) {
	case Circle:
		return c.center.GeodesicDistanceTo(v.center) <= c.radius+v.radius
	case Rectangle:
		return c.center.GeodesicDistanceTo(v.box.clamp(c.center)) <= c.radius
	case Polygon:
		return v.Intersects(c)
	case Union:
		return v.Intersects(c)
	}
	return false
}

func (c Circle) Bounds() BoundingBox {
	dLat := degrees(c.radius / EarthRadiusM)
	cosLat := math.Cos(radians(c.center.Latitude()))
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = degrees(c.radius / (EarthRadiusM * cosLat))
	}
	return BoundingBox{
		MinLatitude:  math.Max(c.center.Latitude()-dLat, -90),
		MaxLatitude:  math.Min(c.center.Latitude()+dLat, 90),
		MinLongitude: math.Max(c.center.Longitude()-dLon, -180),
		MaxLongitude: math.Min(c.center.Longitude()+dLon, 180),
	}
}

// RandomPosition samples uniformly over the disc. The radial draw is
// square-root scaled so that area, not radius, is uniform.
func (c Circle) RandomPosition(src Source) (Position, error) {
	r := c.radius * math.Sqrt(src.Float64())
	theta := 2 * math.Pi * src.Float64()

	frame := newPlanarFrame(c.center)
	x, y := frame.toXY(c.center)
	return frame.toPosition(x+r*math.Cos(theta), y+r*math.Sin(theta)), nil
}

func (Circle) sealed() {}

func (c Circle) writeFields(w codec.Writer) error {
	if err := w.WriteMessage(1, "center", c.center.WriteTo); err != nil {
		return err
	}
	return w.WriteDouble(2, "radius", c.radius)
}

func readCircle(r codec.Reader) (Circle, error) {
	cr, err := r.ReadMessage(1, "center")
	if err != nil {
		return Circle{}, err
	}
	center, err := ReadPosition(cr)
	if err != nil {
		return Circle{}, err
	}
	radius, err := r.ReadDouble(2, "radius")
	if err != nil {
		return Circle{}, err
	}
	c, err := NewCircle(center, radius)
	if err != nil {
		return Circle{}, fmt.Errorf("%w: %v", codec.ErrDecode, err)
	}
	return c, nil
}

// Rectangle is an axis-aligned latitude/longitude box given by two
// opposite corners.
type Rectangle struct {
	box BoundingBox
}

// NewRectangle returns the rectangle spanned by the two corners. The
// corners may be given in any order.
func NewRectangle(topLeft, bottomRight Position) Rectangle {
	return Rectangle{box: boxAround(topLeft, bottomRight)}
}

// TopLeft returns the north-west corner.
func (r Rectangle) TopLeft() Position {
	return Position{latitude: r.box.MaxLatitude, longitude: r.box.MinLongitude}
}

// BottomRight returns the south-east corner.
func (r Rectangle) BottomRight() Position {
	return Position{latitude: r.box.MinLatitude, longitude: r.box.MaxLongitude}
}

func (r Rectangle) Contains(p Position) bool { return r.box.Contains(p) }

func (r Rectangle) Intersects(other Area) bool {
	switch v := other.(type) {
	case Circle:
		return v.Intersects(r)
	case Rectangle:
		return r.box.Intersects(v.box)
	case Polygon:
		return v.Intersects(r)
	case Union:
		return v.Intersects(r)
	}
	return false
}

func (r Rectangle) Bounds() BoundingBox { return r.box }

// RandomPosition samples latitude and longitude independently uniform
// within the box.
func (r Rectangle) RandomPosition(src Source) (Position, error) {
	return r.box.sample(src), nil
}

func (Rectangle) sealed() {}

func (r Rectangle) writeFields(w codec.Writer) error {
	if err := w.WriteMessage(1, "topLeft", r.TopLeft().WriteTo); err != nil {
		return err
	}
	return w.WriteMessage(2, "bottomRight", r.BottomRight().WriteTo)
}

func readRectangle(r codec.Reader) (Rectangle, error) {
	tlr, err := r.ReadMessage(1, "topLeft")
	if err != nil {
		return Rectangle{}, err
	}
	topLeft, err := ReadPosition(tlr)
	if err != nil {
		return Rectangle{}, err
	}
	brr, err := r.ReadMessage(2, "bottomRight")
	if err != nil {
		return Rectangle{}, err
	}
	bottomRight, err := ReadPosition(brr)
	if err != nil {
		return Rectangle{}, err
	}
	return NewRectangle(topLeft, bottomRight), nil
}

// clamp returns the position inside the box nearest to p in coordinate
// space.
func (b BoundingBox) clamp(p Position) Position {
	lat := math.Min(math.Max(p.Latitude(), b.MinLatitude), b.MaxLatitude)
	lon := math.Min(math.Max(p.Longitude(), b.MinLongitude), b.MaxLongitude)
	return Position{latitude: lat, longitude: lon}
}

// Polygon is a simple closed polygon given by its vertices in order. The
// closing edge from the last vertex back to the first is implicit.
type Polygon struct {
	points []Position
}

// NewPolygon returns the polygon with the given vertices. At least three
// are required.
func NewPolygon(points ...Position) (Polygon, error) {
	if len(points) < 3 {
		return Polygon{}, fmt.Errorf("%w: have %d", ErrTooFewVertices, len(points))
	}
	return Polygon{points: append([]Position(nil), points...)}, nil
}

// Points returns the vertices in construction order.
func (pg Polygon) Points() []Position { return append([]Position(nil), pg.points...) }

// Contains uses an even-odd ray cast over the latitude/longitude plane.
func (pg Polygon) Contains(p Position) bool {
	inside := false
	n := len(pg.points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := pg.points[i], pg.points[j]
		if (pi.Latitude() > p.Latitude()) != (pj.Latitude() > p.Latitude()) {
			crossLon := pi.Longitude() + (p.Latitude()-pi.Latitude())/
				(pj.Latitude()-pi.Latitude())*(pj.Longitude()-pi.Longitude())
			if p.Longitude() < crossLon {
				inside = !inside
			}
		}
	}
	return inside
}

// Intersects is conservative: the bounds must overlap and either a
// polygon vertex lies in the other shape or one of the other shape's
// bound corners lies in the polygon.
func (pg Polygon) Intersects(other Area) bool {
	if u, ok := other.(Union); ok {
		return u.Intersects(pg)
	}
	if !pg.Bounds().Intersects(other.Bounds()) {
		return false
	}
	for _, v := range pg.points {
		if other.Contains(v) {
			return true
		}
	}
	for _, c := range other.Bounds().corners() {
		if pg.Contains(c) {
			return true
		}
	}
	return false
}

func (pg Polygon) Bounds() BoundingBox { return boxAround(pg.points...) }

// RandomPosition rejection-samples against the bounding box using the
// point-in-polygon test.
func (pg Polygon) RandomPosition(src Source) (Position, error) {
	box := pg.Bounds()
	for i := 0; i < polygonSampleAttempts; i++ {
		if p := box.sample(src); pg.Contains(p) {
			return p, nil
		}
	}
	return Position{}, fmt.Errorf("%w: polygon rejection sampling exhausted", ErrEmptyArea)
}

func (Polygon) sealed() {}

func (pg Polygon) writeFields(w codec.Writer) error {
	return w.WriteList(1, "points", len(pg.points), func(i int, ew codec.Writer) error {
		return pg.points[i].WriteTo(ew)
	})
}

func readPolygon(r codec.Reader) (Polygon, error) {
	elems, err := r.ReadList(1, "points")
	if err != nil {
		return Polygon{}, err
	}
	points := make([]Position, 0, len(elems))
	for _, er := range elems {
		p, err := ReadPosition(er)
		if err != nil {
			return Polygon{}, err
		}
		points = append(points, p)
	}
	pg, err := NewPolygon(points...)
	if err != nil {
		return Polygon{}, fmt.Errorf("%w: %v", codec.ErrDecode, err)
	}
	return pg, nil
}
