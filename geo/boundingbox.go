package geo

// BoundingBox is the axis-aligned latitude/longitude box bounding an
// Area. It is derived, never independently mutated. The zero value is the
// degenerate box at (0, 0).
type BoundingBox struct {
	MinLatitude  float64
	MinLongitude float64
	MaxLatitude  float64
	MaxLongitude float64
}

// boxAround returns the smallest box covering all given positions.
func boxAround(points ...Position) BoundingBox {
	box := BoundingBox{
		MinLatitude:  points[0].Latitude(),
		MaxLatitude:  points[0].Latitude(),
		MinLongitude: points[0].Longitude(),
		MaxLongitude: points[0].Longitude(),
	}
	for _, p := range points[1:] {
		box = box.extendPoint(p)
	}
	return box
}

func (b BoundingBox) extendPoint(p Position) BoundingBox {
	if p.Latitude() < b.MinLatitude {
		b.MinLatitude = p.Latitude()
	}
	if p.Latitude() > b.MaxLatitude {
		b.MaxLatitude = p.Latitude()
	}
	if p.Longitude() < b.MinLongitude {
		b.MinLongitude = p.Longitude()
	}
	if p.Longitude() > b.MaxLongitude {
		b.MaxLongitude = p.Longitude()
	}
	return b
}

// Extend returns the smallest box covering both boxes.
func (b BoundingBox) Extend(other BoundingBox) BoundingBox {
	if other.MinLatitude < b.MinLatitude {
		b.MinLatitude = other.MinLatitude
	}
	if other.MaxLatitude > b.MaxLatitude {
		b.MaxLatitude = other.MaxLatitude
	}
	if other.MinLongitude < b.MinLongitude {
		b.MinLongitude = other.MinLongitude
	}
	if other.MaxLongitude > b.MaxLongitude {
		b.MaxLongitude = other.MaxLongitude
	}
	return b
}

// Contains reports whether the position lies inside the box, boundary
// included.
func (b BoundingBox) Contains(p Position) bool {
	return p.Latitude() >= b.MinLatitude && p.Latitude() <= b.MaxLatitude &&
		p.Longitude() >= b.MinLongitude && p.Longitude() <= b.MaxLongitude
}

// Intersects reports whether the two boxes overlap.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.MinLatitude <= other.MaxLatitude && b.MaxLatitude >= other.MinLatitude &&
		b.MinLongitude <= other.MaxLongitude && b.MaxLongitude >= other.MinLongitude
}

// corners returns the four corner positions of the box.
func (b BoundingBox) corners() [4]Position {
	return [4]Position{
		{latitude: b.MinLatitude, longitude: b.MinLongitude},
		{latitude: b.MinLatitude, longitude: b.MaxLongitude},
		{latitude: b.MaxLatitude, longitude: b.MinLongitude},
		{latitude: b.MaxLatitude, longitude: b.MaxLongitude},
	}
}

// sample returns a position uniform over the box.
func (b BoundingBox) sample(src Source) Position {
	return Position{
		latitude:  b.MinLatitude + src.Float64()*(b.MaxLatitude-b.MinLatitude),
		longitude: b.MinLongitude + src.Float64()*(b.MaxLongitude-b.MinLongitude),
	}
}
