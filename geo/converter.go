package geo

import "math"

// planarFrame is a local equirectangular projection anchored at a
// reference position. Within a few hundred kilometres of the anchor the
// projection is accurate enough for dead reckoning, and projecting a
// point and inverting it recovers the point exactly.
type planarFrame struct {
	lat0   float64 // anchor latitude, radians
	lon0   float64 // anchor longitude, radians
	cosLat float64
}

func newPlanarFrame(anchor Position) planarFrame {
	lat0 := radians(anchor.Latitude())
	return planarFrame{
		lat0:   lat0,
		lon0:   radians(anchor.Longitude()),
		cosLat: math.Cos(lat0),
	}
}

// toXY projects a position into the frame, in metres east (x) and
// north (y) of the anchor.
func (f planarFrame) toXY(p Position) (x, y float64) {
	x = EarthRadiusM * (radians(p.Longitude()) - f.lon0) * f.cosLat
	y = EarthRadiusM * (radians(p.Latitude()) - f.lat0)
	return x, y
}

// toPosition inverts the projection. Longitude wraps at the antimeridian
// and latitude is clamped to the poles so the result is always valid.
func (f planarFrame) toPosition(x, y float64) Position {
	lat := degrees(f.lat0 + y/EarthRadiusM)
	lon := degrees(f.lon0 + x/(EarthRadiusM*f.cosLat))
	if lat > 90 {
		lat = 90
	} else if lat < -90 {
		lat = -90
	}
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return Position{latitude: lat, longitude: lon}
}

// compassToCartesian converts a compass course (degrees clockwise from
// north) to a planar angle (degrees counter-clockwise from the x axis).
func compassToCartesian(course float64) float64 {
	angle := 90 - course
	for angle <= -180 {
		angle += 360
	}
	for angle > 180 {
		angle -= 360
	}
	return angle
}
