// Package geo holds the spatial model of the relay: immutable positions,
// timed positions with interpolation and dead reckoning, and the closed
// Area shapes used for spatial filtering and wire encoding.
//
// Distances come in two flavours selected by a CoordinateSystem tag:
// geodesic (great-circle on a spherical earth) and rhumb-line (constant
// bearing under a planar projection). All functions here are pure.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/harborwave/maritime-relay/codec"
)

// EarthRadiusM is the mean Earth radius in metres used for all spherical
// geometry in this package.
const EarthRadiusM = 6371000.0

var (
	ErrInvalidLatitude  = errors.New("latitude must be within [-90, 90]")
	ErrInvalidLongitude = errors.New("longitude must be within [-180, 180]")
)

// CoordinateSystem selects the distance model applied to a pair of
// positions.
type CoordinateSystem int

const (
	// Cartesian uses rhumb-line distance under a planar projection.
	Cartesian CoordinateSystem = iota
	// Geodetic uses great-circle distance on a spherical earth.
	Geodetic
)

func (cs CoordinateSystem) String() string {
	if cs == Cartesian {
		return "cartesian"
	}
	return "geodetic"
}

// Position is an immutable point on the Earth surface. The zero value is
// (0, 0); use NewPosition to construct validated instances.
type Position struct {
	latitude  float64
	longitude float64
}

// NewPosition validates the coordinates and returns the position. The
// ranges are latitude [-90, 90] and longitude [-180, 180], both inclusive.
func NewPosition(latitude, longitude float64) (Position, error) {
	if latitude < -90 || latitude > 90 || math.IsNaN(latitude) {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidLatitude, latitude)
	}
	if longitude < -180 || longitude > 180 || math.IsNaN(longitude) {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidLongitude, longitude)
	}
	return Position{latitude: latitude, longitude: longitude}, nil
}

// MustPosition is NewPosition that panics on invalid input. Intended for
// literals in tests and scenario setup.
func MustPosition(latitude, longitude float64) Position {
	p, err := NewPosition(latitude, longitude)
	if err != nil {
		panic(err)
	}
	return p
}

// Latitude returns the latitude in decimal degrees.
func (p Position) Latitude() float64 { return p.latitude }

// Longitude returns the longitude in decimal degrees.
func (p Position) Longitude() float64 { return p.longitude }

// Equal reports coordinate equality.
func (p Position) Equal(other Position) bool {
	return p.latitude == other.latitude && p.longitude == other.longitude
}

func (p Position) String() string {
	return fmt.Sprintf("(%v, %v)", p.latitude, p.longitude)
}

// DistanceTo returns the distance in metres to other under the given
// coordinate system.
func (p Position) DistanceTo(other Position, system CoordinateSystem) float64 {
	if system == Cartesian {
		return p.RhumbLineDistanceTo(other)
	}
	return p.GeodesicDistanceTo(other)
}

// GeodesicDistanceTo returns the great-circle distance in metres between
// the two positions on a spherical earth (haversine).
func (p Position) GeodesicDistanceTo(other Position) float64 {
	lat1 := radians(p.latitude)
	lat2 := radians(other.latitude)
	dLat := radians(other.latitude - p.latitude)
	dLon := radians(other.longitude - p.longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// RhumbLineDistanceTo returns the distance in metres along the constant
// bearing path between the two positions.
func (p Position) RhumbLineDistanceTo(other Position) float64 {
	lat1 := radians(p.latitude)
	lat2 := radians(other.latitude)
	dLat := lat2 - lat1
	dLon := radians(other.longitude - p.longitude)

	// Projected latitude difference on the Mercator plane. For east-west
	// courses the projection degenerates and the plain cosine applies.
	dPhi := math.Log(math.Tan(lat2/2+math.Pi/4) / math.Tan(lat1/2+math.Pi/4))
	var q float64
	if math.Abs(dPhi) > 1e-12 {
		q = dLat / dPhi
	} else {
		q = math.Cos(lat1)
	}
	return math.Sqrt(dLat*dLat+q*q*dLon*dLon) * EarthRadiusM
}

// WriteTo encodes the position with fields (1, "latitude") and
// (2, "longitude").
func (p Position) WriteTo(w codec.Writer) error {
	if err := w.WriteDouble(1, "latitude", p.latitude); err != nil {
		return err
	}
	return w.WriteDouble(2, "longitude", p.longitude)
}

// ReadPosition decodes a position written by WriteTo. Coordinates outside
// the valid ranges are a decode error.
func ReadPosition(r codec.Reader) (Position, error) {
	lat, err := r.ReadDouble(1, "latitude")
	if err != nil {
		return Position{}, err
	}
	lon, err := r.ReadDouble(2, "longitude")
	if err != nil {
		return Position{}, err
	}
	p, err := NewPosition(lat, lon)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", codec.ErrDecode, err)
	}
	return p, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
