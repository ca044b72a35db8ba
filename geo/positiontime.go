package geo

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/harborwave/maritime-relay/codec"
)

// knotsToMetersPerSecond converts speed over ground in knots to m/s.
const knotsToMetersPerSecond = 0.5144

var (
	ErrTimeBeforePosition = errors.New("target time precedes the position's time")
	ErrTimeAfterPosition  = errors.New("target time follows the later position's time")
	ErrPositionsUnordered = errors.New("earlier position must not be timestamped after the later one")
)

// PositionTime couples a position with the absolute time it was observed.
// Timestamps are only meaningful relative to other PositionTimes used in
// the same interpolation or extrapolation.
type PositionTime struct {
	Position
	time time.Time
}

// NewPositionTime validates the coordinates and returns the timed
// position.
func NewPositionTime(latitude, longitude float64, t time.Time) (PositionTime, error) {
	p, err := NewPosition(latitude, longitude)
	if err != nil {
		return PositionTime{}, err
	}
	return PositionTime{Position: p, time: t}, nil
}

// PositionAt attaches a timestamp to an existing position.
func PositionAt(p Position, t time.Time) PositionTime {
	return PositionTime{Position: p, time: t}
}

// Time returns the observation time.
func (pt PositionTime) Time() time.Time { return pt.time }

// Equal reports equality of both coordinates and timestamp.
func (pt PositionTime) Equal(other PositionTime) bool {
	return pt.Position.Equal(other.Position) && pt.time.Equal(other.time)
}

func (pt PositionTime) String() string {
	return fmt.Sprintf("(%v, %v, time=%v)", pt.Latitude(), pt.Longitude(), pt.time)
}

// Extrapolate dead-reckons the position forward to the absolute time t,
// given a course over ground in compass degrees and a speed over ground
// in knots. The computation projects the position onto a local planar
// frame, advances it along the course, and inverts the projection.
// Identical inputs always yield identical outputs.
func (pt PositionTime) Extrapolate(courseDeg, speedKnots float64, t time.Time) (PositionTime, error) {
	if t.Before(pt.time) {
		return PositionTime{}, fmt.Errorf("%w: %v < %v", ErrTimeBeforePosition, t, pt.time)
	}

	frame := newPlanarFrame(pt.Position)
	x0, y0 := frame.toXY(pt.Position)

	elapsed := t.Sub(pt.time).Seconds()
	dist := elapsed * speedKnots * knotsToMetersPerSecond
	angle := radians(compassToCartesian(courseDeg))

	x1 := x0 + math.Cos(angle)*dist
	y1 := y0 + math.Sin(angle)*dist
	return PositionTime{Position: frame.toPosition(x1, y1), time: t}, nil
}

// Interpolate linearly interpolates between pt and a later position at
// the absolute time t. Latitude and longitude are interpolated
// independently. Requires pt.Time() <= t <= later.Time().
func (pt PositionTime) Interpolate(later PositionTime, t time.Time) (PositionTime, error) {
	if later.time.Before(pt.time) {
		return PositionTime{}, fmt.Errorf("%w: %v > %v", ErrPositionsUnordered, pt.time, later.time)
	}
	if t.Before(pt.time) {
		return PositionTime{}, fmt.Errorf("%w: %v < %v", ErrTimeBeforePosition, t, pt.time)
	}
	if t.After(later.time) {
		return PositionTime{}, fmt.Errorf("%w: %v > %v", ErrTimeAfterPosition, t, later.time)
	}
	if later.time.Equal(pt.time) {
		return PositionTime{Position: pt.Position, time: t}, nil
	}

	frac := float64(t.Sub(pt.time)) / float64(later.time.Sub(pt.time))
	lat := pt.Latitude() + (later.Latitude()-pt.Latitude())*frac
	lon := pt.Longitude() + (later.Longitude()-pt.Longitude())*frac
	return PositionTime{Position: Position{latitude: lat, longitude: lon}, time: t}, nil
}

// WriteTo encodes the timed position with fields (1, "latitude"),
// (2, "longitude") and (3, "time") in Unix milliseconds.
func (pt PositionTime) WriteTo(w codec.Writer) error {
	if err := pt.Position.WriteTo(w); err != nil {
		return err
	}
	return w.WriteInt64(3, "time", pt.time.UnixMilli())
}

// ReadPositionTime decodes a timed position written by WriteTo. An absent
// time field decodes as the Unix epoch.
func ReadPositionTime(r codec.Reader) (PositionTime, error) {
	p, err := ReadPosition(r)
	if err != nil {
		return PositionTime{}, err
	}
	millis, err := r.ReadInt64(3, "time", 0)
	if err != nil {
		return PositionTime{}, err
	}
	return PositionTime{Position: p, time: time.UnixMilli(millis).UTC()}, nil
}
