// Package units provides unit-tagged quantities and angle helpers.
//
// Angles are carried as soniakeys/unit.Angle (radians) so the meeus
// ephemeris code and the rest of the core share one angle type.
package units

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
)

// Angle is a plane angle in radians.
type Angle = unit.Angle

// Deg returns the Angle for d degrees.
func Deg(d float64) Angle { return unit.AngleFromDeg(d) }

// Rad returns the Angle for r radians.
func Rad(r float64) Angle { return Angle(r) }

// Wrap360 reduces a to [0, 2π).
func Wrap360(a Angle) Angle {
	r := math.Mod(a.Rad(), 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return Angle(r)
}

// WrapLongitude reduces a longitude in degrees to (-180, 180].
func WrapLongitude(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// Dimension groups units that can be converted into one another.
type Dimension int

const (
	DimLength Dimension = iota
	DimAngle
	DimTime
	DimAngularRate
)

func (d Dimension) String() string {
	switch d {
	case DimLength:
		return "length"
	case DimAngle:
		return "angle"
	case DimTime:
		return "time"
	case DimAngularRate:
		return "angular rate"
	}
	return fmt.Sprintf("Dimension(%d)", int(d))
}

// Unit identifies a measurement unit.
type Unit int

const (
	Kilometer Unit = iota
	Meter
	Radian
	Degree
	Arcsecond
	Second
	Minute
	Hour
	Day
	RadianPerSecond
	DegreePerSecond
)

type unitInfo struct {
	symbol string
	dim    Dimension
	factor float64 // multiply to reach the dimension's base unit (km, rad, s, rad/s)
}

var unitTable = map[Unit]unitInfo{
	Kilometer:       {"km", DimLength, 1},
	Meter:           {"m", DimLength, 1e-3},
	Radian:          {"rad", DimAngle, 1},
	Degree:          {"deg", DimAngle, math.Pi / 180},
	Arcsecond:       {"arcsec", DimAngle, math.Pi / (180 * 3600)},
	Second:          {"s", DimTime, 1},
	Minute:          {"min", DimTime, 60},
	Hour:            {"h", DimTime, 3600},
	Day:             {"d", DimTime, 86400},
	RadianPerSecond: {"rad/s", DimAngularRate, 1},
	DegreePerSecond: {"deg/s", DimAngularRate, math.Pi / 180},
}

func (u Unit) String() string {
	if info, ok := unitTable[u]; ok {
		return info.symbol
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Dimension reports the physical dimension of u.
func (u Unit) Dimension() Dimension { return unitTable[u].dim }

// Quantity is a scalar value tagged with its unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// Q is shorthand for Quantity{v, u}.
func Q(v float64, u Unit) Quantity { return Quantity{Value: v, Unit: u} }

func (q Quantity) String() string { return fmt.Sprintf("%g %s", q.Value, q.Unit) }

// Convert returns q expressed in unit to. Converting between dimensions is
// a domain error.
func (q Quantity) Convert(to Unit) (Quantity, error) {
	from, ok := unitTable[q.Unit]
	if !ok {
		return Quantity{}, astroerr.Domain("units.Convert", "unit", q.Unit, "unknown unit")
	}
	dst, ok := unitTable[to]
	if !ok {
		return Quantity{}, astroerr.Domain("units.Convert", "unit", to, "unknown unit")
	}
	if from.dim != dst.dim {
		return Quantity{}, astroerr.Domain("units.Convert", "unit", to,
			fmt.Sprintf("cannot convert %s to %s", from.dim, dst.dim))
	}
	if q.Unit == to {
		return q, nil
	}
	return Quantity{Value: q.Value * from.factor / dst.factor, Unit: to}, nil
}

// In converts q and returns only the value, panicking on a dimension
// mismatch. Use it for conversions fixed at compile time.
func (q Quantity) In(to Unit) float64 {
	c, err := q.Convert(to)
	if err != nil {
		panic(err)
	}
	return c.Value
}
