// Package ephem provides analytic solar ephemerides.
package ephem

import (
	"math"
	"strings"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/solar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

// AU is the astronomical unit in km (IAU 2012).
const AU = 149597870.7

// SunModel returns the geocentric Sun position at an epoch.
type SunModel interface {
	Name() string
	SunPosition(e timescale.Epoch) (frames.State, error)
}

// AlmanacSun is the low-precision Astronomical Almanac solar series, good to
// about 0.01° between 1950 and 2050. Output is mean equator and equinox of date.
type AlmanacSun struct{}

func (AlmanacSun) Name() string { return "almanac" }

// SunPosition evaluates the series at e.
func (AlmanacSun) SunPosition(e timescale.Epoch) (frames.State, error) {
	t := e.J2000Centuries()

	meanLon := units.Deg(280.460 + 36000.771285*t)
	meanAnom := units.Deg(357.528 + 35999.050957*t)
	sinM, cosM := math.Sincos(meanAnom.Rad())
	sin2M, cos2M := math.Sincos(2 * meanAnom.Rad())

	eclLon := meanLon.Rad() + units.Deg(1.915*sinM+0.020*sin2M).Rad()
	dist := (1.00014 - 0.01671*cosM - 0.00014*cos2M) * AU
	obliq := units.Deg(23.439291 - 0.0130042*t).Rad()

	sinL, cosL := math.Sincos(eclLon)
	sinE, cosE := math.Sincos(obliq)
	return frames.State{
		Position: r3.Vec{X: dist * cosL, Y: dist * cosE * sinL, Z: dist * sinE * sinL},
		Epoch:    e,
		Timed:    true,
		Frame:    frames.MOD,
	}, nil
}

// MeeusSun uses the apparent solar coordinates of Meeus, Astronomical
// Algorithms ch. 25. Output is true equator and equinox of date.
type MeeusSun struct{}

func (MeeusSun) Name() string { return "meeus" }

// SunPosition evaluates the Meeus solar theory at e.
func (MeeusSun) SunPosition(e timescale.Epoch) (frames.State, error) {
	jde := e.TT().Float()
	ra, dec := solar.ApparentEquatorial(jde)
	dist := solar.Radius(base.J2000Century(jde)) * AU

	sinA, cosA := math.Sincos(ra.Rad())
	sinD, cosD := math.Sincos(dec.Rad())
	return frames.State{
		Position: r3.Vec{X: dist * cosD * cosA, Y: dist * cosD * sinA, Z: dist * sinD},
		Epoch:    e,
		Timed:    true,
		Frame:    frames.TOD,
	}, nil
}

// ByName returns the model registered under name ("almanac" or "meeus").
func ByName(name string) (SunModel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "almanac":
		return AlmanacSun{}, nil
	case "meeus":
		return MeeusSun{}, nil
	}
	return nil, astroerr.Domain("ephem.ByName", "model", name, "unknown sun model (want almanac or meeus)")
}

// SunPositionVector returns the Sun position from the default model.
func SunPositionVector(e timescale.Epoch) (frames.State, error) {
	return AlmanacSun{}.SunPosition(e)
}
