// Package orient computes the Earth orientation angles and matrices of the
// IAU 2006/2000 CIO-based celestial-to-terrestrial transformation.
package orient

import (
	"math"

	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

// RotationRate is Earth's rotation rate in rad/s implied by the IAU 2000
// ERA expression.
const RotationRate = 2 * math.Pi * 1.00273781191135448 / 86400

// ERA computes the Earth Rotation Angle for a UT1 Julian date, in [0, 2π).
//
//	θ = 2π(0.7790572732640 + 1.00273781191135448·Tu),  Tu = JD(UT1) − 2451545.0
//
// The integer day is split off first so the whole-turn part never reaches
// the multiplication.
func ERA(jd timescale.JD) units.Angle {
	tu := jd.DaysSinceJ2000()
	f := math.Mod(jd.Day, 1) + math.Mod(jd.Frac, 1)
	return units.Wrap360(units.Rad(2 * math.Pi * (f + 0.7790572732640 + 0.00273781191135448*tu)))
}

// EarthRotationAngle returns the ERA at e, taking DUT1 from eop.
func EarthRotationAngle(e timescale.Epoch, eop timescale.EOPSource) (units.Angle, error) {
	jd, err := e.JulianDate(timescale.UT1, eop)
	if err != nil {
		return 0, err
	}
	return ERA(jd), nil
}

// GMST82 calculates Greenwich Mean Sidereal Time for a UT1 Julian date
// using the IAU-82 model (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMST82(jd timescale.JD) units.Angle {
	tUT1 := jd.Centuries()

	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return units.Rad(gmstSec / 86400.0 * 2.0 * math.Pi)
}

// SiderealTime returns GMST82 at e.
func SiderealTime(e timescale.Epoch, eop timescale.EOPSource) (units.Angle, error) {
	jd, err := e.JulianDate(timescale.UT1, eop)
	if err != nil {
		return 0, err
	}
	return GMST82(jd), nil
}
