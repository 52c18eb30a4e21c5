package orient

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/rotation"
)

// IERS 2003 frame bias between the GCRS and the J2000 mean equator and
// equinox, arcseconds.
const (
	biasDpsi = -0.041775
	biasDeps = -0.0068192
	biasDra0 = -0.0146
	eps0     = 84381.448
)

// FrameBias returns the constant matrix taking GCRS (GCRF) vectors to the
// J2000 mean equator and equinox (EME2000).
func FrameBias() *r3.Mat {
	return rotation.Chain(
		rotation.R1(-biasDeps*arcsec),
		rotation.R2(biasDpsi*math.Sin(eps0*arcsec)*arcsec),
		rotation.R3(biasDra0*arcsec),
	)
}

// CelestialToIntermediate builds the GCRS to CIRS matrix from the CIP
// coordinates and the CIO locator.
func CelestialToIntermediate(x, y, s float64) *r3.Mat {
	r2 := x*x + y*y
	var e float64
	if r2 > 0 {
		e = math.Atan2(y, x)
	}
	d := math.Atan(math.Sqrt(r2 / (1 - r2)))
	return rotation.Chain(rotation.R3(-(e + s)), rotation.R2(d), rotation.R3(e))
}

// TIOLocator returns s', radians, at t Julian centuries of TT.
func TIOLocator(t float64) float64 { return -47e-6 * t * arcsec }

// PolarMotion builds the TIRS to ITRS matrix W from the pole coordinates
// (radians) and the TIO locator.
func PolarMotion(xp, yp, sp float64) *r3.Mat {
	return rotation.Chain(rotation.R1(-yp), rotation.R2(-xp), rotation.R3(sp))
}
