package orient

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/rotation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

// Elements groups the orientation quantities at one epoch. Matrices are
// freshly allocated per call and not shared.
type Elements struct {
	Epoch timescale.Epoch
	ERA   units.Angle

	// X, Y are the CIP coordinates in the GCRS and S the CIO locator, radians.
	X, Y, S float64

	// PrecessionNutation maps GCRS to CIRS.
	PrecessionNutation *r3.Mat
	// PolarMotion maps TIRS to ITRS.
	PolarMotion *r3.Mat
}

// SupportingElements computes ERA, X, Y, s and the matrices of the CIO chain
// at e. Polar motion and DUT1 come from eop.
func SupportingElements(e timescale.Epoch, eop timescale.EOPSource) (Elements, error) {
	era, err := EarthRotationAngle(e, eop)
	if err != nil {
		return Elements{}, err
	}
	var p timescale.EOP
	if eop != nil {
		if p, err = eop.At(e); err != nil {
			return Elements{}, err
		}
	}
	x, y, s := CIP(e)
	return Elements{
		Epoch:              e,
		ERA:                era,
		X:                  x,
		Y:                  y,
		S:                  s,
		PrecessionNutation: CelestialToIntermediate(x, y, s),
		PolarMotion:        PolarMotion(p.XP*arcsec, p.YP*arcsec, TIOLocator(e.J2000Centuries())),
	}, nil
}

// EarthRotation returns R3(ERA), the CIRS to TIRS matrix.
func (el Elements) EarthRotation() *r3.Mat { return rotation.R3(el.ERA.Rad()) }

// CelestialToTerrestrial returns W·R3(ERA)·C2I, mapping GCRS to ITRS.
func (el Elements) CelestialToTerrestrial() *r3.Mat {
	return rotation.Chain(el.PolarMotion, el.EarthRotation(), el.PrecessionNutation)
}
