// Package kepler converts between classical orbital elements and Cartesian
// states for closed (elliptical and circular) two-body orbits.
package kepler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/rotation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

// singularTol is the threshold below which eccentricity or the node vector
// is treated as zero.
const singularTol = 1e-11

// Elements are classical orbital elements at an epoch.
//
// Conventions for singular geometries, applied by FromCartesian:
//   - circular inclined: ArgPeriapsis = 0, TrueAnomaly is the argument of latitude
//   - elliptical equatorial: RAAN = 0, ArgPeriapsis is the longitude of periapsis
//   - circular equatorial: RAAN = ArgPeriapsis = 0, TrueAnomaly is the true longitude
type Elements struct {
	SemiMajorAxis float64 // km
	Eccentricity  float64
	Inclination   units.Angle
	RAAN          units.Angle
	ArgPeriapsis  units.Angle
	TrueAnomaly   units.Angle

	Epoch timescale.Epoch
	// Frame of the produced state. Unspecified means GCRF.
	Frame frames.ID
}

func (el Elements) String() string {
	return fmt.Sprintf("a=%.3fkm e=%.6f i=%.4f° Ω=%.4f° ω=%.4f° ν=%.4f°",
		el.SemiMajorAxis, el.Eccentricity, el.Inclination.Deg(), el.RAAN.Deg(),
		el.ArgPeriapsis.Deg(), el.TrueAnomaly.Deg())
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate reports a DomainError for element sets that do not describe a
// closed orbit.
func (el Elements) Validate() error {
	const op = "kepler.ToCartesian"
	switch {
	case !finite(el.Eccentricity) || el.Eccentricity < 0:
		return astroerr.Domain(op, "e", el.Eccentricity, "eccentricity must be >= 0")
	case el.Eccentricity >= 1:
		return astroerr.Domain(op, "e", el.Eccentricity, "parabolic and hyperbolic orbits are not supported (e must be < 1)")
	case !finite(el.SemiMajorAxis) || el.SemiMajorAxis <= 0:
		return astroerr.Domain(op, "a", el.SemiMajorAxis, "semi-major axis must be positive")
	case !finite(el.Inclination.Rad()) || el.Inclination < 0 || el.Inclination.Rad() > math.Pi:
		return astroerr.Domain(op, "i", el.Inclination.Deg(), "inclination must be within [0, 180] degrees")
	case !finite(el.RAAN.Rad()) || !finite(el.ArgPeriapsis.Rad()) || !finite(el.TrueAnomaly.Rad()):
		return astroerr.Domain(op, "angles", nil, "angles must be finite")
	}
	return nil
}

func checkMu(op string, mu float64) error {
	if !finite(mu) || mu <= 0 {
		return astroerr.Domain(op, "mu", mu, "gravitational parameter must be positive")
	}
	return nil
}

// ToCartesian converts el to a position/velocity state using gravitational
// parameter mu (km^3/s^2).
func ToCartesian(el Elements, mu float64) (frames.State, error) {
	if err := el.Validate(); err != nil {
		return frames.State{}, err
	}
	if err := checkMu("kepler.ToCartesian", mu); err != nil {
		return frames.State{}, err
	}

	e := el.Eccentricity
	p := el.SemiMajorAxis * (1 - e*e)
	sinNu, cosNu := math.Sincos(el.TrueAnomaly.Rad())
	r := p / (1 + e*cosNu)
	vScale := math.Sqrt(mu / p)

	rPQW := r3.Vec{X: r * cosNu, Y: r * sinNu}
	vPQW := r3.Vec{X: -vScale * sinNu, Y: vScale * (e + cosNu)}

	toPQW := rotation.R3R1R3(el.RAAN.Rad(), el.Inclination.Rad(), el.ArgPeriapsis.Rad())

	frame := el.Frame
	if frame == frames.Unspecified {
		frame = frames.GCRF
	}
	return frames.State{
		Position: toPQW.MulVecTrans(rPQW),
		Velocity: toPQW.MulVecTrans(vPQW),
		Epoch:    el.Epoch,
		Timed:    true,
		Frame:    frame,
	}, nil
}

// angleBetween returns the angle between a and b in [0, π].
func angleBetween(a, b r3.Vec) float64 {
	return math.Atan2(r3.Norm(r3.Cross(a, b)), r3.Dot(a, b))
}

// FromCartesian recovers classical elements from a state. Unbound or
// degenerate (radial) trajectories are DomainErrors.
func FromCartesian(s frames.State, mu float64) (Elements, error) {
	const op = "kepler.FromCartesian"
	if err := checkMu(op, mu); err != nil {
		return Elements{}, err
	}
	if !s.Finite() {
		return Elements{}, astroerr.Domain(op, "state", nil, "state has non-finite components")
	}
	rv, vv := s.Position, s.Velocity
	r := r3.Norm(rv)
	if r == 0 {
		return Elements{}, astroerr.Domain(op, "position", rv, "position is at the origin")
	}
	h := r3.Cross(rv, vv)
	hMag := r3.Norm(h)
	if hMag <= singularTol*r*math.Max(r3.Norm(vv), 1) {
		return Elements{}, astroerr.Domain(op, "velocity", vv, "rectilinear trajectory has no orbital plane")
	}

	v2 := r3.Norm2(vv)
	energy := v2/2 - mu/r
	if energy >= 0 {
		return Elements{}, astroerr.Domain(op, "energy", energy, "trajectory is not a closed orbit")
	}

	eVec := r3.Scale(1/mu, r3.Sub(r3.Scale(v2-mu/r, rv), r3.Scale(r3.Dot(rv, vv), vv)))
	ecc := r3.Norm(eVec)
	node := r3.Vec{X: -h.Y, Y: h.X}
	nMag := r3.Norm(node)

	inc := math.Acos(math.Max(-1, math.Min(1, h.Z/hMag)))
	circular := ecc < singularTol
	equatorial := nMag < singularTol*hMag

	var raan, argp, nu float64
	switch {
	case circular && equatorial:
		nu = math.Atan2(rv.Y, rv.X)
		if h.Z < 0 {
			nu = -nu
		}
	case circular:
		raan = math.Atan2(node.Y, node.X)
		nu = angleBetween(node, rv)
		if rv.Z < 0 {
			nu = 2*math.Pi - nu
		}
	case equatorial:
		argp = math.Atan2(eVec.Y, eVec.X)
		if h.Z < 0 {
			argp = -argp
		}
		nu = angleBetween(eVec, rv)
		if r3.Dot(rv, vv) < 0 {
			nu = 2*math.Pi - nu
		}
	default:
		raan = math.Atan2(node.Y, node.X)
		argp = angleBetween(node, eVec)
		if eVec.Z < 0 {
			argp = 2*math.Pi - argp
		}
		nu = angleBetween(eVec, rv)
		if r3.Dot(rv, vv) < 0 {
			nu = 2*math.Pi - nu
		}
	}
	if circular {
		ecc = 0
	}

	return Elements{
		SemiMajorAxis: -mu / (2 * energy),
		Eccentricity:  ecc,
		Inclination:   units.Rad(inc),
		RAAN:          units.Wrap360(units.Rad(raan)),
		ArgPeriapsis:  units.Wrap360(units.Rad(argp)),
		TrueAnomaly:   units.Wrap360(units.Rad(nu)),
		Epoch:         s.Epoch,
		Frame:         s.Frame,
	}, nil
}
