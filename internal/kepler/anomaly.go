package kepler

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/units"
)

const twoPi = 2 * math.Pi

func normalizeAngle(angle float64) float64 {
	wrapped := math.Mod(angle, twoPi)
	if wrapped < 0 {
		wrapped += twoPi
	}
	return wrapped
}

// Period returns the orbital period in seconds.
func Period(a, mu float64) float64 { return twoPi * math.Sqrt(a*a*a/mu) }

// MeanMotion returns the mean motion in rad/s.
func MeanMotion(a, mu float64) float64 { return math.Sqrt(mu / (a * a * a)) }

// SpecificEnergy returns v²/2 - μ/r for a state, km²/s².
func SpecificEnergy(s frames.State, mu float64) float64 {
	return r3.Norm2(s.Velocity)/2 - mu/s.Radius()
}

// AngularMomentum returns r × v, km²/s.
func AngularMomentum(s frames.State) r3.Vec { return r3.Cross(s.Position, s.Velocity) }

// EccentricFromTrue converts a true anomaly to the eccentric anomaly.
func EccentricFromTrue(nu, e float64) float64 {
	sinNu, cosNu := math.Sincos(nu)
	return normalizeAngle(math.Atan2(math.Sqrt(1-e*e)*sinNu, e+cosNu))
}

// MeanFromEccentric computes mean anomaly M from eccentric anomaly E.
func MeanFromEccentric(ea, e float64) float64 {
	return normalizeAngle(ea - e*math.Sin(ea))
}

// TrueFromEccentric converts an eccentric anomaly to the true anomaly.
func TrueFromEccentric(ea, e float64) float64 {
	sinE, cosE := math.Sincos(ea)
	return normalizeAngle(math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e))
}

// EccentricFromMean solves Kepler's equation with Newton-Raphson iteration.
func EccentricFromMean(m, e float64) float64 {
	if e == 0 {
		return normalizeAngle(m)
	}
	m = normalizeAngle(m)
	ea := m
	if e >= 0.8 {
		if m < math.Pi {
			ea = m + e/2
		} else {
			ea = m - e/2
		}
	}
	for i := 0; i < 50; i++ {
		delta := (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
		ea -= delta
		if math.Abs(delta) < 1e-14 {
			break
		}
	}
	return normalizeAngle(ea)
}

// TrueFromMean converts mean anomaly directly to true anomaly.
func TrueFromMean(m, e float64) float64 {
	return TrueFromEccentric(EccentricFromMean(m, e), e)
}

// MeanFromTrue converts true anomaly directly to mean anomaly.
func MeanFromTrue(nu, e float64) float64 {
	return MeanFromEccentric(EccentricFromTrue(nu, e), e)
}

// Propagate advances el by dt seconds along the unperturbed two-body orbit.
func Propagate(el Elements, mu, dt float64) (Elements, error) {
	if err := el.Validate(); err != nil {
		return Elements{}, err
	}
	if err := checkMu("kepler.Propagate", mu); err != nil {
		return Elements{}, err
	}
	m := MeanFromTrue(el.TrueAnomaly.Rad(), el.Eccentricity) + MeanMotion(el.SemiMajorAxis, mu)*dt
	out := el
	out.TrueAnomaly = units.Rad(TrueFromMean(m, el.Eccentricity))
	out.Epoch = el.Epoch.Add(dt)
	return out, nil
}
