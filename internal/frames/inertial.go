package frames

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/orient"
	"github.com/dstuartbryant/spacewego/internal/rotation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

// spin returns ω × r for a rotation rate about the third axis.
func spin(rate float64, r r3.Vec) r3.Vec {
	return r3.Vec{X: -rate * r.Y, Y: rate * r.X}
}

// ECEFToECI rotates an Earth-fixed state into the inertial frame by the
// Earth Rotation Angle era. rate is the Earth rotation rate (rad/s) used for
// the velocity transport term.
//
//	r_ECI = R3(-θ) r_ECEF
//	v_ECI = R3(-θ) (v_ECEF + ω × r_ECEF)
func ECEFToECI(s State, era units.Angle, rate float64) (State, error) {
	if err := requireFrame("frames.ECEFToECI", s, ECEF); err != nil {
		return State{}, err
	}
	m := rotation.R3(-era.Rad())
	pos := m.MulVec(s.Position)
	vel := m.MulVec(r3.Add(s.Velocity, spin(rate, s.Position)))
	return s.withFrame(ECI, pos, vel), nil
}

// ECIToECEF is the inverse of ECEFToECI.
//
//	r_ECEF = R3(θ) r_ECI
//	v_ECEF = R3(θ) v_ECI - ω × r_ECEF
func ECIToECEF(s State, era units.Angle, rate float64) (State, error) {
	if err := requireFrame("frames.ECIToECEF", s, ECI); err != nil {
		return State{}, err
	}
	m := rotation.R3(era.Rad())
	pos := m.MulVec(s.Position)
	vel := r3.Sub(m.MulVec(s.Velocity), spin(rate, pos))
	return s.withFrame(ECEF, pos, vel), nil
}

// ECEFToECIAt applies ECEFToECI with the ERA computed from the state's own
// epoch. The state must carry an epoch.
func ECEFToECIAt(s State, eop timescale.EOPSource) (State, error) {
	if !s.Timed {
		return State{}, astroerr.Domain("frames.ECEFToECIAt", "epoch", nil, "state has no epoch")
	}
	era, err := orient.EarthRotationAngle(s.Epoch, eop)
	if err != nil {
		return State{}, err
	}
	return ECEFToECI(s, era, orient.RotationRate)
}

func requireEpoch(op string, s State, el orient.Elements) error {
	if s.Timed && !s.Epoch.Equal(el.Epoch) {
		return astroerr.Domain(op, "epoch", s.Epoch, "orientation elements were evaluated at "+el.Epoch.String())
	}
	return nil
}

// ITRSToGCRS applies the full CIO-based chain, GCRS = C2Iᵀ·R3(-ERA)·Wᵀ ITRS,
// using orientation elements evaluated at the state's epoch.
func ITRSToGCRS(s State, el orient.Elements) (State, error) {
	if err := requireFrame("frames.ITRSToGCRS", s, ECEF); err != nil {
		return State{}, err
	}
	if err := requireEpoch("frames.ITRSToGCRS", s, el); err != nil {
		return State{}, err
	}
	tirsPos := el.PolarMotion.MulVecTrans(s.Position)
	tirsVel := r3.Add(el.PolarMotion.MulVecTrans(s.Velocity), spin(orient.RotationRate, tirsPos))

	c2tirs := rotation.Chain(el.EarthRotation(), el.PrecessionNutation)
	out := s.withFrame(GCRF, c2tirs.MulVecTrans(tirsPos), c2tirs.MulVecTrans(tirsVel))
	out.Epoch, out.Timed = el.Epoch, true
	return out, nil
}

// GCRSToITRS is the inverse of ITRSToGCRS.
func GCRSToITRS(s State, el orient.Elements) (State, error) {
	if err := requireFrame("frames.GCRSToITRS", s, GCRF); err != nil {
		return State{}, err
	}
	if err := requireEpoch("frames.GCRSToITRS", s, el); err != nil {
		return State{}, err
	}
	c2tirs := rotation.Chain(el.EarthRotation(), el.PrecessionNutation)
	tirsPos := c2tirs.MulVec(s.Position)
	tirsVel := r3.Sub(c2tirs.MulVec(s.Velocity), spin(orient.RotationRate, tirsPos))

	out := s.withFrame(ECEF, el.PolarMotion.MulVec(tirsPos), el.PolarMotion.MulVec(tirsVel))
	out.Epoch, out.Timed = el.Epoch, true
	return out, nil
}

// EME2000ToGCRF removes the frame bias from a J2000 mean-equator state. The
// bias is fixed, so the transform holds at every epoch.
func EME2000ToGCRF(s State) (State, error) {
	if err := requireFrame("frames.EME2000ToGCRF", s, EME2000); err != nil {
		return State{}, err
	}
	b := orient.FrameBias()
	return s.withFrame(GCRF, b.MulVecTrans(s.Position), b.MulVecTrans(s.Velocity)), nil
}

// GCRFToEME2000 applies the frame bias.
func GCRFToEME2000(s State) (State, error) {
	if err := requireFrame("frames.GCRFToEME2000", s, GCRF); err != nil {
		return State{}, err
	}
	b := orient.FrameBias()
	return s.withFrame(EME2000, b.MulVec(s.Position), b.MulVec(s.Velocity)), nil
}
