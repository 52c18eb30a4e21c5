// Package frames converts Cartesian states between the Earth-fixed,
// Earth-centred inertial and celestial reference frames.
//
// Every transform copies the input epoch onto its output and stamps the
// output frame; none of them drop either.
package frames

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/timescale"
)

// ID names a reference frame.
type ID int

const (
	Unspecified ID = iota
	// ECEF is the Earth-fixed terrestrial frame (ITRS).
	ECEF
	// ECI is the Earth-centred frame reached from ECEF by the ERA rotation
	// alone (the celestial intermediate frame).
	ECI
	// GCRF is the geocentric celestial reference frame.
	GCRF
	// EME2000 is the J2000 mean equator and equinox.
	EME2000
	// MOD is the mean equator and equinox of date.
	MOD
	// TOD is the true equator and equinox of date.
	TOD
)

var frameNames = map[ID]string{
	Unspecified: "UNSPECIFIED",
	ECEF:        "ECEF",
	ECI:         "ECI",
	GCRF:        "GCRF",
	EME2000:     "EME2000",
	MOD:         "MOD",
	TOD:         "TOD",
}

func (f ID) String() string {
	if n, ok := frameNames[f]; ok {
		return n
	}
	return fmt.Sprintf("ID(%d)", int(f))
}

// Inertial reports whether f is non-rotating, i.e. usable for integration.
func (f ID) Inertial() bool {
	return f == ECI || f == GCRF || f == EME2000
}

// ParseID parses a frame name, ignoring case. "ITRF" and "ITRS" map to ECEF
// and "J2000" to EME2000.
func ParseID(s string) (ID, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ECEF", "ITRF", "ITRS":
		return ECEF, nil
	case "ECI", "CIRS":
		return ECI, nil
	case "GCRF", "GCRS":
		return GCRF, nil
	case "EME2000", "J2000":
		return EME2000, nil
	case "MOD":
		return MOD, nil
	case "TOD":
		return TOD, nil
	}
	return Unspecified, astroerr.Domain("frames.ParseID", "frame", s, "unknown frame")
}

// State is a position (km) and velocity (km/s) in a named frame. Timed is
// false for purely geometric conversions, in which case Epoch is unused.
type State struct {
	Position r3.Vec
	Velocity r3.Vec
	Epoch    timescale.Epoch
	Timed    bool
	Frame    ID
}

// Radius returns |r| in km.
func (s State) Radius() float64 { return r3.Norm(s.Position) }

// Speed returns |v| in km/s.
func (s State) Speed() float64 { return r3.Norm(s.Velocity) }

// Finite reports whether every component is a finite number.
func (s State) Finite() bool {
	for _, v := range [...]float64{
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Velocity.X, s.Velocity.Y, s.Velocity.Z,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) withFrame(f ID, pos, vel r3.Vec) State {
	s.Position, s.Velocity, s.Frame = pos, vel, f
	return s
}

func requireFrame(op string, s State, want ID) error {
	if s.Frame != want {
		return astroerr.Domain(op, "frame", s.Frame, fmt.Sprintf("expected %s input", want))
	}
	return nil
}
