package kepler

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/earthmodel"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

const mu = 398600.4418

var epoch = timescale.MustFromTime(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

// flat is Elements in plain degrees, comparable with cmp.
type flat struct {
	A, E, I, RAAN, ArgP, Nu float64
}

func flatten(el Elements) flat {
	return flat{el.SemiMajorAxis, el.Eccentricity, el.Inclination.Deg(), el.RAAN.Deg(), el.ArgPeriapsis.Deg(), el.TrueAnomaly.Deg()}
}

func coe(a, e, i, raan, argp, nu float64) Elements {
	return Elements{
		SemiMajorAxis: a,
		Eccentricity:  e,
		Inclination:   units.Deg(i),
		RAAN:          units.Deg(raan),
		ArgPeriapsis:  units.Deg(argp),
		TrueAnomaly:   units.Deg(nu),
		Epoch:         epoch,
	}
}

func TestCircularEquatorialState(t *testing.T) {
	s, err := ToCartesian(coe(7000, 0, 0, 0, 0, 0), mu)
	if err != nil {
		t.Fatalf("ToCartesian: %v", err)
	}
	wantV := math.Sqrt(mu / 7000)
	if d := r3.Norm(r3.Sub(s.Position, r3.Vec{X: 7000})); d > 1e-9 {
		t.Errorf("position = %+v, want (7000, 0, 0)", s.Position)
	}
	if d := r3.Norm(r3.Sub(s.Velocity, r3.Vec{Y: wantV})); d > 1e-12 {
		t.Errorf("velocity = %+v, want (0, %.6f, 0)", s.Velocity, wantV)
	}
	if s.Frame != frames.GCRF || !s.Timed || !s.Epoch.Equal(epoch) {
		t.Errorf("state tags = %v/%v/%v", s.Frame, s.Timed, s.Epoch)
	}
	if p := Period(7000, mu); math.Abs(p-5828.516) > 1e-3 {
		t.Errorf("period = %.4f s, want ~5828.516", p)
	}
}

func TestToCartesianKeepsFrame(t *testing.T) {
	el := coe(7000, 0.01, 45, 10, 20, 30)
	el.Frame = frames.EME2000
	s, err := ToCartesian(el, mu)
	if err != nil {
		t.Fatalf("ToCartesian: %v", err)
	}
	if s.Frame != frames.EME2000 {
		t.Errorf("frame = %v, want EME2000", s.Frame)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		el   Elements
	}{
		{"LEO", coe(6778.137, 0.0001, 45, 0.0001, 0.001, 0.001)},
		{"Molniya", coe(26600, 0.74, 63.4, 250, 270, 10)},
		{"GTO past apogee", coe(24396, 0.73, 27, 120, 178, 200)},
		{"retrograde", coe(7200, 0.05, 98.7, 300, 45, 359)},
		{"near-polar eccentric", coe(9000, 0.3, 89.9, 80, 10, 170)},
	}
	opt := cmpopts.EquateApprox(0, 1e-8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ToCartesian(tt.el, mu)
			if err != nil {
				t.Fatalf("ToCartesian: %v", err)
			}
			got, err := FromCartesian(s, mu)
			if err != nil {
				t.Fatalf("FromCartesian: %v", err)
			}
			if diff := cmp.Diff(flatten(tt.el), flatten(got), opt); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if !got.Epoch.Equal(epoch) {
				t.Error("epoch dropped")
			}
		})
	}
}

func TestSingularConventions(t *testing.T) {
	tests := []struct {
		name string
		in   Elements
		want flat
	}{
		// ω folds into ν (argument of latitude).
		{"circular inclined", coe(7000, 0, 30, 40, 50, 60), flat{7000, 0, 30, 40, 0, 110}},
		// Ω folds into ω (longitude of periapsis).
		{"equatorial eccentric", coe(8000, 0.1, 0, 30, 40, 50), flat{8000, 0.1, 0, 0, 70, 50}},
		// Everything folds into ν (true longitude).
		{"circular equatorial", coe(7000, 0, 0, 10, 20, 30), flat{7000, 0, 0, 0, 0, 60}},
		{"circular retrograde equatorial", coe(7000, 0, 180, 0, 0, 30), flat{7000, 0, 180, 0, 0, 30}},
		{"eccentric retrograde equatorial", coe(8000, 0.2, 180, 0, 40, 50), flat{8000, 0.2, 180, 0, 40, 50}},
	}
	opt := cmpopts.EquateApprox(0, 1e-7)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ToCartesian(tt.in, mu)
			if err != nil {
				t.Fatalf("ToCartesian: %v", err)
			}
			got, err := FromCartesian(s, mu)
			if err != nil {
				t.Fatalf("FromCartesian: %v", err)
			}
			f := flatten(got)
			for _, v := range []float64{f.A, f.E, f.I, f.RAAN, f.ArgP, f.Nu} {
				if math.IsNaN(v) {
					t.Fatalf("NaN in %+v", f)
				}
			}
			if diff := cmp.Diff(tt.want, f, opt); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			back, err := ToCartesian(got, mu)
			if err != nil {
				t.Fatalf("ToCartesian(back): %v", err)
			}
			if d := r3.Norm(r3.Sub(back.Position, s.Position)); d > 1e-6 {
				t.Errorf("re-converted position differs by %.2e km", d)
			}
		})
	}
}

func TestToCartesianRejects(t *testing.T) {
	tests := []struct {
		name string
		el   Elements
		mu   float64
	}{
		{"hyperbolic", coe(7000, 1.2, 0, 0, 0, 0), mu},
		{"parabolic", coe(7000, 1, 0, 0, 0, 0), mu},
		{"negative eccentricity", coe(7000, -0.1, 0, 0, 0, 0), mu},
		{"zero semi-major axis", coe(0, 0.1, 0, 0, 0, 0), mu},
		{"negative semi-major axis", coe(-7000, 0.1, 0, 0, 0, 0), mu},
		{"inclination above 180", coe(7000, 0.1, 181, 0, 0, 0), mu},
		{"NaN anomaly", coe(7000, 0.1, 10, 0, 0, math.NaN()), mu},
		{"zero mu", coe(7000, 0.1, 10, 0, 0, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToCartesian(tt.el, tt.mu)
			if !errors.Is(err, astroerr.ErrDomain) {
				t.Fatalf("expected domain error, got %v", err)
			}
		})
	}
}

func TestFromCartesianRejects(t *testing.T) {
	escape := math.Sqrt(2*mu/7000) * 1.01
	tests := []struct {
		name string
		s    frames.State
	}{
		{"hyperbolic", frames.State{Position: r3.Vec{X: 7000}, Velocity: r3.Vec{Y: escape}}},
		{"radial", frames.State{Position: r3.Vec{X: 7000}, Velocity: r3.Vec{X: 1}}},
		{"origin", frames.State{Velocity: r3.Vec{Y: 7}}},
		{"NaN", frames.State{Position: r3.Vec{X: math.NaN()}, Velocity: r3.Vec{Y: 7}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromCartesian(tt.s, mu); !errors.Is(err, astroerr.ErrDomain) {
				t.Errorf("expected domain error, got %v", err)
			}
		})
	}
}

func TestIntegralsOfMotion(t *testing.T) {
	el := coe(26600, 0.74, 63.4, 250, 270, 10)
	s, _ := ToCartesian(el, mu)

	if got, want := SpecificEnergy(s, mu), -mu/(2*el.SemiMajorAxis); math.Abs(got-want) > 1e-12*math.Abs(want) {
		t.Errorf("energy = %.12f, want %.12f", got, want)
	}
	p := el.SemiMajorAxis * (1 - el.Eccentricity*el.Eccentricity)
	if got, want := r3.Norm(AngularMomentum(s)), math.Sqrt(mu*p); math.Abs(got-want) > 1e-9*want {
		t.Errorf("|h| = %.9f, want %.9f", got, want)
	}
}

func TestEGM96Mu(t *testing.T) {
	// The trajectory tool defaults to EGM96; its mu must still give a sane orbit.
	el := coe(earthmodel.EGM96.Radius()+400, 0.0001, 45, 0.0001, 0.001, 0.001)
	s, err := ToCartesian(el, earthmodel.EGM96.Mu())
	if err != nil {
		t.Fatalf("ToCartesian: %v", err)
	}
	if v := s.Speed(); math.Abs(v-7.67) > 0.01 {
		t.Errorf("speed = %.4f km/s, want ~7.67", v)
	}
}
