package frames

import (
	"errors"
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/orient"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

var testEpoch = timescale.MustFromTime(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

func leoState(f ID) State {
	return State{
		Position: r3.Vec{X: 5094.18016, Y: 6127.64465, Z: 6380.34453},
		Velocity: r3.Vec{X: -4.746131487, Y: 0.786598499, Z: 5.531931288},
		Epoch:    testEpoch,
		Timed:    true,
		Frame:    f,
	}
}

// TestECIToECEFAgainstGoSatellite compares the ERA rotation with
// go-satellite's ECIToECEF driven by the same angle.
func TestECIToECEFAgainstGoSatellite(t *testing.T) {
	angles := []float64{0, 0.4022837240028158, 1.754174981860675, 4.5, 2*math.Pi - 1e-6}
	for _, theta := range angles {
		in := leoState(ECI)
		got, err := ECIToECEF(in, units.Rad(theta), orient.RotationRate)
		if err != nil {
			t.Fatalf("ECIToECEF: %v", err)
		}
		ref := satellite.ECIToECEF(satellite.Vector3{X: in.Position.X, Y: in.Position.Y, Z: in.Position.Z}, theta)
		want := r3.Vec{X: ref.X, Y: ref.Y, Z: ref.Z}
		if d := r3.Norm(r3.Sub(got.Position, want)); d > 1e-9 {
			t.Errorf("θ=%.4f: ours %+v, go-satellite %+v (diff=%.2e km)", theta, got.Position, want, d)
		}
	}
}

func TestECEFECIRoundTrip(t *testing.T) {
	era, err := orient.EarthRotationAngle(testEpoch, timescale.ZeroEOP)
	if err != nil {
		t.Fatalf("EarthRotationAngle: %v", err)
	}
	in := leoState(ECEF)
	eci, err := ECEFToECI(in, era, orient.RotationRate)
	if err != nil {
		t.Fatalf("ECEFToECI: %v", err)
	}
	back, err := ECIToECEF(eci, era, orient.RotationRate)
	if err != nil {
		t.Fatalf("ECIToECEF: %v", err)
	}
	if d := r3.Norm(r3.Sub(back.Position, in.Position)); d > 1e-9 {
		t.Errorf("position round trip diff %.2e km", d)
	}
	if d := r3.Norm(r3.Sub(back.Velocity, in.Velocity)); d > 1e-12 {
		t.Errorf("velocity round trip diff %.2e km/s", d)
	}
	if eci.Frame != ECI || back.Frame != ECEF {
		t.Errorf("frames = %v, %v", eci.Frame, back.Frame)
	}
	if !eci.Timed || !eci.Epoch.Equal(testEpoch) {
		t.Error("epoch dropped by ECEFToECI")
	}
}

func TestECEFToECIGroundVelocity(t *testing.T) {
	ground := State{Position: r3.Vec{X: 6378.137}, Frame: ECEF}
	eci, err := ECEFToECI(ground, 0, orient.RotationRate)
	if err != nil {
		t.Fatalf("ECEFToECI: %v", err)
	}
	want := orient.RotationRate * 6378.137
	if math.Abs(eci.Velocity.Y-want) > 1e-12 {
		t.Errorf("inertial ground speed = %.9f km/s, want %.9f", eci.Velocity.Y, want)
	}
}

func TestECEFToECIAt(t *testing.T) {
	in := leoState(ECEF)
	got, err := ECEFToECIAt(in, timescale.ZeroEOP)
	if err != nil {
		t.Fatalf("ECEFToECIAt: %v", err)
	}
	era, _ := orient.EarthRotationAngle(testEpoch, timescale.ZeroEOP)
	want, _ := ECEFToECI(in, era, orient.RotationRate)
	if got.Position != want.Position {
		t.Errorf("got %+v, want %+v", got.Position, want.Position)
	}

	in.Timed = false
	if _, err := ECEFToECIAt(in, timescale.ZeroEOP); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("expected domain error without epoch, got %v", err)
	}
}

func TestFrameMismatch(t *testing.T) {
	s := leoState(GCRF)
	if _, err := ECEFToECI(s, 0, orient.RotationRate); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("ECEFToECI on GCRF: %v", err)
	}
	if _, err := ECIToECEF(s, 0, orient.RotationRate); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("ECIToECEF on GCRF: %v", err)
	}
	if _, err := EME2000ToGCRF(s); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("EME2000ToGCRF on GCRF: %v", err)
	}
}

func TestITRSGCRSRoundTrip(t *testing.T) {
	el, err := orient.SupportingElements(testEpoch, timescale.EOP{DUT1: 0.03, XP: 0.15, YP: 0.4})
	if err != nil {
		t.Fatalf("SupportingElements: %v", err)
	}
	in := leoState(ECEF)
	gcrs, err := ITRSToGCRS(in, el)
	if err != nil {
		t.Fatalf("ITRSToGCRS: %v", err)
	}
	back, err := GCRSToITRS(gcrs, el)
	if err != nil {
		t.Fatalf("GCRSToITRS: %v", err)
	}
	if d := r3.Norm(r3.Sub(back.Position, in.Position)); d > 1e-9 {
		t.Errorf("position round trip diff %.2e km", d)
	}
	if d := r3.Norm(r3.Sub(back.Velocity, in.Velocity)); d > 1e-12 {
		t.Errorf("velocity round trip diff %.2e km/s", d)
	}

	// The terrestrial pole lands on the CIP (X, Y) up to polar motion.
	pole := State{Position: r3.Vec{Z: 1}, Epoch: testEpoch, Timed: true, Frame: ECEF}
	p, err := ITRSToGCRS(pole, el)
	if err != nil {
		t.Fatalf("ITRSToGCRS(pole): %v", err)
	}
	cip := r3.Vec{X: el.X, Y: el.Y, Z: math.Sqrt(1 - el.X*el.X - el.Y*el.Y)}
	if d := r3.Norm(r3.Sub(p.Position, cip)); d > 5e-6 {
		t.Errorf("pole maps %.2e rad away from the CIP", d)
	}
	if el.X < 1e-3 {
		t.Errorf("CIP X = %.3e rad, want ~2.5e-3 in 2025", el.X)
	}
}

func TestITRSToGCRSEpochMismatch(t *testing.T) {
	el, _ := orient.SupportingElements(testEpoch, timescale.ZeroEOP)
	in := leoState(ECEF)
	in.Epoch = testEpoch.Add(60)
	if _, err := ITRSToGCRS(in, el); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("expected domain error for mismatched epoch, got %v", err)
	}
}

func TestEME2000GCRF(t *testing.T) {
	in := leoState(EME2000)
	gcrf, err := EME2000ToGCRF(in)
	if err != nil {
		t.Fatalf("EME2000ToGCRF: %v", err)
	}
	// The frame bias is ~23 mas, about 1 m at LEO radius.
	d := r3.Norm(r3.Sub(gcrf.Position, in.Position))
	if d == 0 || d > 2e-3 {
		t.Errorf("bias displacement = %.3e km, want (0, 2e-3]", d)
	}
	back, err := GCRFToEME2000(gcrf)
	if err != nil {
		t.Fatalf("GCRFToEME2000: %v", err)
	}
	if r3.Norm(r3.Sub(back.Position, in.Position)) > 1e-10 {
		t.Error("bias round trip failed")
	}
	if !gcrf.Epoch.Equal(in.Epoch) || gcrf.Frame != GCRF {
		t.Error("epoch or frame not propagated")
	}
}

func TestParseID(t *testing.T) {
	tests := map[string]ID{
		"ecef": ECEF, "ITRF": ECEF, "eci": ECI, "GCRF": GCRF, "j2000": EME2000, "EME2000": EME2000, "mod": MOD,
	}
	for in, want := range tests {
		got, err := ParseID(in)
		if err != nil || got != want {
			t.Errorf("ParseID(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseID("TEME"); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}

func TestStateFinite(t *testing.T) {
	s := leoState(GCRF)
	if !s.Finite() {
		t.Error("finite state reported non-finite")
	}
	s.Velocity.Z = math.NaN()
	if s.Finite() {
		t.Error("NaN velocity not detected")
	}
	s.Velocity.Z = 0
	s.Position.X = math.Inf(-1)
	if s.Finite() {
		t.Error("Inf position not detected")
	}
}
