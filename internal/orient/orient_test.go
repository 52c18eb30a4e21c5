package orient

import (
	"math"
	"testing"
	"time"

	"github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/rotation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
)

func ttEpoch(t *testing.T, jd float64) timescale.Epoch {
	t.Helper()
	e, err := timescale.FromJulianDate(timescale.TT, jd)
	if err != nil {
		t.Fatalf("FromJulianDate: %v", err)
	}
	return e
}

func TestERAReferenceValue(t *testing.T) {
	got := ERA(timescale.JD{Day: 2400000.5, Frac: 54388.0}).Rad()
	want := 0.4022837240028158102
	if diff := math.Abs(got - want); diff > 1e-12 {
		t.Errorf("got %.16f, want %.16f (diff=%.2e)", got, want, diff)
	}
}

func TestERARange(t *testing.T) {
	start := timescale.MustFromTime(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 200; i++ {
		e := start.Add(float64(i) * 3571.3)
		era, err := EarthRotationAngle(e, timescale.ZeroEOP)
		if err != nil {
			t.Fatalf("EarthRotationAngle: %v", err)
		}
		if deg := era.Deg(); deg < 0 || deg >= 360 {
			t.Fatalf("ERA %v deg outside [0, 360)", deg)
		}
	}
}

func TestERARate(t *testing.T) {
	e := timescale.MustFromTime(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	a, _ := EarthRotationAngle(e, timescale.ZeroEOP)
	b, _ := EarthRotationAngle(e.Add(60), timescale.ZeroEOP)

	rate := units360Diff(b.Rad(), a.Rad()) / 60
	if math.Abs(rate-RotationRate) > 1e-12 {
		t.Errorf("ERA rate = %.15e rad/s, want %.15e", rate, RotationRate)
	}
	if math.Abs(RotationRate-7.292115146706979e-5) > 1e-18 {
		t.Errorf("RotationRate = %.15e", RotationRate)
	}
}

func TestERAHonoursDUT1(t *testing.T) {
	e := timescale.MustFromTime(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	a, _ := EarthRotationAngle(e, timescale.ZeroEOP)
	b, _ := EarthRotationAngle(e, timescale.EOP{DUT1: 0.5})

	want := RotationRate * 0.5
	if got := units360Diff(b.Rad(), a.Rad()); math.Abs(got-want) > 1e-11 {
		t.Errorf("DUT1 shift = %.3e rad, want %.3e", got, want)
	}
}

func units360Diff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

func TestGMST82ReferenceValue(t *testing.T) {
	got := GMST82(timescale.JD{Day: 2400000.5, Frac: 53736.0}).Rad()
	want := 1.754174981860675096
	if diff := math.Abs(got - want); diff > 1e-9 {
		t.Errorf("got %.15f, want %.15f (diff=%.2e)", got, want, diff)
	}
}

// TestGMST82AgainstGoSatellite cross-checks the sidereal time against the
// go-satellite implementation of the same IAU-82 formula.
func TestGMST82AgainstGoSatellite(t *testing.T) {
	dates := []time.Time{
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, d := range dates {
		t.Run(d.Format(time.RFC3339), func(t *testing.T) {
			got, err := SiderealTime(timescale.MustFromTime(d), timescale.ZeroEOP)
			if err != nil {
				t.Fatalf("SiderealTime: %v", err)
			}
			want := satellite.GSTimeFromDate(d.Year(), int(d.Month()), d.Day(), d.Hour(), d.Minute(), d.Second())
			if diff := math.Abs(units360Diff(got.Rad(), want)); diff > 1e-8 {
				t.Errorf("got %.10f, want %.10f (diff=%.2e)", got.Rad(), want, diff)
			}
		})
	}
}

func TestCIPReferenceValues(t *testing.T) {
	e := ttEpoch(t, 2400000.5+53736.0)
	x, y, s := CIP(e)

	tests := []struct {
		name      string
		got, want float64
		tol       float64
	}{
		{"X", x, 0.5791308486706010975e-3, 2e-8},
		{"Y", y, 0.4020579816732958141e-4, 2e-8},
		{"s", s, -0.1220032213076463117e-7, 1e-10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := math.Abs(tt.got - tt.want); diff > tt.tol {
				t.Errorf("got %.12e, want %.12e (diff=%.2e)", tt.got, tt.want, diff)
			}
		})
	}
}

func TestPrecessionRate(t *testing.T) {
	x0, _, _ := CIP(ttEpoch(t, timescale.J2000))
	x1, _, _ := CIP(ttEpoch(t, timescale.J2000+timescale.DaysPerCentury))

	// 2004.19"/century of precession, nutation may add a few arcseconds.
	got := (x1 - x0) / arcsec
	if math.Abs(got-2004.19) > 20 {
		t.Errorf("X drift over a century = %.2f arcsec, want ~2004.19", got)
	}
}

func TestNutationMagnitude(t *testing.T) {
	for _, c := range []float64{-0.5, 0, 0.255, 1} {
		dpsi, deps := Nutation(c)
		if math.Abs(dpsi)/arcsec > 20 || math.Abs(deps)/arcsec > 11 {
			t.Errorf("t=%v: dpsi=%.3f\" deps=%.3f\" exceed physical bounds", c, dpsi/arcsec, deps/arcsec)
		}
	}
}

func TestFrameBiasMatchesPrecessionAtJ2000(t *testing.T) {
	pb := fukushimaWilliams(0).matrix(0, 0)
	b := FrameBias()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if d := math.Abs(pb.At(i, j) - b.At(i, j)); d > 5e-9 {
				t.Errorf("[%d][%d] diff=%.2e", i, j, d)
			}
		}
	}
	if e := rotation.MaxOrthogonalityError(b); e > 1e-14 {
		t.Errorf("FrameBias orthogonality error %.2e", e)
	}
}

func TestCelestialToIntermediateMapsPoleToZ(t *testing.T) {
	x, y, s := 0.5791308486706011e-3, 0.4020579816732961e-4, -0.1220040848472272e-7
	m := CelestialToIntermediate(x, y, s)

	if d := math.Abs(m.At(2, 0) - x); d > 1e-15 {
		t.Errorf("[2][0] = %.16e, want X", m.At(2, 0))
	}
	if d := math.Abs(m.At(2, 1) - y); d > 1e-15 {
		t.Errorf("[2][1] = %.16e, want Y", m.At(2, 1))
	}
	if d := math.Abs(m.At(0, 0) - (1 - x*x/2)); d > 1e-12 {
		t.Errorf("[0][0] = %.16f", m.At(0, 0))
	}

	pole := r3.Vec{X: x, Y: y, Z: math.Sqrt(1 - x*x - y*y)}
	got := m.MulVec(pole)
	if r3.Norm(r3.Sub(got, r3.Vec{Z: 1})) > 1e-14 {
		t.Errorf("pole maps to %+v, want +Z", got)
	}
}

func TestSupportingElements(t *testing.T) {
	e := timescale.MustFromTime(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	el, err := SupportingElements(e, timescale.EOP{XP: 0.2, YP: 0.35})
	if err != nil {
		t.Fatalf("SupportingElements: %v", err)
	}
	era, _ := EarthRotationAngle(e, timescale.ZeroEOP)
	if el.ERA != era {
		t.Errorf("ERA = %v, want %v", el.ERA, era)
	}
	if !el.Epoch.Equal(e) {
		t.Error("epoch not preserved")
	}

	c2t := el.CelestialToTerrestrial()
	if e := rotation.MaxOrthogonalityError(c2t); e > 1e-14 {
		t.Errorf("C2T orthogonality error %.2e", e)
	}

	// Polar motion of a few tenths of an arcsecond tilts the pole by that much.
	tilt := math.Acos(el.PolarMotion.At(2, 2)) / arcsec
	want := math.Hypot(0.2, 0.35)
	if math.Abs(tilt-want) > 1e-3 {
		t.Errorf("polar motion tilt = %.4f arcsec, want %.4f", tilt, want)
	}
}
