package frames

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/earthmodel"
)

func mustECEF(t *testing.T, g Geodetic) r3.Vec {
	t.Helper()
	s, err := GeodeticToECEF(g, earthmodel.WGS84)
	if err != nil {
		t.Fatalf("GeodeticToECEF(%+v): %v", g, err)
	}
	return s.Position
}

func TestGeodeticToECEF(t *testing.T) {
	tests := []struct {
		name string
		in   Geodetic
		want r3.Vec
	}{
		{"equator prime meridian", Geodetic{0, 0, 0}, r3.Vec{X: 6378.137}},
		{"equator 90E", Geodetic{0, 90, 0}, r3.Vec{Y: 6378.137}},
		{"north pole", Geodetic{90, 0, 0}, r3.Vec{Z: 6356.752314245}},
		{"south pole", Geodetic{-90, 0, 0}, r3.Vec{Z: -6356.752314245}},
		{"400 km above equator", Geodetic{0, 0, 400}, r3.Vec{X: 6778.137}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := GeodeticToECEF(tt.in, earthmodel.WGS84)
			if err != nil {
				t.Fatalf("GeodeticToECEF: %v", err)
			}
			if s.Frame != ECEF {
				t.Errorf("frame = %v, want ECEF", s.Frame)
			}
			if s.Timed {
				t.Error("geometric conversion should not carry an epoch")
			}
			if d := r3.Norm(r3.Sub(s.Position, tt.want)); d > 1e-6 {
				t.Errorf("got %+v, want %+v (diff=%.2e km)", s.Position, tt.want, d)
			}
		})
	}
}

func TestGeodeticAltitudeIsRadial(t *testing.T) {
	r0 := r3.Norm(mustECEF(t, Geodetic{0, 0, 0}))
	r1 := r3.Norm(mustECEF(t, Geodetic{0, 0, 0.1}))
	if math.Abs((r1-r0)-0.1) > 1e-9 {
		t.Errorf("altitude difference = %.9f km, want 0.1", r1-r0)
	}
}

func TestGeodeticLongitudeWraps(t *testing.T) {
	a := mustECEF(t, Geodetic{12, 190, 1})
	b := mustECEF(t, Geodetic{12, -170, 1})
	if d := r3.Norm(r3.Sub(a, b)); d > 1e-9 {
		t.Errorf("190E and 170W differ by %.2e km", d)
	}
}

func TestGeodeticToECEFRejects(t *testing.T) {
	tests := []struct {
		name string
		in   Geodetic
	}{
		{"latitude above 90", Geodetic{90.0001, 0, 0}},
		{"latitude below -90", Geodetic{-91, 0, 0}},
		{"NaN latitude", Geodetic{math.NaN(), 0, 0}},
		{"infinite longitude", Geodetic{0, math.Inf(1), 0}},
		{"deep below ellipsoid", Geodetic{0, 0, -50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GeodeticToECEF(tt.in, earthmodel.WGS84)
			if !errors.Is(err, astroerr.ErrDomain) {
				t.Errorf("expected domain error, got %v", err)
			}
		})
	}
}

func TestECEFToGeodeticRoundTrip(t *testing.T) {
	points := []Geodetic{
		{0, 0, 0},
		{40.7128, -74.006, 0.01},
		{-33.8688, 151.2093, 0.058},
		{89.9, 45, 2},
		{-60, 180, 400},
		{51.4779, -0.0015, 35786},
	}
	for _, p := range points {
		pos := mustECEF(t, p)
		got, err := ECEFToGeodetic(pos, earthmodel.WGS84)
		if err != nil {
			t.Fatalf("ECEFToGeodetic: %v", err)
		}
		if math.Abs(got.LatDeg-p.LatDeg) > 1e-9 || math.Abs(got.LonDeg-p.LonDeg) > 1e-9 || math.Abs(got.AltKm-p.AltKm) > 1e-6 {
			t.Errorf("round trip %+v -> %+v", p, got)
		}
	}
}

func TestECEFToGeodeticGeocentre(t *testing.T) {
	if _, err := ECEFToGeodetic(r3.Vec{}, earthmodel.WGS84); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("expected domain error at the geocentre, got %v", err)
	}
}

func TestLookOverhead(t *testing.T) {
	obs := Geodetic{0, 0, 0}
	la, err := Look(obs, mustECEF(t, Geodetic{0, 0, 400}), earthmodel.WGS84)
	if err != nil {
		t.Fatalf("Look: %v", err)
	}
	if math.Abs(la.ElevationDeg-90) > 1e-6 {
		t.Errorf("overhead elevation = %.4f deg, want 90", la.ElevationDeg)
	}
	if math.Abs(la.RangeKm-400) > 1e-6 {
		t.Errorf("overhead range = %.4f km, want 400", la.RangeKm)
	}
}

func TestLookAzimuthDirections(t *testing.T) {
	obs := Geodetic{0, 0, 0}
	tests := []struct {
		name   string
		target Geodetic
		wantAz float64
	}{
		{"north", Geodetic{10, 0, 400}, 0},
		{"east", Geodetic{0, 10, 400}, 90},
		{"south", Geodetic{-10, 0, 400}, 180},
		{"west", Geodetic{0, -10, 400}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			la, err := Look(obs, mustECEF(t, tt.target), earthmodel.WGS84)
			if err != nil {
				t.Fatalf("Look: %v", err)
			}
			diff := math.Abs(la.AzimuthDeg - tt.wantAz)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > 1 {
				t.Errorf("azimuth = %.2f deg, want %.0f", la.AzimuthDeg, tt.wantAz)
			}
			if la.ElevationDeg <= 0 {
				t.Errorf("elevation = %.2f deg, want above horizon", la.ElevationDeg)
			}
		})
	}
}

func TestLookCoincident(t *testing.T) {
	obs := Geodetic{10, 10, 0}
	if _, err := Look(obs, mustECEF(t, obs), earthmodel.WGS84); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}
