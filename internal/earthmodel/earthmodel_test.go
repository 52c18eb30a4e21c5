package earthmodel

import (
	"errors"
	"math"
	"testing"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
)

func TestPredefinedModels(t *testing.T) {
	tests := []struct {
		model  Model
		radius float64
		mu     float64
		j2     float64
	}{
		{WGS84, 6378.137, 398600.4418, 1.08263e-3},
		{EGM96, 6378.1363, 398600.4415, 1.08263e-3},
	}
	for _, tt := range tests {
		t.Run(tt.model.Name(), func(t *testing.T) {
			if tt.model.Radius() != tt.radius {
				t.Errorf("Radius = %v, want %v", tt.model.Radius(), tt.radius)
			}
			if tt.model.Mu() != tt.mu {
				t.Errorf("Mu = %v, want %v", tt.model.Mu(), tt.mu)
			}
			j2, err := tt.model.J(2)
			if err != nil {
				t.Fatalf("J(2): %v", err)
			}
			if math.Abs(j2-tt.j2) > 1e-8 {
				t.Errorf("J2 = %v, want ~%v", j2, tt.j2)
			}
			if tt.model.MaxDegree() != 6 {
				t.Errorf("MaxDegree = %d, want 6", tt.model.MaxDegree())
			}
		})
	}
}

func TestWGS84Derived(t *testing.T) {
	if got := WGS84.PolarRadius(); math.Abs(got-6356.752314) > 1e-6 {
		t.Errorf("PolarRadius = %.6f, want 6356.752314", got)
	}
	if got := WGS84.EccentricitySquared(); math.Abs(got-6.69437999014e-3) > 1e-12 {
		t.Errorf("e^2 = %.14f, want 0.00669437999014", got)
	}
}

func TestZonalReturnsCopy(t *testing.T) {
	z, err := EGM96.Zonal(4)
	if err != nil {
		t.Fatalf("Zonal: %v", err)
	}
	if len(z) != 3 {
		t.Fatalf("len = %d, want 3", len(z))
	}
	z[0] = 0
	if j2, _ := EGM96.J(2); j2 == 0 {
		t.Error("mutating the returned slice changed the model")
	}
}

func TestDegreeOutOfRange(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		if _, err := WGS84.J(n); !errors.Is(err, astroerr.ErrModel) {
			t.Errorf("J(%d): expected model error, got %v", n, err)
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"egm96", "EGM96", " wgs84 ", "WGS-84"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("GRS80"); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("expected domain error for unknown model, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		radius, f float64
		mu        float64
	}{
		{"zero radius", 0, 0, 1},
		{"negative mu", 6378, 0, -1},
		{"flattening one", 6378, 1, 1},
		{"NaN radius", math.NaN(), 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("x", tt.radius, tt.f, tt.mu, 0); !errors.Is(err, astroerr.ErrDomain) {
				t.Errorf("expected domain error, got %v", err)
			}
		})
	}
}
