package ephem

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/units"
)

func epochAt(y int, m time.Month, d, h, mi int) timescale.Epoch {
	return timescale.MustFromTime(time.Date(y, m, d, h, mi, 0, 0, time.UTC))
}

func TestAlmanacSunDistance(t *testing.T) {
	tests := []struct {
		name   string
		epoch  timescale.Epoch
		wantAU float64
	}{
		{"perihelion 2025", epochAt(2025, time.January, 4, 13, 28), 0.98333},
		{"aphelion 2025", epochAt(2025, time.July, 3, 19, 55), 1.01664},
		{"2025-08-01", epochAt(2025, time.August, 1, 0, 0), 1.0150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SunPositionVector(tt.epoch)
			if err != nil {
				t.Fatalf("SunPositionVector: %v", err)
			}
			if got := s.Radius() / AU; math.Abs(got-tt.wantAU) > 5e-4 {
				t.Errorf("distance = %.5f AU, want %.5f", got, tt.wantAU)
			}
			if s.Frame != frames.MOD || !s.Timed || !s.Epoch.Equal(tt.epoch) {
				t.Errorf("state tags = %v/%v/%v", s.Frame, s.Timed, s.Epoch)
			}
		})
	}
}

func TestAlmanacSunEquinox(t *testing.T) {
	// March equinox 2024-03-20 03:06 UTC: the Sun crosses the equator
	// heading for +X.
	s, _ := AlmanacSun{}.SunPosition(epochAt(2024, time.March, 20, 3, 6))
	u := r3.Unit(s.Position)

	if dec := units.Rad(math.Asin(u.Z)).Deg(); math.Abs(dec) > 0.02 {
		t.Errorf("declination at equinox = %.4f deg, want ~0", dec)
	}
	if ra := units.Rad(math.Atan2(u.Y, u.X)).Deg(); math.Abs(ra) > 0.05 {
		t.Errorf("right ascension at equinox = %.4f deg, want ~0", ra)
	}
}

func TestAlmanacSunSolstice(t *testing.T) {
	// June solstice 2025-06-21 02:42 UTC: maximum declination.
	s, _ := AlmanacSun{}.SunPosition(epochAt(2025, time.June, 21, 2, 42))
	dec := units.Rad(math.Asin(r3.Unit(s.Position).Z)).Deg()
	if math.Abs(dec-23.436) > 0.02 {
		t.Errorf("declination at solstice = %.4f deg, want ~23.436", dec)
	}
}

// TestModelsAgree checks the almanac series against the Meeus theory. The
// models differ by aberration, nutation and truncation, all well under 0.03°.
func TestModelsAgree(t *testing.T) {
	start := epochAt(2020, time.January, 1, 0, 0)
	for day := 0; day < 3650; day += 97 {
		e := start.Add(float64(day) * 86400)
		a, err := AlmanacSun{}.SunPosition(e)
		if err != nil {
			t.Fatalf("almanac: %v", err)
		}
		m, err := MeeusSun{}.SunPosition(e)
		if err != nil {
			t.Fatalf("meeus: %v", err)
		}
		sep := units.Rad(math.Acos(math.Min(1, r3.Cos(a.Position, m.Position)))).Deg()
		if sep > 0.03 {
			t.Errorf("day %d: angular separation %.4f deg", day, sep)
		}
		if d := math.Abs(a.Radius()-m.Radius()) / AU; d > 1e-4 {
			t.Errorf("day %d: distance differs by %.2e AU", day, d)
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "almanac", "Meeus"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("de440"); !errors.Is(err, astroerr.ErrDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}
