// Package earthmodel holds the immutable Earth constant sets used by the
// frame transforms and force models.
package earthmodel

import (
	"math"
	"strings"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
)

// Model is an Earth constant set. Fields are unexported so a Model cannot
// be changed after construction; copies are safe to share across goroutines.
type Model struct {
	name         string
	radius       float64 // equatorial radius, km
	flattening   float64
	mu           float64 // km^3/s^2
	rotationRate float64 // rad/s
	zonal        []float64
}

// New validates and builds a Model. zonal holds J2, J3, ... in order.
func New(name string, radius, flattening, mu, rotationRate float64, zonal ...float64) (Model, error) {
	const op = "earthmodel.New"
	if !(radius > 0) {
		return Model{}, astroerr.Domain(op, "radius", radius, "must be positive")
	}
	if !(mu > 0) {
		return Model{}, astroerr.Domain(op, "mu", mu, "must be positive")
	}
	if flattening < 0 || flattening >= 1 {
		return Model{}, astroerr.Domain(op, "flattening", flattening, "must be in [0, 1)")
	}
	z := make([]float64, len(zonal))
	copy(z, zonal)
	return Model{
		name:         name,
		radius:       radius,
		flattening:   flattening,
		mu:           mu,
		rotationRate: rotationRate,
		zonal:        z,
	}, nil
}

func mustNew(name string, radius, flattening, mu, rotationRate float64, zonal ...float64) Model {
	m, err := New(name, radius, flattening, mu, rotationRate, zonal...)
	if err != nil {
		panic(err)
	}
	return m
}

var (
	// WGS84 is the World Geodetic System 1984 ellipsoid with its
	// gravitational parameter and EGM zonal terms.
	WGS84 = mustNew("WGS84", 6378.137, 1/298.257223563, 398600.4418, 7.292115e-5,
		1.08262998905e-3, -2.53215306e-6, -1.61098761e-6, -2.35785649e-7, 5.43169846e-7)

	// EGM96 is the Earth Gravitational Model 1996 constant set.
	EGM96 = mustNew("EGM96", 6378.1363, 1/298.257, 398600.4415, 7.292115e-5,
		1.0826266835531513e-3, -2.5326564853322355e-6, -1.6196215913670001e-6,
		-2.2729608138498e-7, 5.4068123263e-7)
)

// ByName looks up a predefined model, ignoring case.
func ByName(name string) (Model, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "WGS84", "WGS-84":
		return WGS84, nil
	case "EGM96", "EGM-96":
		return EGM96, nil
	}
	return Model{}, astroerr.Domain("earthmodel.ByName", "name", name, "unknown earth model (want WGS84 or EGM96)")
}

func (m Model) Name() string { return m.name }

// Radius returns the equatorial radius in km.
func (m Model) Radius() float64 { return m.radius }

func (m Model) Flattening() float64 { return m.flattening }

// Mu returns the gravitational parameter in km^3/s^2.
func (m Model) Mu() float64 { return m.mu }

// RotationRate returns the mean rotation rate in rad/s.
func (m Model) RotationRate() float64 { return m.rotationRate }

// PolarRadius returns the semi-minor axis in km.
func (m Model) PolarRadius() float64 { return m.radius * (1 - m.flattening) }

// EccentricitySquared returns the first eccentricity squared of the ellipsoid.
func (m Model) EccentricitySquared() float64 { return m.flattening * (2 - m.flattening) }

// MaxDegree returns the highest zonal degree available, or 0 if none.
func (m Model) MaxDegree() int {
	if len(m.zonal) == 0 {
		return 0
	}
	return len(m.zonal) + 1
}

// J returns the unnormalized zonal coefficient of degree n (n >= 2).
func (m Model) J(n int) (float64, error) {
	if n < 2 || n > m.MaxDegree() {
		return 0, astroerr.Model("earthmodel.J", m.name, "zonal degree %d not available (have 2..%d)", n, m.MaxDegree())
	}
	return m.zonal[n-2], nil
}

// Zonal returns a copy of J2..Jn.
func (m Model) Zonal(n int) ([]float64, error) {
	if n < 2 || n > m.MaxDegree() {
		return nil, astroerr.Model("earthmodel.Zonal", m.name, "zonal degree %d not available (have 2..%d)", n, m.MaxDegree())
	}
	out := make([]float64, n-1)
	copy(out, m.zonal[:n-1])
	return out, nil
}

// CircularVelocity returns the circular orbit speed in km/s at radius r km.
func (m Model) CircularVelocity(r float64) float64 { return math.Sqrt(m.mu / r) }
