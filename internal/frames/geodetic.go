package frames

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/earthmodel"
	"github.com/dstuartbryant/spacewego/internal/units"
)

// MinAltitude is the lowest geodetic altitude accepted, km.
const MinAltitude = -12.0

// Geodetic is a position on or above the reference ellipsoid.
type Geodetic struct {
	LatDeg float64 // [-90, 90]
	LonDeg float64 // any value on input, (-180, 180] on output
	AltKm  float64 // above the ellipsoid
}

// Validate checks the ranges accepted by GeodeticToECEF.
func (g Geodetic) Validate() error {
	const op = "frames.GeodeticToECEF"
	switch {
	case math.IsNaN(g.LatDeg) || g.LatDeg < -90 || g.LatDeg > 90:
		return astroerr.Domain(op, "lat", g.LatDeg, "latitude must be within [-90, 90] degrees")
	case math.IsNaN(g.LonDeg) || math.IsInf(g.LonDeg, 0):
		return astroerr.Domain(op, "lon", g.LonDeg, "longitude must be finite")
	case math.IsNaN(g.AltKm) || math.IsInf(g.AltKm, 0) || g.AltKm < MinAltitude:
		return astroerr.Domain(op, "alt", g.AltKm, "altitude below the accepted minimum")
	}
	return nil
}

// GeodeticToECEF converts a geodetic position to an Earth-fixed state with
// zero velocity and no epoch.
func GeodeticToECEF(g Geodetic, m earthmodel.Model) (State, error) {
	if err := g.Validate(); err != nil {
		return State{}, err
	}
	lat := units.Deg(g.LatDeg).Rad()
	lon := units.Deg(units.WrapLongitude(g.LonDeg)).Rad()

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	e2 := m.EccentricitySquared()

	// Radius of curvature in the prime vertical.
	n := m.Radius() / math.Sqrt(1-e2*sinLat*sinLat)

	return State{
		Position: r3.Vec{
			X: (n + g.AltKm) * cosLat * cosLon,
			Y: (n + g.AltKm) * cosLat * sinLon,
			Z: (n*(1-e2) + g.AltKm) * sinLat,
		},
		Frame: ECEF,
	}, nil
}

// ECEFToGeodetic converts an Earth-fixed position (km) to geodetic
// coordinates using the iterative Bowring method. Converges in 2-3
// iterations for Earth orbits.
func ECEFToGeodetic(r r3.Vec, m earthmodel.Model) (Geodetic, error) {
	p := math.Hypot(r.X, r.Y)
	if p == 0 && r.Z == 0 {
		return Geodetic{}, astroerr.Domain("frames.ECEFToGeodetic", "position", r, "geocentre has no geodetic coordinates")
	}
	a := m.Radius()
	e2 := m.EccentricitySquared()

	lon := math.Atan2(r.Y, r.X)
	lat := math.Atan2(r.Z, p*(1-e2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := a / math.Sqrt(1-e2*sinLat*sinLat)
		lat = math.Atan2(r.Z+e2*n*sinLat, p)
	}

	sinLat, cosLat := math.Sincos(lat)
	n := a / math.Sqrt(1-e2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(r.Z)/math.Abs(sinLat) - n*(1-e2)
	}

	return Geodetic{
		LatDeg: units.Rad(lat).Deg(),
		LonDeg: units.WrapLongitude(units.Rad(lon).Deg()),
		AltKm:  alt,
	}, nil
}

// LookAngles holds azimuth, elevation, and range from an observer to a target.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// Look computes azimuth, elevation and range from a ground observer to a
// target given in Earth-fixed km.
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado Section 4.4.
func Look(observer Geodetic, target r3.Vec, m earthmodel.Model) (LookAngles, error) {
	obs, err := GeodeticToECEF(observer, m)
	if err != nil {
		return LookAngles{}, err
	}
	rho := r3.Sub(target, obs.Position)
	rangeKm := r3.Norm(rho)
	if rangeKm == 0 {
		return LookAngles{}, astroerr.Domain("frames.Look", "target", target, "target coincides with observer")
	}

	sinLat, cosLat := math.Sincos(units.Deg(observer.LatDeg).Rad())
	sinLon, cosLon := math.Sincos(units.Deg(observer.LonDeg).Rad())

	south := sinLat*cosLon*rho.X + sinLat*sinLon*rho.Y - cosLat*rho.Z
	east := -sinLon*rho.X + cosLon*rho.Y
	zenith := cosLat*cosLon*rho.X + cosLat*sinLon*rho.Y + sinLat*rho.Z

	// In SEZ, North = -South, so az = atan2(east, -south).
	az := units.Wrap360(units.Rad(math.Atan2(east, -south)))

	return LookAngles{
		AzimuthDeg:   az.Deg(),
		ElevationDeg: units.Rad(math.Asin(zenith / rangeKm)).Deg(),
		RangeKm:      rangeKm,
	}, nil
}
