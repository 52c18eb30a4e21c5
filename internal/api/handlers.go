package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/earthmodel"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/httputil"
	"github.com/dstuartbryant/spacewego/internal/orient"
	"github.com/dstuartbryant/spacewego/internal/timescale"
)

// Geodetic queries are answered on the WGS84 ellipsoid.
var geodesy = earthmodel.WGS84

func vec(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// timestamp reads the required "timestamp" query parameter. On failure
// the response has been written and ok is false.
func timestamp(c *gin.Context) (e timescale.Epoch, ok bool) {
	raw := c.Query("timestamp")
	if raw == "" {
		badRequest(c, "Timestamp is required")
		return e, false
	}
	e, err := timescale.Parse(raw)
	if err != nil {
		var de *astroerr.DomainError
		if errors.As(err, &de) {
			badRequest(c, de.Reason)
		} else {
			writeError(c, err)
		}
		return e, false
	}
	return e, true
}

// getECEFPosition: GET /api/get_ecef_position?lat=&lon=[&alt=]
func (s *Server) getECEFPosition(c *gin.Context) {
	q := c.Request.URL.Query()
	lat, errLat := httputil.FloatParam(q, "lat")
	lon, errLon := httputil.FloatParam(q, "lon")
	if errors.Is(errLat, httputil.ErrMissing) || errors.Is(errLon, httputil.ErrMissing) {
		badRequest(c, "Latitude and longitude are required")
		return
	}
	if err := errors.Join(errLat, errLon); err != nil {
		writeError(c, err)
		return
	}
	alt, err := httputil.OptionalFloat(q, "alt", 0)
	if err != nil {
		writeError(c, err)
		return
	}

	st, err := frames.GeodeticToECEF(frames.Geodetic{LatDeg: lat, LonDeg: lon, AltKm: alt}, geodesy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vec(st.Position))
}

// getEarthRotationAngle: GET /api/get_earth_rotation_angle?timestamp=
func (s *Server) getEarthRotationAngle(c *gin.Context) {
	e, ok := timestamp(c)
	if !ok {
		return
	}
	era, err := orient.EarthRotationAngle(e, s.eop)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"angle": era.Deg()})
}

// getSunPosition: GET /api/get_sun_position?timestamp=
func (s *Server) getSunPosition(c *gin.Context) {
	e, ok := timestamp(c)
	if !ok {
		return
	}
	st, err := s.sun.SunPosition(e)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vec(st.Position))
}

type orientationResponse struct {
	Timestamp    string  `json:"timestamp"`
	ERADeg       float64 `json:"era_deg"`
	GMSTDeg      float64 `json:"gmst_deg"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	S            float64 `json:"s"`
	RotationRate float64 `json:"rotation_rate"`
}

// getOrientation: GET /api/v1/orientation?timestamp=
func (s *Server) getOrientation(c *gin.Context) {
	e, ok := timestamp(c)
	if !ok {
		return
	}
	el, err := orient.SupportingElements(e, s.eop)
	if err != nil {
		writeError(c, err)
		return
	}
	gmst, err := orient.SiderealTime(e, s.eop)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orientationResponse{
		Timestamp:    e.String(),
		ERADeg:       el.ERA.Deg(),
		GMSTDeg:      gmst.Deg(),
		X:            el.X,
		Y:            el.Y,
		S:            el.S,
		RotationRate: orient.RotationRate,
	})
}

type lookAnglesResponse struct {
	AzimuthDeg   float64 `json:"azimuth_deg"`
	ElevationDeg float64 `json:"elevation_deg"`
	RangeKm      float64 `json:"range_km"`
}

// getLookAngles: GET /api/v1/look_angles?lat=&lon=[&alt=]&x=&y=&z=
// The target is given in Earth-fixed km.
func (s *Server) getLookAngles(c *gin.Context) {
	q := c.Request.URL.Query()
	var vals [5]float64
	var errs []error
	for i, name := range [...]string{"lat", "lon", "x", "y", "z"} {
		v, err := httputil.FloatParam(q, name)
		vals[i] = v
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		writeError(c, err)
		return
	}
	alt, err := httputil.OptionalFloat(q, "alt", 0)
	if err != nil {
		writeError(c, err)
		return
	}

	obs := frames.Geodetic{LatDeg: vals[0], LonDeg: vals[1], AltKm: alt}
	la, err := frames.Look(obs, r3.Vec{X: vals[2], Y: vals[3], Z: vals[4]}, geodesy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lookAnglesResponse{
		AzimuthDeg:   la.AzimuthDeg,
		ElevationDeg: la.ElevationDeg,
		RangeKm:      la.RangeKm,
	})
}
