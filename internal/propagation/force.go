package propagation

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
	"github.com/dstuartbryant/spacewego/internal/earthmodel"
)

// Field returns the acceleration (km/s²) at an inertial position (km).
type Field func(r r3.Vec) r3.Vec

// ForceModel builds the acceleration field for an Earth model. toPole maps
// the integration frame onto a frame whose third axis is the Earth's pole;
// nil means the two coincide.
type ForceModel interface {
	String() string
	Field(m earthmodel.Model, toPole *r3.Mat) (Field, error)
}

// TwoBody is point-mass gravity.
type TwoBody struct{}

func (TwoBody) String() string { return "twobody" }

func (TwoBody) Field(m earthmodel.Model, _ *r3.Mat) (Field, error) {
	mu := m.Mu()
	return func(r r3.Vec) r3.Vec { return pointMass(mu, r) }, nil
}

func pointMass(mu float64, r r3.Vec) r3.Vec {
	n := r3.Norm(r)
	return r3.Scale(-mu/(n*n*n), r)
}

// Geopotential is point-mass gravity plus the zonal harmonics J2..J(Degree).
// Only zonal terms are modelled, so Order must be zero.
type Geopotential struct {
	Degree int
	Order  int
}

func (g Geopotential) String() string { return fmt.Sprintf("geopotential(%d,%d)", g.Degree, g.Order) }

func (g Geopotential) Field(m earthmodel.Model, toPole *r3.Mat) (Field, error) {
	const op = "propagation.Geopotential"
	if g.Order != 0 {
		return nil, astroerr.Domain(op, "order", g.Order, "tesseral terms not supported (order must be 0)")
	}
	if g.Degree < 2 {
		return nil, astroerr.Domain(op, "degree", g.Degree, "degree must be at least 2")
	}
	j, err := m.Zonal(g.Degree)
	if err != nil {
		return nil, err
	}
	mu, re := m.Mu(), m.Radius()
	return func(r r3.Vec) r3.Vec {
		a := pointMass(mu, r)
		if toPole == nil {
			return r3.Add(a, zonal(mu, re, j, r))
		}
		body := zonal(mu, re, j, toPole.MulVec(r))
		return r3.Add(a, toPole.MulVecTrans(body))
	}, nil
}

// zonal returns the zonal perturbing acceleration in a pole-aligned frame.
// With u = z/r,
//
//	a_n = μ J_n R^n / r^(n+2) · [ P'_(n+1)(u) r̂ − P'_n(u) ẑ ]
//
// j holds J2, J3, ...
func zonal(mu, re float64, j []float64, r r3.Vec) r3.Vec {
	rn := r3.Norm(r)
	u := r.Z / rn
	rhat := r3.Scale(1/rn, r)

	// Legendre polynomials and their derivatives by recurrence.
	pPrev, p := 1.0, u // P0, P1
	d := 1.0           // P1'
	var radial, polar float64
	ratio := re / rn
	scale := mu / (rn * rn) * ratio
	for n := 2; n <= len(j)+1; n++ {
		pn := ((2*float64(n)-1)*u*p - float64(n-1)*pPrev) / float64(n)
		dn := float64(n)*p + u*d
		pPrev, p, d = p, pn, dn
		scale *= ratio

		// P'_(n+1) = (n+1) P_n + u P'_n
		dNext := float64(n+1)*pn + u*dn
		radial += j[n-2] * scale * dNext
		polar += j[n-2] * scale * dn
	}
	return r3.Sub(r3.Scale(radial, rhat), r3.Vec{Z: polar})
}

// ParseForce builds a force model from its name. degree applies to the
// geopotential model only.
func ParseForce(name string, degree int) (ForceModel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "twobody", "two-body", "two_body":
		return TwoBody{}, nil
	case "geopotential", "zonal":
		if degree == 0 {
			degree = 2
		}
		return Geopotential{Degree: degree}, nil
	case "j2":
		return Geopotential{Degree: 2}, nil
	}
	return nil, astroerr.Domain("propagation.ParseForce", "force", name, "unknown force model (want twobody or geopotential)")
}
