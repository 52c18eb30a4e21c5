// Package rotation builds the elementary 3x3 frame rotations used across
// the frame and orientation code.
//
// All matrices rotate the coordinate frame, not the vector: R3(θ) applied
// to a vector expresses it in a frame turned by +θ about the third axis.
package rotation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// R1 is a frame rotation about the first axis.
func R1(x float64) *r3.Mat {
	s, c := math.Sincos(x)
	return r3.NewMat([]float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 is a frame rotation about the second axis.
func R2(x float64) *r3.Mat {
	s, c := math.Sincos(x)
	return r3.NewMat([]float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 is a frame rotation about the third axis.
func R3(x float64) *r3.Mat {
	s, c := math.Sincos(x)
	return r3.NewMat([]float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// R3R1R3 performs a 3-1-3 Euler rotation, the perifocal to inertial
// sequence with (Ω, i, ω). The result maps inertial to perifocal; use its
// transpose for the reverse.
func R3R1R3(θ1, θ2, θ3 float64) *r3.Mat {
	sθ1, cθ1 := math.Sincos(θ1)
	sθ2, cθ2 := math.Sincos(θ2)
	sθ3, cθ3 := math.Sincos(θ3)
	return r3.NewMat([]float64{
		cθ3*cθ1 - sθ3*cθ2*sθ1, cθ3*sθ1 + sθ3*cθ2*cθ1, sθ3 * sθ2,
		-sθ3*cθ1 - cθ3*cθ2*sθ1, -sθ3*sθ1 + cθ3*cθ2*cθ1, cθ3 * sθ2,
		sθ2 * sθ1, -sθ2 * cθ1, cθ2,
	})
}

// Chain returns ms[0]·ms[1]·…·ms[n-1]. With no arguments it returns the identity.
func Chain(ms ...*r3.Mat) *r3.Mat {
	out := r3.Eye()
	for _, m := range ms {
		out.Mul(out, m)
	}
	return out
}

// Transpose returns a new matrix holding mᵀ.
func Transpose(m *r3.Mat) *r3.Mat {
	t := r3.NewMat(nil)
	t.CloneFrom(m.T())
	return t
}

// MaxOrthogonalityError returns max |(m·mᵀ - I)ij|, a cheap check that m
// is still a rotation.
func MaxOrthogonalityError(m *r3.Mat) float64 {
	p := r3.NewMat(nil)
	p.Mul(m, m.T())
	var worst float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			worst = math.Max(worst, math.Abs(p.At(i, j)-want))
		}
	}
	return worst
}
