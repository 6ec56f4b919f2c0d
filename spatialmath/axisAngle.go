package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// An orientation can be expressed by an axis on the unit sphere, (rx, ry, rz), and a rotation theta
// around that axis. Multiplying the axis by theta gives the R3 rotation vector used for orientation
// errors.

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an empty R4AA struct.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// ToR3 converts an R4 angle axis to R3.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// ToQuat converts an R4 axis angle to a unit quaternion.
func (r4 *R4AA) ToQuat() quat.Number {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	sinA := math.Sin(r4.Theta / 2)
	return quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX / norm * sinA,
		Jmag: r4.RY / norm * sinA,
		Kmag: r4.RZ / norm * sinA,
	}
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (r4 *R4AA) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(r4.ToQuat())
}

// R3ToR4 converts an R3 rotation vector to R4.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return NewR4AA()
	}
	return &R4AA{theta, aa.X / theta, aa.Y / theta, aa.Z / theta}
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does. The
// returned angle lies in [-pi, pi], so the equivalent rotation vector is the shortest one.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) R4AA {
	denom := imagNorm(q)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-9 {
		return R4AA{0, 0, 0, 1}
	}
	return R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// QuatToRotationMatrix converts a unit quaternion to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	q = quat.Scale(1/quat.Abs(q), q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	rm := NewIdentityRotation()
	rm.mat.Set(0, 0, 1-2*(y*y+z*z))
	rm.mat.Set(0, 1, 2*(x*y-z*w))
	rm.mat.Set(0, 2, 2*(x*z+y*w))
	rm.mat.Set(1, 0, 2*(x*y+z*w))
	rm.mat.Set(1, 1, 1-2*(x*x+z*z))
	rm.mat.Set(1, 2, 2*(y*z-x*w))
	rm.mat.Set(2, 0, 2*(x*z-y*w))
	rm.mat.Set(2, 1, 2*(y*z+x*w))
	rm.mat.Set(2, 2, 1-2*(x*x+y*y))
	return rm
}

func imagNorm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}
