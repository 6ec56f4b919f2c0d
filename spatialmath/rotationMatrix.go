package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 orthonormal matrix describing an orientation.
type RotationMatrix struct {
	mat mgl64.Mat3
}

// NewRotationMatrix wraps a 3x3 matrix. The caller is responsible for orthonormality.
func NewRotationMatrix(m mgl64.Mat3) *RotationMatrix {
	return &RotationMatrix{mat: m}
}

// NewIdentityRotation returns the orientation with no rotation.
func NewIdentityRotation() *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Ident3()}
}

// RotationAboutX returns a right-handed rotation of angle radians about the X axis.
func RotationAboutX(angle float64) *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Rotate3DX(angle)}
}

// RotationAboutY returns a right-handed rotation of angle radians about the Y axis.
func RotationAboutY(angle float64) *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Rotate3DY(angle)}
}

// RotationAboutZ returns a right-handed rotation of angle radians about the Z axis.
func RotationAboutZ(angle float64) *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Rotate3DZ(angle)}
}

// At returns the entry at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat.At(row, col)
}

// Mat3 returns the underlying matrix.
func (rm *RotationMatrix) Mat3() mgl64.Mat3 {
	return rm.mat
}

// Mul returns rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	return &RotationMatrix{mat: rm.mat.Mul3(other.mat)}
}

// Transpose returns the inverse rotation.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	return &RotationMatrix{mat: rm.mat.Transpose()}
}

// Axis returns column i (0=X, 1=Y, 2=Z) of the matrix, i.e. the direction of the local axis in the
// parent frame.
func (rm *RotationMatrix) Axis(i int) r3.Vector {
	col := rm.mat.Col(i)
	return r3.Vector{X: col[0], Y: col[1], Z: col[2]}
}

// Quaternion returns the orientation as a unit quaternion.
func (rm *RotationMatrix) Quaternion() quat.Number {
	q := mgl64.Mat4ToQuat(rm.mat.Mat4()).Normalize()
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

// AxisAngles returns the orientation in axis angle representation.
func (rm *RotationMatrix) AxisAngles() *R4AA {
	aa := QuatToR4AA(rm.Quaternion())
	return &aa
}
