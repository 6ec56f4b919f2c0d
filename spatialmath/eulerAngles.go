package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// EulerAngles are three successive rotations about the local axes. The rotation they describe is
// Rz(Yaw) * Ry(Pitch) * Rx(Roll), so roll is applied first in the local frame. This is the same
// order ball joints use.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{}
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Rotate3DZ(ea.Yaw).Mul3(mgl64.Rotate3DY(ea.Pitch)).Mul3(mgl64.Rotate3DX(ea.Roll))}
}

// EulerAngles extracts roll, pitch and yaw from the rotation matrix. Near pitch = +/-90 degrees the
// decomposition is not unique; yaw is then fixed to zero and the whole rotation about the vertical
// is reported as roll.
func (rm *RotationMatrix) EulerAngles() *EulerAngles {
	r := rm.mat
	sy := math.Sqrt(r.At(0, 0)*r.At(0, 0) + r.At(1, 0)*r.At(1, 0))

	if sy < 1e-6 {
		return &EulerAngles{
			Roll:  math.Atan2(-r.At(1, 2), r.At(1, 1)),
			Pitch: math.Atan2(-r.At(2, 0), sy),
			Yaw:   0,
		}
	}
	return &EulerAngles{
		Roll:  math.Atan2(r.At(2, 1), r.At(2, 2)),
		Pitch: math.Atan2(-r.At(2, 0), sy),
		Yaw:   math.Atan2(r.At(1, 0), r.At(0, 0)),
	}
}
