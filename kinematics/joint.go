package kinematics

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// JointKind enumerates the element types a chain is built from.
type JointKind int

// The supported joint kinds. Every frame is local: +Z points along the chain, a hinge turns about
// local X, an axial joint twists about local Z.
const (
	Bone JointKind = iota
	Hinge
	Axial
	Ball
)

func (k JointKind) String() string {
	switch k {
	case Bone:
		return "bone"
	case Hinge:
		return "hinge"
	case Axial:
		return "axial"
	case Ball:
		return "ball"
	default:
		return fmt.Sprintf("JointKind(%d)", int(k))
	}
}

// ParseJointKind returns the kind named by s (case-insensitive).
func ParseJointKind(s string) (JointKind, error) {
	switch strings.ToLower(s) {
	case "bone":
		return Bone, nil
	case "hinge":
		return Hinge, nil
	case "axial":
		return Axial, nil
	case "ball":
		return Ball, nil
	default:
		return 0, errors.Wrapf(ErrUnknownJointKind, "%q", s)
	}
}

// Joint is one element of a kinematic chain. Only bones use Length.
type Joint struct {
	Kind   JointKind
	Name   string
	Length float64
}

// NewBone returns a rigid segment of the given length. Bones have no degrees of freedom.
func NewBone(name string, length float64) (Joint, error) {
	if math.IsNaN(length) || math.IsInf(length, 0) || length < 0 {
		return Joint{}, errors.Errorf("bone %q length must be finite and non-negative, got %v", name, length)
	}
	return Joint{Kind: Bone, Name: name, Length: length}, nil
}

// NewHinge returns a single-axis rotation about local X.
func NewHinge(name string) Joint {
	return Joint{Kind: Hinge, Name: name}
}

// NewAxial returns a single-axis twist about local Z.
func NewAxial(name string) Joint {
	return Joint{Kind: Axial, Name: name}
}

// NewBall returns a three-axis joint with state [roll, pitch, yaw].
func NewBall(name string) Joint {
	return Joint{Kind: Ball, Name: name}
}

// DoF returns the number of state scalars the joint consumes.
func (j Joint) DoF() int {
	switch j.Kind {
	case Hinge, Axial:
		return 1
	case Ball:
		return 3
	default:
		return 0
	}
}

// validate checks the kind and that only bones carry a finite, non-negative length.
func (j Joint) validate() error {
	switch j.Kind {
	case Bone:
		_, err := NewBone(j.Name, j.Length)
		return err
	case Hinge, Axial, Ball:
		if j.Length != 0 {
			return errors.Errorf("%s joint %q cannot have a length", j.Kind, j.Name)
		}
		return nil
	default:
		return errors.Wrapf(ErrUnknownJointKind, "joint %q has kind %d", j.Name, int(j.Kind))
	}
}

// Transform returns the local homogeneous transform of the joint for the given values. It is applied
// on the right of the running frame.
func (j Joint) Transform(values []float64) (mgl64.Mat4, error) {
	if j.Kind < Bone || j.Kind > Ball {
		return mgl64.Ident4(), errors.Wrapf(ErrUnknownJointKind, "joint %q has kind %d", j.Name, int(j.Kind))
	}
	if len(values) != j.DoF() {
		return mgl64.Ident4(), NewShapeMismatchError(fmt.Sprintf("%s joint %q", j.Kind, j.Name), len(values), j.DoF())
	}
	switch j.Kind {
	case Bone:
		return mgl64.Translate3D(0, 0, j.Length), nil
	case Hinge:
		return mgl64.HomogRotate3DX(values[0]), nil
	case Axial:
		return mgl64.HomogRotate3DZ(values[0]), nil
	case Ball:
		// roll, pitch, yaw about local X, Y, Z; yaw outermost
		return mgl64.HomogRotate3DZ(values[2]).Mul4(mgl64.HomogRotate3DY(values[1])).Mul4(mgl64.HomogRotate3DX(values[0])), nil
	}
	return mgl64.Ident4(), nil
}
