package kinematics

import (
	"github.com/pkg/errors"
)

var (
	// ErrShapeMismatch is returned when a state does not match the shape of the chain it is used with.
	ErrShapeMismatch = errors.New("state shape does not match chain")

	// ErrUnknownJointKind is returned when a joint kind is not one of bone, hinge, axial or ball.
	ErrUnknownJointKind = errors.New("unknown joint kind")

	// ErrNoModelInformation is used when there is no model information.
	ErrNoModelInformation = errors.New("no model information")

	// ErrNotConverged is returned by Solve when the iteration budget runs out before the target is reached.
	ErrNotConverged = errors.New("solver did not converge")
)

// NewShapeMismatchError returns an error wrapping ErrShapeMismatch describing which element had the
// wrong size.
func NewShapeMismatchError(what string, got, want int) error {
	return errors.Wrapf(ErrShapeMismatch, "%s has %d values, expected %d", what, got, want)
}
