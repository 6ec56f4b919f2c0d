package kinematics

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/ikchain/spatialmath"
	"go.viam.com/ikchain/utils"
)

// Arm is the degree-facing wrapper around a model used by interactive callers. Joint values go in and
// come out in degrees; positions are in model units.
type Arm struct {
	Model   *Model
	stepper *JacobianIK
	ik      InverseKinematics
	logger  golog.Logger
}

// NewArm wraps model. With nCPU > 1, Solve races nCPU solvers from different starting states; single
// steps always run on the live model.
func NewArm(model *Model, cfg SolverConfig, nCPU int, logger golog.Logger) (*Arm, error) {
	if nCPU < 1 {
		return nil, errors.New("need to have at least one CPU core")
	}
	stepper, err := CreateJacobianIKSolver(model, cfg, logger)
	if err != nil {
		return nil, err
	}
	arm := &Arm{Model: model, stepper: stepper, ik: stepper, logger: logger}
	if nCPU > 1 {
		if arm.ik, err = CreateCombinedIKSolver(model, cfg, logger, nCPU); err != nil {
			return nil, err
		}
	}
	return arm, nil
}

// NewArmJSONFile builds an arm from a chain description file, using the solver settings it contains.
func NewArmJSONFile(jsonFile string, nCPU int, logger golog.Logger) (*Arm, error) {
	cfg, err := ReadModelConfigFile(jsonFile)
	if err != nil {
		return nil, err
	}
	model, err := cfg.ParseConfig("")
	if err != nil {
		return nil, err
	}
	solverCfg, err := cfg.SolverConfig()
	if err != nil {
		return nil, err
	}
	return NewArm(model, solverCfg, nCPU, logger)
}

// Solver returns the single-step solver bound to the live model.
func (a *Arm) Solver() *JacobianIK {
	return a.stepper
}

// JointPositionsDegrees returns the flattened state in degrees.
func (a *Arm) JointPositionsDegrees() []float64 {
	return utils.RadsToDegs(a.Model.CopyState().Flatten())
}

// SetJointPositionsDegrees sets the flattened state from degrees.
func (a *Arm) SetJointPositionsDegrees(degs []float64) error {
	return a.Model.SetFlatState(utils.DegsToRads(degs))
}

// EndEffector returns the end effector's current pose.
func (a *Arm) EndEffector() (spatialmath.Pose, error) {
	return a.Model.EndEffector()
}

// Track advances the live model one step toward target.
func (a *Arm) Track(target r3.Vector, timeStep float64) (StepResult, error) {
	return a.stepper.Step(target, timeStep)
}

// MoveToPosition solves for target, writing the result into the live model.
func (a *Arm) MoveToPosition(ctx context.Context, target r3.Vector) error {
	steps, err := a.ik.Solve(ctx, target, 1)
	if err != nil {
		return errors.Wrapf(err, "could not solve for position. Target: %v", target)
	}
	a.logger.Debugf("reached %v in %d steps", target, steps)
	return nil
}

// Reset returns every joint to zero.
func (a *Arm) Reset() {
	a.stepper.Reset()
}
