package kinematics

import (
	"context"
	"math"
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/ikchain/spatialmath"
	"go.viam.com/ikchain/utils"
)

// StepResult describes what a single solver step did.
type StepResult struct {
	// ErrorNorm is the distance to the target before the step.
	ErrorNorm float64
	// UpdateNorm is the norm of the clamped update, before scaling by the time step and before any
	// perturbation.
	UpdateNorm float64
	// Converged is true when the error was already under the threshold and nothing was changed.
	Converged bool
	// Perturbed is true when a random perturbation was added to escape a local minimum.
	Perturbed bool
}

// JacobianIK moves a model toward a target with pseudo-inverse jacobian steps. It owns the model's
// state while stepping; callers must not mutate the model concurrently with Step.
type JacobianIK struct {
	id       int
	model    *Model
	cfg      SolverConfig
	logger   golog.Logger
	randSeed *rand.Rand
	metric   Metric

	// consecutive steps whose update was below SmallUpdateThreshold
	stagnation int
}

// CreateJacobianIKSolver returns a solver for model. The random source is seeded with 1.
func CreateJacobianIKSolver(model *Model, cfg SolverConfig, logger golog.Logger) (*JacobianIK, error) {
	if model == nil {
		return nil, ErrNoModelInformation
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid solver config")
	}
	ik := &JacobianIK{
		model:  model,
		cfg:    cfg,
		logger: logger,
		metric: NewSquaredNormMetric(cfg.OrientationWeight),
	}
	ik.SetSeed(1)
	return ik, nil
}

// Model returns the model the solver steps.
func (ik *JacobianIK) Model() *Model {
	return ik.model
}

// Config returns the solver configuration.
func (ik *JacobianIK) Config() SolverConfig {
	return ik.cfg
}

// SetSeed reseeds the perturbation source.
func (ik *JacobianIK) SetSeed(seed int64) {
	ik.randSeed = rand.New(rand.NewSource(seed))
}

// SetRandSource replaces the perturbation source.
func (ik *JacobianIK) SetRandSource(src rand.Source) {
	ik.randSeed = rand.New(src)
}

// SetMetric sets the distance used by StepPose to decide convergence.
func (ik *JacobianIK) SetMetric(m Metric) {
	ik.metric = m
}

// Reset zeroes the model state and the stagnation counter.
func (ik *JacobianIK) Reset() {
	ik.model.Reset()
	ik.stagnation = 0
}

// Step moves the model state one increment toward target, which is a world position. timeStep scales
// the applied update; 1 gives a full Newton step.
func (ik *JacobianIK) Step(target r3.Vector, timeStep float64) (StepResult, error) {
	if !utils.IsFinite(target.X) || !utils.IsFinite(target.Y) || !utils.IsFinite(target.Z) {
		return StepResult{}, errors.Errorf("target %v is not finite", target)
	}
	chain, state := ik.model.chain, ik.model.state

	current, err := chain.Forward(state)
	if err != nil {
		return StepResult{}, err
	}
	e := target.Sub(current.Point())
	res := StepResult{ErrorNorm: e.Norm()}
	if res.ErrorNorm < ik.cfg.ConvergenceThreshold {
		res.Converged = true
		return res, nil
	}
	if chain.DoF() == 0 {
		return res, nil
	}

	jac, err := chain.Jacobian(state, ik.cfg.jacobianOptions())
	if err != nil {
		return res, err
	}
	return ik.update(jac, spatialmath.R3ToSlice(e), timeStep, res)
}

// StepPose is Step for a full target pose. The orientation error is the rotation vector from the
// current end effector orientation to the target's, weighted by OrientationWeight.
func (ik *JacobianIK) StepPose(target spatialmath.Pose, timeStep float64) (StepResult, error) {
	if target == nil {
		return StepResult{}, errors.New("nil target pose")
	}
	chain, state := ik.model.chain, ik.model.state

	current, err := chain.Forward(state)
	if err != nil {
		return StepResult{}, err
	}
	res := StepResult{ErrorNorm: math.Sqrt(ik.metric.Distance(current, target))}
	if res.ErrorNorm < ik.cfg.ConvergenceThreshold {
		res.Converged = true
		return res, nil
	}
	if chain.DoF() == 0 {
		return res, nil
	}

	jac, err := chain.JacobianWithOrientation(state, ik.cfg.jacobianOptions())
	if err != nil {
		return res, err
	}
	w := ik.cfg.OrientationWeight
	e := spatialmath.PoseDelta(current, target)
	for row := 3; row < 6; row++ {
		e[row] *= w
		for col := 0; col < jac.RawMatrix().Cols; col++ {
			jac.Set(row, col, w*jac.At(row, col))
		}
	}
	return ik.update(jac, e, timeStep, res)
}

// update solves jac*delta = e in the least squares sense, clamps delta, handles stagnation and
// applies the result to the model state.
func (ik *JacobianIK) update(jac *mat.Dense, e []float64, timeStep float64, res StepResult) (StepResult, error) {
	pinv, err := PseudoInverse(jac, ik.cfg.Damping, ik.cfg.RCond)
	if err != nil {
		return res, errors.Wrap(err, "cannot invert jacobian")
	}
	var dq mat.VecDense
	dq.MulVec(pinv, mat.NewVecDense(len(e), e))
	delta := make([]float64, dq.Len())
	for i := range delta {
		delta[i] = dq.AtVec(i)
	}

	// scale the whole update so no single DOF moves more than MaxChange
	maxChange := ik.cfg.MaxChange
	beta := maxChange / math.Max(maxChange, utils.MaxAbs(delta))
	floats.Scale(beta, delta)
	res.UpdateNorm = floats.Norm(delta, 2)

	var perturbation []float64
	if res.UpdateNorm < ik.cfg.SmallUpdateThreshold {
		ik.stagnation++
		if ik.stagnation >= ik.cfg.StagnationLimit {
			perturbation = make([]float64, len(delta))
			for i := range perturbation {
				perturbation[i] = (2*ik.randSeed.Float64() - 1) * ik.cfg.PerturbationScale
			}
			ik.stagnation = 0
			res.Perturbed = true
			ik.logger.Debugf("solver %d: local minimum? perturbing, error %.6f", ik.id, res.ErrorNorm)
		}
	} else {
		ik.stagnation = 0
	}

	ik.model.state.addFlat(timeStep, delta, perturbation)
	return res, nil
}

// Solve steps until the end effector is within the convergence threshold of target, the context is
// done, or MaxIterations steps have been taken.
func (ik *JacobianIK) Solve(ctx context.Context, target r3.Vector, timeStep float64) (int, error) {
	for i := 0; i < ik.cfg.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}
		res, err := ik.Step(target, timeStep)
		if err != nil {
			return i, err
		}
		if res.Converged {
			return i, nil
		}
	}
	return ik.cfg.MaxIterations, errors.Wrapf(ErrNotConverged, "target %v after %d steps", target, ik.cfg.MaxIterations)
}
