package kinematics

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// CombinedIK defines the fields necessary to run a combined solver.
type CombinedIK struct {
	solvers []*JacobianIK
	model   *Model
	logger  golog.Logger
}

type solverResult struct {
	id    int
	steps int
	state State
	err   error
}

// CreateCombinedIKSolver creates a combined parallel IK solver with a number of jacobian solvers equal to the nCPU
// passed in. Each works on its own clone of model and is given a different random seed. When asked to solve, all
// solvers will be run in parallel and the first converged state is written back into model.
func CreateCombinedIKSolver(model *Model, cfg SolverConfig, logger golog.Logger, nCPU int) (*CombinedIK, error) {
	if nCPU < 1 {
		return nil, errors.New("need to have at least one CPU core")
	}
	ik := &CombinedIK{model: model, logger: logger}
	for i := 1; i <= nCPU; i++ {
		solver, err := CreateJacobianIKSolver(model.Clone(), cfg, logger)
		if err != nil {
			return nil, err
		}
		solver.id = i
		solver.SetSeed(int64(i * 1000))
		ik.solvers = append(ik.solvers, solver)
	}
	return ik, nil
}

// Model returns the live model solutions are written to.
func (ik *CombinedIK) Model() *Model {
	return ik.model
}

// Solve will initiate solving for the given position in all child solvers. Solver 1 starts from the live state, the
// others from random states. The first solver to converge wins; its state is copied into the live model and the
// number of steps it took is returned. If no solver converges, the collected errors are returned.
func (ik *CombinedIK) Solve(ctx context.Context, target r3.Vector, timeStep float64) (int, error) {
	seed := ik.model.CopyState()
	ik.logger.Debugf("starting joint positions: %v", seed)
	ik.logger.Debugf("goal position: %v", target)

	for _, solver := range ik.solvers {
		start := seed
		if solver.id != 1 {
			start = solver.model.RandomState(solver.randSeed)
		}
		if err := solver.model.SetState(start); err != nil {
			return 0, err
		}
		solver.stagnation = 0
	}

	ctxWithCancel, cancel := context.WithCancel(ctx)
	defer cancel()

	resultChan := make(chan solverResult, len(ik.solvers))
	var activeSolvers sync.WaitGroup
	activeSolvers.Add(len(ik.solvers))
	for _, solver := range ik.solvers {
		thisSolver := solver
		utils.PanicCapturingGo(func() {
			defer activeSolvers.Done()
			res := solverResult{id: thisSolver.id, err: errors.Errorf("solver %d panicked", thisSolver.id)}
			defer func() { resultChan <- res }()
			res.steps, res.err = thisSolver.Solve(ctxWithCancel, target, timeStep)
			res.state = thisSolver.model.CopyState()
		})
	}

	var collectedErrs error
	var winner *solverResult
	for returned := 0; returned < len(ik.solvers); returned++ {
		res := <-resultChan
		if res.err != nil {
			if !errors.Is(res.err, context.Canceled) || ctx.Err() != nil {
				collectedErrs = multierr.Combine(collectedErrs, errors.Wrapf(res.err, "solver %d", res.id))
			}
			continue
		}
		if winner == nil {
			winner = &res
			cancel()
		}
	}
	activeSolvers.Wait()

	if winner == nil {
		return 0, collectedErrs
	}
	ik.logger.Debugf("solver %d converged in %d steps", winner.id, winner.steps)
	if err := ik.model.SetState(winner.state); err != nil {
		return winner.steps, err
	}
	return winner.steps, nil
}
