package cli

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/ikchain/kinematics"
)

func (r *runner) benchAction(c *cli.Context) error {
	cfg, err := kinematics.ReadModelConfigFile(c.Path(flagModel))
	if err != nil {
		return err
	}
	model, err := cfg.ParseConfig("")
	if err != nil {
		return err
	}
	solverCfg, err := cfg.SolverConfig()
	if err != nil {
		return err
	}
	trials := c.Int(flagTrials)
	if trials < 1 {
		return errors.Errorf("%s must be at least 1", flagTrials)
	}
	ik, reset, err := r.newSolver(model, solverCfg, c.Int(flagNCPU))
	if err != nil {
		return err
	}
	targets, err := randomTargets(model, trials, c.Int64(flagSeed))
	if err != nil {
		return err
	}

	steps, _, err := solveAll(c.Context, ik, reset, targets, c.Float64(flagTimeStep))
	if err != nil {
		return err
	}
	out := c.App.Writer
	fmt.Fprintf(out, "solved %d/%d targets (%.1f%%)\n", len(steps), trials, 100*float64(len(steps))/float64(trials))
	if len(steps) == 0 {
		return nil
	}
	return printStepStats(out, steps, c.Int(flagBins))
}

type stepSummary struct {
	Mean, Median, P90, Max float64
}

func summarizeSteps(steps []float64) (stepSummary, error) {
	var s stepSummary
	var err error
	if s.Mean, err = stats.Mean(steps); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(steps); err != nil {
		return s, err
	}
	if s.P90, err = stats.Percentile(steps, 90); err != nil {
		return s, err
	}
	s.Max, err = stats.Max(steps)
	return s, err
}

func printStepStats(out io.Writer, steps []float64, bins int) error {
	s, err := summarizeSteps(steps)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "steps: mean %.2f  median %.1f  p90 %.1f  max %.0f\n", s.Mean, s.Median, s.P90, s.Max)
	if bins < 1 {
		return nil
	}
	return histogram.Fprint(out, histogram.Hist(bins, steps), histogram.Linear(40))
}
