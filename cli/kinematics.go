package cli

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/ikchain/kinematics"
	"go.viam.com/ikchain/spatialmath"
	"go.viam.com/ikchain/utils"
)

func (r *runner) forwardAction(c *cli.Context) error {
	model, err := kinematics.ParseModelJSONFile(c.Path(flagModel), "")
	if err != nil {
		return err
	}
	if joints := c.Float64Slice(flagJoints); len(joints) > 0 {
		if err := model.SetFlatState(utils.DegsToRads(joints)); err != nil {
			return err
		}
	}
	poses, err := model.JointPoses()
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"#", "Name", "Kind", "Translation", "Orientation (deg)"})
	t.AppendRow(poseRow("0", kinematics.World, "", poses[0]))
	for i, j := range model.Chain().Joints() {
		t.AppendRow(poseRow(fmt.Sprint(i+1), j.Name, j.Kind.String(), poses[i+1]))
	}
	t.Render()
	return nil
}

func poseRow(idx, name, kind string, pose spatialmath.Pose) table.Row {
	pt := pose.Point()
	ea := pose.Orientation().EulerAngles()
	return table.Row{
		idx, name, kind,
		fmt.Sprintf("(%.3f, %.3f, %.3f)", pt.X, pt.Y, pt.Z),
		fmt.Sprintf("roll %.1f pitch %.1f yaw %.1f",
			utils.RadToDeg(ea.Roll), utils.RadToDeg(ea.Pitch), utils.RadToDeg(ea.Yaw)),
	}
}

func (r *runner) trackAction(c *cli.Context) error {
	target, err := parseVector(c.Float64Slice(flagTarget), flagTarget)
	if err != nil {
		return err
	}
	arm, err := kinematics.NewArmJSONFile(c.Path(flagModel), 1, r.logger)
	if err != nil {
		return err
	}
	out := c.App.Writer
	dt := c.Float64(flagTimeStep)

	var errs plotter.XYs
	for i := 0; i < c.Int(flagSteps); i++ {
		res, err := arm.Track(target, dt)
		if err != nil {
			return err
		}
		errs = append(errs, plotter.XY{X: float64(i), Y: res.ErrorNorm})
		fmt.Fprintf(out, "step %3d  error %.6f  update %.6f", i, res.ErrorNorm, res.UpdateNorm)
		if res.Perturbed {
			fmt.Fprint(out, "  perturbed")
		}
		fmt.Fprintln(out)
		if res.Converged {
			fmt.Fprintf(out, "converged after %d steps\n", i)
			break
		}
	}
	fmt.Fprintf(out, "joints (deg): %.3f\n", arm.JointPositionsDegrees())

	if path := c.Path(flagPlot); path != "" {
		return plotErrors(errs, target, path)
	}
	return nil
}

func plotErrors(pts plotter.XYs, target r3.Vector, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("distance to %v", target)
	p.X.Label.Text = "step"
	p.Y.Label.Text = "error"
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line, plotter.NewGrid())
	return errors.Wrapf(p.Save(6*vg.Inch, 4*vg.Inch, path), "writing plot %q", path)
}

func (r *runner) solveAction(c *cli.Context) error {
	target, err := parseVector(c.Float64Slice(flagTarget), flagTarget)
	if err != nil {
		return err
	}
	arm, err := kinematics.NewArmJSONFile(c.Path(flagModel), c.Int(flagNCPU), r.logger)
	if err != nil {
		return err
	}
	if err := arm.MoveToPosition(c.Context, target); err != nil {
		return err
	}
	ee, err := arm.EndEffector()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "joints (deg): %.3f\nend effector: %v\n", arm.JointPositionsDegrees(), ee)
	return nil
}

// newSolver returns the solver bench uses and a function returning it to the zero state.
func (r *runner) newSolver(model *kinematics.Model, cfg kinematics.SolverConfig, nCPU int) (
	kinematics.InverseKinematics, func(), error,
) {
	if nCPU > 1 {
		ik, err := kinematics.CreateCombinedIKSolver(model, cfg, r.logger, nCPU)
		if err != nil {
			return nil, nil, err
		}
		return ik, model.Reset, nil
	}
	ik, err := kinematics.CreateJacobianIKSolver(model, cfg, r.logger)
	if err != nil {
		return nil, nil, err
	}
	return ik, ik.Reset, nil
}

// randomTargets returns n end effector positions of random states, so every target is reachable.
func randomTargets(model *kinematics.Model, n int, seed int64) ([]r3.Vector, error) {
	rng := rand.New(rand.NewSource(seed))
	targets := make([]r3.Vector, 0, n)
	for i := 0; i < n; i++ {
		pose, err := model.Chain().Forward(model.RandomState(rng))
		if err != nil {
			return nil, err
		}
		targets = append(targets, pose.Point())
	}
	return targets, nil
}

func solveAll(ctx context.Context, ik kinematics.InverseKinematics, reset func(), targets []r3.Vector, dt float64) (
	steps []float64, failed int, err error,
) {
	for _, t := range targets {
		reset()
		n, err := ik.Solve(ctx, t, dt)
		switch {
		case err == nil:
			steps = append(steps, float64(n))
		case errors.Is(err, kinematics.ErrNotConverged):
			failed++
		default:
			return nil, 0, err
		}
	}
	return steps, failed, nil
}
