// Package cli contains the ikchain command line actions.
package cli

import (
	"io"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	// Flags.
	flagDebug      = "debug"
	flagModel      = "model"
	flagJoints     = "joints"
	flagTarget     = "target"
	flagTimeStep   = "dt"
	flagSteps      = "steps"
	flagPlot       = "plot"
	flagNCPU       = "ncpu"
	flagTrials     = "trials"
	flagSeed       = "seed"
	flagBins       = "bins"
	flagFrequency  = "frequency"
	flagTimeScale  = "time-scale"
	flagDuration   = "duration"
	flagRadius     = "radius"
	flagPeriod     = "period"
	flagFilterSize = "filter-size"
	flagMaxSpeed   = "max-target-speed"
)

type runner struct {
	logger golog.Logger
}

var modelFlag = &cli.PathFlag{
	Name:     flagModel,
	Aliases:  []string{"m"},
	Required: true,
	Usage:    "load the chain description from `FILE` (JSON or YAML)",
}

var targetFlag = &cli.Float64SliceFlag{
	Name:     flagTarget,
	Aliases:  []string{"t"},
	Required: true,
	Usage:    "target position as x,y,z",
}

// NewApp returns the ikchain application writing its output to out.
func NewApp(out io.Writer) *cli.App {
	r := &runner{logger: zap.NewNop().Sugar()}
	return &cli.App{
		Name:      "ikchain",
		Usage:     "solve inverse kinematics for articulated chains",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				r.logger = golog.NewDebugLogger("ikchain")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "fk",
				Usage:     "print the joint poses for a set of joint values",
				UsageText: "ikchain fk --model <file> [--joints d1,d2,...]",
				Flags: []cli.Flag{
					modelFlag,
					&cli.Float64SliceFlag{
						Name:    flagJoints,
						Aliases: []string{"j"},
						Usage:   "joint values in degrees, flattened in chain order; omitted means all zero",
					},
				},
				Action: r.forwardAction,
			},
			{
				Name:  "track",
				Usage: "step toward a target one solver step at a time, printing the error after each step",
				Flags: []cli.Flag{
					modelFlag,
					targetFlag,
					&cli.Float64Flag{Name: flagTimeStep, Value: 1, Usage: "time step applied to each update"},
					&cli.IntFlag{Name: flagSteps, Value: 100, Usage: "maximum number of steps"},
					&cli.PathFlag{Name: flagPlot, Usage: "write a PNG plot of the error per step to `FILE`"},
				},
				Action: r.trackAction,
			},
			{
				Name:  "solve",
				Usage: "solve for a target and print the resulting joint values",
				Flags: []cli.Flag{
					modelFlag,
					targetFlag,
					&cli.IntFlag{Name: flagNCPU, Value: 1, Usage: "number of solvers to race"},
				},
				Action: r.solveAction,
			},
			{
				Name:  "bench",
				Usage: "solve random reachable targets and report step statistics",
				Flags: []cli.Flag{
					modelFlag,
					&cli.IntFlag{Name: flagTrials, Value: 100, Usage: "number of targets"},
					&cli.Int64Flag{Name: flagSeed, Value: 1, Usage: "seed for the random targets"},
					&cli.IntFlag{Name: flagNCPU, Value: 1, Usage: "number of solvers to race"},
					&cli.Float64Flag{Name: flagTimeStep, Value: 1, Usage: "time step applied to each update"},
					&cli.IntFlag{Name: flagBins, Value: 10, Usage: "histogram bins"},
				},
				Action: r.benchAction,
			},
			{
				Name:  "follow",
				Usage: "run the control loop against a target moving on a circle",
				Flags: []cli.Flag{
					modelFlag,
					&cli.Float64SliceFlag{Name: flagTarget, Aliases: []string{"t"}, Usage: "circle center as x,y,z"},
					&cli.Float64Flag{Name: flagRadius, Value: 0.5, Usage: "circle radius, in the world y-z plane"},
					&cli.DurationFlag{Name: flagPeriod, Value: 4 * time.Second, Usage: "time for one lap"},
					&cli.DurationFlag{Name: flagDuration, Value: 5 * time.Second, Usage: "how long to run"},
					&cli.Float64Flag{Name: flagFrequency, Value: 60, Usage: "loop frequency in Hz"},
					&cli.Float64Flag{Name: flagTimeScale, Value: 1, Usage: "multiplies the loop period to give the solver time step"},
					&cli.IntFlag{Name: flagFilterSize, Usage: "average the last N targets"},
					&cli.Float64Flag{Name: flagMaxSpeed, Usage: "limit target speed, units per second"},
				},
				Action: r.followAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of chain description files",
				Action: r.schemaAction,
			},
		},
	}
}

func parseVector(vals []float64, what string) (r3.Vector, error) {
	if len(vals) != 3 {
		return r3.Vector{}, errors.Errorf("%s needs 3 values, got %d", what, len(vals))
	}
	return r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
