package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/ikchain/control"
	"go.viam.com/ikchain/kinematics"
)

// circle returns a target source moving around center in the world y-z plane.
func circle(center r3.Vector, radius float64, period time.Duration, start time.Time) control.TargetFunc {
	return func(now time.Time) (r3.Vector, bool) {
		theta := 2 * math.Pi * now.Sub(start).Seconds() / period.Seconds()
		return center.Add(r3.Vector{Y: radius * math.Cos(theta), Z: radius * math.Sin(theta)}), true
	}
}

func (r *runner) followAction(c *cli.Context) error {
	arm, err := kinematics.NewArmJSONFile(c.Path(flagModel), 1, r.logger)
	if err != nil {
		return err
	}
	var center r3.Vector
	if vals := c.Float64Slice(flagTarget); len(vals) > 0 {
		if center, err = parseVector(vals, flagTarget); err != nil {
			return err
		}
	} else if center, err = arm.Model.EndEffectorPosition(); err != nil {
		return err
	}
	period := c.Duration(flagPeriod)
	if period <= 0 {
		return errors.Errorf("%s must be positive", flagPeriod)
	}

	loop, err := control.NewLoop(r.logger, control.LoopConfig{
		Frequency:      c.Float64(flagFrequency),
		TimeScale:      c.Float64(flagTimeScale),
		FilterSize:     c.Int(flagFilterSize),
		MaxTargetSpeed: c.Float64(flagMaxSpeed),
	}, arm.Solver(), circle(center, c.Float64(flagRadius), period, time.Now()))
	if err != nil {
		return err
	}
	if err := loop.Start(); err != nil {
		return err
	}
	utils.SelectContextOrWait(c.Context, c.Duration(flagDuration))
	loop.Close()

	res, steps := loop.LastResult()
	ee, err := arm.Model.EndEffectorPosition()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d steps, last error %.4f, end effector %v, commanded target %v\n",
		steps, res.ErrorNorm, ee, loop.CommandedTarget())
	return nil
}
