package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/config"
	"github.com/npillmayer/autopath/plan"
	"github.com/npillmayer/autopath/program"
	"github.com/npillmayer/autopath/sim"
	"github.com/spf13/cobra"
)

// simOptions select what to simulate.
type simOptions struct {
	path    string    // named path to drive to, "" for the main branch
	offset  []float64 // displacement of the robot from the start, x and y
	turn    float64   // heading offset of the robot in degrees
	csvPath string
}

func (so *simOptions) flags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&so.path, "path", "p", "", "drive to the end of this named path (default: main branch)")
	cmd.Flags().Float64SliceVar(&so.offset, "offset", nil, "displace the robot from the start: dx,dy")
	cmd.Flags().Float64Var(&so.turn, "turn", 0, "turn the robot at the start by this many degrees")
}

func newSimulateCmd(opts *options) *cobra.Command {
	so := &simOptions{}
	cmd := &cobra.Command{
		Use:   "simulate program.yaml",
		Short: "Drive a simulated robot along a program and report how it went",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := load(args[0])
			if err != nil {
				return err
			}
			run, err := simulate(opts.cfg, prog, so)
			if so.csvPath != "" {
				if cerr := writeCSVFile(so.csvPath, run.Rows); cerr != nil {
					return cerr
				}
			}
			run.summary(cmd.OutOrStdout())
			return err
		},
	}
	so.flags(cmd)
	cmd.Flags().StringVar(&so.csvPath, "csv", "", "write the trajectory to this CSV file")
	return cmd
}

// row is one tick of a simulation run.
type row struct {
	Time    float64
	Pose    autopath.Pose
	Speed   float64
	S       float64
	State   sim.State
	Clamped bool
}

// simRun is the outcome of a simulation.
type simRun struct {
	Plan    *plan.Plan // plan at the start
	Final   *plan.Plan // plan at the end, including corrections
	Rows    []row
	Fired   []string
	Replans int
	Done    bool
}

func simulate(cfg config.Config, prog *program.Program, so *simOptions) (*simRun, error) {
	chain, err := prog.Chain(so.path)
	if err != nil {
		return &simRun{}, err
	}
	p, err := plan.FromSegments(prog.Arena, chain, cfg.Index.Exponent)
	if err != nil {
		return &simRun{}, err
	}
	pose := autopath.Pose{Pos: p.PoseAt(0).Pos, Angle: p.SampleAt(0).RobotHeading()}
	if len(so.offset) > 0 {
		if len(so.offset) != 2 {
			return &simRun{Plan: p}, fmt.Errorf("offset needs 2 values, has %d", len(so.offset))
		}
		pose.Pos += autopath.P(so.offset[0], so.offset[1])
	}
	pose.Angle = autopath.CanonicalizeAngle(pose.Angle + so.turn*autopath.Deg2Rad)

	simulator := sim.New(p, cfg.PlaceRobot(pose), cfg.Bounds(), cfg.SimParams())
	run := &simRun{Plan: p}
	_, err = simulator.Run(cfg.Sim.TimeStep, cfg.Sim.MaxTime, func(r sim.TickResult) {
		run.Rows = append(run.Rows, row{
			Time:    r.Time,
			Pose:    r.Robot.Pose,
			Speed:   r.Robot.Speed(),
			S:       r.Closest.S,
			State:   r.State,
			Clamped: r.Clamped,
		})
		for _, ev := range r.Fired {
			run.Fired = append(run.Fired, ev.Name)
		}
		if r.Adjustment != nil {
			run.Replans++
		}
	})
	run.Final = simulator.Plan()
	run.Done = simulator.Done()
	tracer().Infof("simulation of %d ticks finished, done=%v", len(run.Rows), run.Done)
	return run, err
}

func (run *simRun) summary(w io.Writer) {
	if run.Plan == nil {
		return
	}
	fmt.Fprintf(w, "plan: length %.3f, time %.3fs\n", run.Plan.Length(), run.Plan.Time())
	if len(run.Rows) == 0 {
		return
	}
	last := run.Rows[len(run.Rows)-1]
	status := "done"
	if !run.Done {
		status = "not done"
	}
	fmt.Fprintf(w, "%s after %.2fs at %s\n", status, last.Time, last.Pose)
	fmt.Fprintf(w, "corrections: %d\n", run.Replans)
	for _, name := range run.Fired {
		fmt.Fprintf(w, "fired: %s\n", name)
	}
}

var csvHeader = []string{"time", "x", "y", "heading_deg", "speed", "s", "state", "clamped"}

func writeCSV(w io.Writer, rows []row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', 4, 64) }
	for _, r := range rows {
		rec := []string{
			f(r.Time), f(r.Pose.Pos.X()), f(r.Pose.Pos.Y()), f(r.Pose.Angle / autopath.Deg2Rad),
			f(r.Speed), f(r.S), r.State.String(), strconv.FormatBool(r.Clamped),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeCSVFile(path string, rows []row) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeCSV(out, rows); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
