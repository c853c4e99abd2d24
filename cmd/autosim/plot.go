package main

import (
	"fmt"
	"image/color"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/field"
	"github.com/npillmayer/autopath/graph"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	pathColor   = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	traceColor  = color.RGBA{R: 220, G: 60, B: 30, A: 255}
	fieldColor  = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	adjustColor = color.RGBA{R: 40, G: 160, B: 60, A: 255}
)

func newPlotCmd(opts *options) *cobra.Command {
	so := &simOptions{}
	var out string
	var withSim bool
	cmd := &cobra.Command{
		Use:   "plot program.yaml",
		Short: "Draw the paths of a program, optionally with a simulated run, as PNG/SVG/PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := load(args[0])
			if err != nil {
				return err
			}
			p := plot.New()
			p.Title.Text = args[0]
			p.X.Label.Text = "x"
			p.Y.Label.Text = "y"
			if err := addField(p, opts.cfg.Bounds()); err != nil {
				return err
			}
			if err := addArena(p, prog.Arena); err != nil {
				return err
			}
			if withSim {
				run, err := simulate(opts.cfg, prog, so)
				if err != nil {
					tracer().Errorf("simulation: %v", err)
				}
				if err := addRun(p, run); err != nil {
					return err
				}
			}
			p.Legend.Top = true
			if err := p.Save(8*vg.Inch, 6*vg.Inch, out); err != nil {
				return fmt.Errorf("save plot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	so.flags(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "autosim.png", "output file; the extension selects the format")
	cmd.Flags().BoolVarP(&withSim, "simulate", "s", false, "also draw a simulated run")
	return cmd
}

func xys(pts []autopath.Pair) plotter.XYs {
	xy := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xy[i] = plotter.XY{X: pt.X(), Y: pt.Y()}
	}
	return xy
}

func addLine(p *plot.Plot, pts []autopath.Pair, c color.Color, width vg.Length, dashed bool) (*plotter.Line, error) {
	line, err := plotter.NewLine(xys(pts))
	if err != nil {
		return nil, err
	}
	line.Color = c
	line.Width = width
	if dashed {
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	}
	p.Add(line)
	return line, nil
}

func addField(p *plot.Plot, bounds *field.Polygon) error {
	if bounds == nil {
		return nil
	}
	knots := bounds.Knots()
	line, err := addLine(p, append(knots, knots[0]), fieldColor, vg.Points(1), false)
	if err != nil {
		return err
	}
	p.Legend.Add("field", line)
	return nil
}

func addArena(p *plot.Plot, a *graph.Arena) error {
	var line *plotter.Line
	var err error
	a.Walk(func(seg *graph.Segment) bool {
		spline, e := a.Spline(seg.ID)
		if e != nil {
			err = e
			return false
		}
		line, err = addLine(p, spline.Polyline(64), pathColor, vg.Points(1.5), seg.Hidden)
		return err == nil
	})
	if err != nil {
		return err
	}
	if line != nil {
		p.Legend.Add("paths", line)
	}
	var nodes plotter.XYs
	for _, n := range a.Nodes() {
		nodes = append(nodes, plotter.XY{X: n.Pos.X(), Y: n.Pos.Y()})
	}
	scatter, err := plotter.NewScatter(nodes)
	if err != nil {
		return err
	}
	scatter.Color = pathColor
	p.Add(scatter)
	return nil
}

func addRun(p *plot.Plot, run *simRun) error {
	if run.Final != nil && run.Final != run.Plan {
		line, err := addLine(p, run.Final.Polyline(), adjustColor, vg.Points(1), true)
		if err != nil {
			return err
		}
		p.Legend.Add("corrected plan", line)
	}
	if len(run.Rows) < 2 {
		return nil
	}
	pts := make([]autopath.Pair, len(run.Rows))
	for i, r := range run.Rows {
		pts[i] = r.Pose.Pos
	}
	line, err := addLine(p, pts, traceColor, vg.Points(1), false)
	if err != nil {
		return err
	}
	p.Legend.Add("robot", line)
	return nil
}
