package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/graph"
	"github.com/npillmayer/autopath/hermite"
	"github.com/spf13/cobra"
)

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect program.yaml",
		Short: "Print segments, their lengths and times, and node commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := load(args[0])
			if err != nil {
				return err
			}
			return inspect(cmd.OutOrStdout(), prog.Arena)
		},
	}
}

func inspect(w io.Writer, a *graph.Arena) error {
	start, err := a.Node(a.Start())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "arena %s\nstart %s heading %.1f°\n", a.ID, start.Pos, a.StartAngle/autopath.Deg2Rad)
	printCommands(w, start)
	total, totalTime := 0.0, 0.0
	var failed error
	a.Walk(func(seg *graph.Segment) bool {
		var flags []string
		if seg.Reverse {
			flags = append(flags, "reverse")
		}
		if seg.Hidden {
			flags = append(flags, "hidden")
		}
		if seg.Conditional != "" {
			flags = append(flags, "if "+seg.Conditional)
		}
		fmt.Fprintf(w, "\nsegment %d: node %d → node %d  length %.3f  time %.3fs  %s\n",
			seg.ID, seg.In, seg.Out, seg.Length(), seg.Time(), strings.Join(flags, ", "))
		spline, err := a.Spline(seg.ID)
		if err != nil {
			failed = err
			return false
		}
		fmt.Fprintf(w, "  %s\n", hermite.AsString(spline))
		fmt.Fprintf(w, "  velocity %s\n", seg.Velocity())
		for _, ev := range seg.DiscreteEvents() {
			fmt.Fprintf(w, "  event %q at %.3f\n", ev.Name, ev.Distance)
		}
		for _, ev := range seg.ContinuousEvents() {
			fmt.Fprintf(w, "  signal %q with %d samples\n", ev.Name, len(ev.Samples))
		}
		if n, err := a.Node(seg.Out); err == nil {
			printCommands(w, n)
		}
		total += seg.Length()
		totalTime += seg.Time()
		return true
	})
	if failed != nil {
		return failed
	}
	fmt.Fprintf(w, "\n%d segments, %.3f total length, %.3fs total time\n", len(a.Segments()), total, totalTime)
	return nil
}

func printCommands(w io.Writer, n *graph.Node) {
	for _, cmd := range n.Commands {
		guard := ""
		if g := cmd.Conditional(); g != "" {
			guard = " if " + g
		}
		switch c := cmd.(type) {
		case *graph.PivotCommand:
			fmt.Fprintf(w, "  node %d: %s (%.3fs)%s\n", n.ID, c, c.Duration(), guard)
		default:
			fmt.Fprintf(w, "  node %d: %s%s\n", n.ID, c, guard)
		}
	}
}
