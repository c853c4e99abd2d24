/*
Package program reads autonomous programs described in YAML and builds the
path graph for them.

A program starts at a pose and branches out in a tree of paths:

	start: {x: 0, y: 0, heading_deg: 0}
	paths:
	  - name: shoot
	    to: {x: 10, y: 0}
	    control_points:
	      - {x: 5, y: 1}
	    smooth: true
	    events:
	      - {name: spin-up, distance: 2}
	    commands:
	      - {kind: wait, duration: 0.5}
	    paths:
	      - to: {x: 10, y: 8}
	        reverse: true

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package program

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/graph"
	"github.com/npillmayer/autopath/hermite"
	"github.com/npillmayer/autopath/velocity"
	"github.com/npillmayer/schuko/tracing"
	"gopkg.in/yaml.v3"
)

// tracer writes to trace with key 'autopath.program'
func tracer() tracing.Trace {
	return tracing.Select("autopath.program")
}

// Errors returned when reading or building programs.
var (
	ErrInvalidProgram = errors.New("invalid program")
	ErrUnknownNode    = errors.New("no node with this name")
)

// === Description ===========================================================

// Point is a position or tangent.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Pair converts p.
func (p Point) Pair() autopath.Pair {
	return autopath.P(p.X, p.Y)
}

// Start is the pose the robot starts at.
type Start struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	HeadingDeg float64 `yaml:"heading_deg"`
}

// Pose converts s.
func (s Start) Pose() autopath.Pose {
	return autopath.Pose{Pos: autopath.P(s.X, s.Y), Angle: autopath.CanonicalizeAngle(s.HeadingDeg * autopath.Deg2Rad)}
}

// ControlPoint is an interior knot of a path. Without a tangent, the
// tangent is chosen for a smooth curve through the knots.
type ControlPoint struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Tangent *Point  `yaml:"tangent"`
}

// Tangents optionally override the tangents at both ends of a path.
type Tangents struct {
	In  *Point `yaml:"in"`
	Out *Point `yaml:"out"`
}

// Event is a discrete event along a path.
type Event struct {
	Name     string  `yaml:"name" validate:"required"`
	Distance float64 `yaml:"distance" validate:"gte=0"`
}

// Signal is a continuous event along a path.
type Signal struct {
	Name    string              `yaml:"name" validate:"required"`
	Samples []graph.EventSample `yaml:"samples" validate:"min=1"`
}

// Command is one command executed at the end of a path, or at the start.
// Kind selects which of the other fields apply.
type Command struct {
	Kind      string    `yaml:"kind" validate:"oneof=generic wait pivot"`
	Guard     string    `yaml:"guard"`
	Name      string    `yaml:"name" validate:"required_if=Kind generic"`
	Params    []float64 `yaml:"params"`
	Duration  float64   `yaml:"duration" validate:"gte=0"`
	StartDeg  float64   `yaml:"start_deg"`
	EndDeg    float64   `yaml:"end_deg"`
	Clockwise bool      `yaml:"clockwise"`
}

// Path leads from the end of its parent (or the start) to To.
type Path struct {
	Name          string               `yaml:"name"`
	To            *Point               `yaml:"to" validate:"required"`
	ControlPoints []ControlPoint       `yaml:"control_points"`
	Tangents      Tangents             `yaml:"tangents"`
	Smooth        bool                 `yaml:"smooth"`
	Reverse       bool                 `yaml:"reverse"`
	Hidden        bool                 `yaml:"hidden"`
	Guard         string               `yaml:"guard"`
	Velocity      []velocity.Datapoint `yaml:"velocity" validate:"omitempty,min=2"`
	Events        []Event              `yaml:"events" validate:"dive"`
	Signals       []Signal             `yaml:"signals" validate:"dive"`
	Commands      []Command            `yaml:"commands" validate:"dive"`
	Paths         []Path               `yaml:"paths" validate:"dive"`
}

// Description is a complete program as read from YAML.
type Description struct {
	Start    Start     `yaml:"start"`
	Exponent int       `yaml:"exponent" validate:"omitempty,min=1,max=16"`
	Commands []Command `yaml:"commands" validate:"dive"`
	Paths    []Path    `yaml:"paths" validate:"min=1,dive"`
}

// Read decodes and validates a description. Unknown keys are rejected.
func Read(r io.Reader) (*Description, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	desc := &Description{}
	if err := dec.Decode(desc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty program", ErrInvalidProgram)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidProgram, err)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

// ReadFile reads a description from a file.
func ReadFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the description. Path names must be unique.
func (desc *Description) Validate() error {
	if err := validate.Struct(desc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProgram, err)
	}
	names := make(map[string]bool)
	var check func(paths []Path) error
	check = func(paths []Path) error {
		for _, p := range paths {
			if p.Name != "" {
				if names[p.Name] {
					return fmt.Errorf("%w: duplicate path name %q", ErrInvalidProgram, p.Name)
				}
				names[p.Name] = true
			}
			if err := check(p.Paths); err != nil {
				return err
			}
		}
		return nil
	}
	return check(desc.Paths)
}

// === Building ==============================================================

// Program is a built path graph, with the names of its nodes.
type Program struct {
	Arena *graph.Arena
	Nodes map[string]graph.NodeID // out-nodes of named paths
}

// Build creates the path graph of a description. Paths are added depth
// first in the order given.
func (desc *Description) Build() (*Program, error) {
	start := desc.Start.Pose()
	arena := graph.NewArena(start.Pos, start.Angle)
	if desc.Exponent != 0 {
		arena.SampleExponent = desc.Exponent
	}
	prog := &Program{Arena: arena, Nodes: make(map[string]graph.NodeID)}
	if err := prog.addCommands(arena.Start(), desc.Commands); err != nil {
		return nil, err
	}
	for i := range desc.Paths {
		if err := prog.addPath(arena.Start(), &desc.Paths[i]); err != nil {
			return nil, err
		}
	}
	tracer().Infof("program built: %d segments", len(arena.Segments()))
	return prog, nil
}

func (prog *Program) addPath(from graph.NodeID, p *Path) error {
	a := prog.Arena
	id, err := a.AddPath(from, p.To.Pair())
	if err != nil {
		return prog.wrap(p, err)
	}
	for i, cp := range p.ControlPoints {
		pos := autopath.P(cp.X, cp.Y)
		tangent := autopath.Origin
		if cp.Tangent != nil {
			tangent = cp.Tangent.Pair()
		}
		if err := a.InsertControlPoint(id, i, hermite.CP(pos, tangent)); err != nil {
			return prog.wrap(p, err)
		}
	}
	n := len(p.ControlPoints)
	if p.Tangents.In != nil {
		if err := a.SetTangent(id, 0, p.Tangents.In.Pair()); err != nil {
			return prog.wrap(p, err)
		}
	}
	if p.Tangents.Out != nil {
		if err := a.SetTangent(id, n+1, p.Tangents.Out.Pair()); err != nil {
			return prog.wrap(p, err)
		}
	}
	if err := prog.smooth(id, p); err != nil {
		return prog.wrap(p, err)
	}
	if len(p.Velocity) > 0 {
		if err := a.SetVelocity(id, velocity.Profile(p.Velocity)); err != nil {
			return prog.wrap(p, err)
		}
	}
	for _, ev := range p.Events {
		if err := a.AddDiscreteEvent(id, graph.DiscreteEvent{Name: ev.Name, Distance: ev.Distance}); err != nil {
			return prog.wrap(p, err)
		}
	}
	for _, sig := range p.Signals {
		ev := graph.ContinuousEvent{Name: sig.Name, Samples: sig.Samples}
		if err := a.AddContinuousEvent(id, ev); err != nil {
			return prog.wrap(p, err)
		}
	}
	seg := a.MustSegment(id)
	seg.Reverse = p.Reverse
	seg.Hidden = p.Hidden
	seg.Conditional = p.Guard
	if p.Name != "" {
		prog.Nodes[p.Name] = seg.Out
	}
	if err := prog.addCommands(seg.Out, p.Commands); err != nil {
		return prog.wrap(p, err)
	}
	for i := range p.Paths {
		if err := prog.addPath(seg.Out, &p.Paths[i]); err != nil {
			return err
		}
	}
	return nil
}

// smooth computes interior tangents. With smooth set, all of them are
// replaced, otherwise only those left out in the description.
func (prog *Program) smooth(id graph.SegmentID, p *Path) error {
	missing := false
	for _, cp := range p.ControlPoints {
		missing = missing || cp.Tangent == nil
	}
	if !p.Smooth && !missing {
		return nil
	}
	if err := prog.Arena.SmoothTangents(id); err != nil {
		return err
	}
	if p.Smooth {
		return nil
	}
	for i, cp := range p.ControlPoints {
		if cp.Tangent != nil {
			if err := prog.Arena.SetTangent(id, i+1, cp.Tangent.Pair()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (prog *Program) addCommands(node graph.NodeID, cmds []Command) error {
	for _, c := range cmds {
		var cmd graph.Command
		switch c.Kind {
		case "generic":
			cmd = &graph.GenericCommand{Name: c.Name, Params: c.Params, Guard: c.Guard}
		case "wait":
			cmd = &graph.WaitCommand{Duration: c.Duration, Guard: c.Guard}
		case "pivot":
			pivot := graph.NewPivot(c.StartDeg*autopath.Deg2Rad, c.EndDeg*autopath.Deg2Rad, c.Clockwise,
				prog.Arena.SampleExponent)
			pivot.Guard = c.Guard
			cmd = pivot
		default:
			return fmt.Errorf("%w: unknown command kind %q", ErrInvalidProgram, c.Kind)
		}
		if err := prog.Arena.AddCommand(node, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (prog *Program) wrap(p *Path, err error) error {
	name := p.Name
	if name == "" {
		name = p.To.Pair().String()
	}
	return fmt.Errorf("path %s: %w", name, err)
}

// Chain returns the segments leading from the start to the end of the named
// path. An empty name selects the main branch: the first path of every node.
func (prog *Program) Chain(name string) ([]graph.SegmentID, error) {
	if name == "" {
		return prog.Arena.Branch(prog.Arena.Start())
	}
	node, ok := prog.Nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return prog.Arena.PathTo(node)
}
