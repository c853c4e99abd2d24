package track

import (
	"fmt"
	"math"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/hermite"
	"github.com/npillmayer/autopath/plan"
	"gonum.org/v1/gonum/floats"
)

// Params are the free parameters of an adjustment path: the tangent
// magnitudes at the robot (A) and at the rejoin point (B), and the arc
// length S of the rejoin point.
type Params struct {
	A, B, S float64
}

func (prm Params) String() string {
	return fmt.Sprintf("a=%.3f b=%.3f s=%.3f", prm.A, prm.B, prm.S)
}

// Metrics describe the shape of an adjustment path.
type Metrics struct {
	Length  float64
	MaxRate float64 // maximum heading rate per unit of the spline parameter
	AvgRate float64
}

// PlannerParams configure cost function and optimizer.
type PlannerParams struct {
	CostSamples    int     // samples along the adjustment path
	LengthWeight   float64 // cost weight of the length
	MaxRateWeight  float64 // cost weight of the maximum heading rate
	AvgRateWeight  float64 // cost weight of the average heading rate
	SeedSamples    int     // samples of the initial rejoin search
	SeedWindow     float64 // half-width of the rejoin search, fraction of the plan length
	InitialTangent float64 // seed for A and B
	Iterations     int     // gradient descent iterations
	DiffStep       float64 // finite difference step
	StepScale      float64 // gradient descent step scale
	MaxGradient    float64 // clamp for gradient magnitudes
	MaxTangent     float64 // A and B are clamped to [0, MaxTangent]
}

// DefaultPlannerParams returns the standard planner configuration.
func DefaultPlannerParams() PlannerParams {
	return PlannerParams{
		CostSamples:    20,
		LengthWeight:   1,
		MaxRateWeight:  4,
		AvgRateWeight:  2,
		SeedSamples:    10,
		SeedWindow:     0.25,
		InitialTangent: 10,
		Iterations:     100,
		DiffStep:       0.001,
		StepScale:      0.01,
		MaxGradient:    10,
		MaxTangent:     20,
	}
}

// AdjustmentSpline is the corrective piece from pose to the plan at prm.S.
// Both tangents point in the direction of travel.
func AdjustmentSpline(p *plan.Plan, pose autopath.Pose, prm Params) hermite.Spline {
	rejoin := p.SampleAt(prm.S)
	heading := pose.Angle
	if rejoin.Reverse {
		heading += math.Pi
	}
	return hermite.Spline{
		hermite.CP(pose.Pos, autopath.Direction(heading).Scaled(prm.A)),
		hermite.CP(rejoin.Pose.Pos, rejoin.Pose.Heading().Scaled(prm.B)),
	}
}

// AdjustmentPathCost rates an adjustment path by its length and by how
// sharply its heading turns:
//
//	cost = wₗ·length + wₘ·maxRate + wₐ·avgRate
//
// Heading rates are measured between consecutive samples of the spline
// parameter.
func AdjustmentPathCost(p *plan.Plan, pose autopath.Pose, prm Params, pp PlannerParams) (float64, Metrics) {
	spline := AdjustmentSpline(p, pose, prm)
	a, b := spline[0], spline[1]
	n := pp.CostSamples
	if n < 2 {
		n = 2
	}
	step := 1 / float64(n-1)
	var m Metrics
	sum := 0.0
	lastPos, lastAngle := a.Pos, hermite.Tangent(a, b, 0).Angle()
	for i := 1; i < n; i++ {
		t := float64(i) * step
		pos := hermite.Evaluate(a, b, t)
		angle := hermite.Tangent(a, b, t).Angle()
		rate := math.Abs(autopath.ShortestAngleBetween(lastAngle, angle)) / step
		m.Length += lastPos.Distance(pos)
		m.MaxRate = math.Max(m.MaxRate, rate)
		sum += rate
		lastPos, lastAngle = pos, angle
	}
	m.AvgRate = sum / float64(n-1)
	cost := pp.LengthWeight*m.Length + pp.MaxRateWeight*m.MaxRate + pp.AvgRateWeight*m.AvgRate
	return cost, m
}

// Adjustment is the result of OptimizeAdjustmentPath.
type Adjustment struct {
	Params   Params
	Cost     float64
	Metrics  Metrics
	Seed     Params  // parameters before gradient descent
	SeedCost float64 // cost before gradient descent
}

// OptimizeAdjustmentPath searches parameters of an adjustment path from pose
// back onto p. The rejoin point is seeded by sampling a window around the
// closest point, then all parameters are refined by a fixed number of
// gradient descent steps with clamped step sizes.
//
// The optimizer does not check for convergence. It returns the cheapest
// parameters it has seen, which are never worse than the seed.
func OptimizeAdjustmentPath(p *plan.Plan, pose autopath.Pose, tol Tolerance, pp PlannerParams) Adjustment {
	length := p.Length()
	closest := FindClosestPoint(p, pose, tol)
	prm := Params{A: pp.InitialTangent, B: pp.InitialTangent, S: closest.S}
	cost := func(prm Params) float64 {
		c, _ := AdjustmentPathCost(p, pose, prm, pp)
		return c
	}

	lo := autopath.Clamp(0, length, prm.S-length*pp.SeedWindow)
	hi := autopath.Clamp(0, length, prm.S+length*pp.SeedWindow)
	if pp.SeedSamples > 1 {
		ss := floats.Span(make([]float64, pp.SeedSamples), lo, hi)
		costs := make([]float64, len(ss))
		for i, s := range ss {
			costs[i] = cost(Params{A: prm.A, B: prm.B, S: s})
		}
		prm.S = ss[floats.MinIdx(costs)]
	}
	adj := Adjustment{Seed: prm, SeedCost: cost(prm)}
	best, bestCost := prm, adj.SeedCost

	d := pp.DiffStep
	descend := func(x, g float64) float64 {
		return x - pp.StepScale*sign(g)*math.Min(math.Abs(g), pp.MaxGradient)
	}
	current := adj.SeedCost
	for i := 0; i < pp.Iterations; i++ {
		ga := (cost(Params{prm.A + d, prm.B, prm.S}) - current) / d
		gb := (cost(Params{prm.A, prm.B + d, prm.S}) - current) / d
		gs := (cost(Params{prm.A, prm.B, prm.S + d}) - current) / d
		prm.A = autopath.Clamp(0, pp.MaxTangent, descend(prm.A, ga))
		prm.B = autopath.Clamp(0, pp.MaxTangent, descend(prm.B, gb))
		prm.S = autopath.Clamp(0, length, descend(prm.S, gs))
		current = cost(prm)
		if current < bestCost {
			best, bestCost = prm, current
		}
	}
	adj.Params = best
	adj.Cost, adj.Metrics = AdjustmentPathCost(p, pose, best, pp)
	tracer().Infof("adjustment path %s, cost %.4g (seed %.4g)", best, adj.Cost, adj.SeedCost)
	return adj
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
