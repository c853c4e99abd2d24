package graph

import "github.com/npillmayer/autopath"

// DiscreteEvent is a one-shot trigger at a distance along a path.
type DiscreteEvent struct {
	Name     string
	Distance float64
}

// EventSample is a value of a continuous event at a distance.
type EventSample struct {
	Distance float64
	Value    float64
}

// ContinuousEvent is an auxiliary signal along a path, e.g. a mechanism
// setpoint, given by samples ordered by distance.
type ContinuousEvent struct {
	Name    string
	Samples []EventSample
}

// ValueAt interpolates the signal at distance d. Before the first and after
// the last sample the signal holds the boundary value. An event without
// samples is 0 everywhere.
func (e ContinuousEvent) ValueAt(d float64) float64 {
	n := len(e.Samples)
	if n == 0 {
		return 0
	}
	if d <= e.Samples[0].Distance {
		return e.Samples[0].Value
	}
	for i := 1; i < n; i++ {
		a, b := e.Samples[i-1], e.Samples[i]
		if d > b.Distance {
			continue
		}
		span := b.Distance - a.Distance
		if span <= 0 {
			return b.Value
		}
		return autopath.Lerp(a.Value, b.Value, (d-a.Distance)/span)
	}
	return e.Samples[n-1].Value
}

func (e ContinuousEvent) clone() ContinuousEvent {
	c := ContinuousEvent{Name: e.Name, Samples: make([]EventSample, len(e.Samples))}
	copy(c.Samples, e.Samples)
	return c
}

// clampEvents restricts all event distances to [0, length].
func clampEvents(discrete []DiscreteEvent, continuous []ContinuousEvent, length float64) {
	for i := range discrete {
		discrete[i].Distance = autopath.Clamp(0, length, discrete[i].Distance)
	}
	for i := range continuous {
		for j := range continuous[i].Samples {
			s := &continuous[i].Samples[j]
			s.Distance = autopath.Clamp(0, length, s.Distance)
		}
	}
}
