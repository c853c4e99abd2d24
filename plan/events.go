package plan

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/autopath/graph"
)

// EventSchedule orders discrete events by distance.
type EventSchedule struct {
	tree *treemap.Map // distance → []graph.DiscreteEvent
	size int
}

// NewEventSchedule creates an empty schedule.
func NewEventSchedule() *EventSchedule {
	return &EventSchedule{tree: treemap.NewWith(utils.Float64Comparator)}
}

// Add schedules an event at its distance.
func (sch *EventSchedule) Add(ev graph.DiscreteEvent) {
	var evs []graph.DiscreteEvent
	if v, found := sch.tree.Get(ev.Distance); found {
		evs = v.([]graph.DiscreteEvent)
	}
	sch.tree.Put(ev.Distance, append(evs, ev))
	sch.size++
}

// Len is the number of events.
func (sch *EventSchedule) Len() int {
	return sch.size
}

// Between returns the events with lo < distance ≤ hi, ordered by distance.
// Events at distance 0 are included for lo < 0.
func (sch *EventSchedule) Between(lo, hi float64) []graph.DiscreteEvent {
	var evs []graph.DiscreteEvent
	it := sch.tree.Iterator()
	for it.Next() {
		d := it.Key().(float64)
		if d <= lo {
			continue
		}
		if d > hi {
			break
		}
		evs = append(evs, it.Value().([]graph.DiscreteEvent)...)
	}
	return evs
}

// All returns all events ordered by distance.
func (sch *EventSchedule) All() []graph.DiscreteEvent {
	var evs []graph.DiscreteEvent
	for _, v := range sch.tree.Values() {
		evs = append(evs, v.([]graph.DiscreteEvent)...)
	}
	return evs
}
