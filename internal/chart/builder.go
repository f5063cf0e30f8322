package chart

import (
	"sort"

	"github.com/planbiir/daytrips/internal/sample"
)

// Input is the collector's snapshot for one interval.
type Input struct {
	Steps      []sample.Step
	Locations  []sample.Location
	Activities []sample.Activity
}

// Build merges the three sample sequences of [start,end) into one chart
// ordered by time. Ties keep input order: steps, then locations, then
// activities. A non-empty chart gets a closing STILL element at now (when
// now falls inside the interval) or at end-1. An empty input yields a
// two-element chart spanning the interval.
func Build(in Input, start, end, now int64) []Element {
	inside := func(t int64) bool { return t >= start && t < end }

	elems := make([]Element, 0, len(in.Steps)+len(in.Locations)+len(in.Activities)+1)
	for _, s := range in.Steps {
		if inside(s.TimeMillis) {
			elems = append(elems, Element{TimeMillis: s.TimeMillis, Steps: sample.Some(s.CumulativeSteps)})
		}
	}
	for _, l := range in.Locations {
		if inside(l.TimeMillis) {
			elems = append(elems, Element{TimeMillis: l.TimeMillis, Location: sample.Some(l)})
		}
	}
	for _, a := range in.Activities {
		if !inside(a.TimeMillis) {
			continue
		}
		e := Element{TimeMillis: a.TimeMillis}
		if a.Edge == sample.Exit {
			e.Out.Set(a.Type)
		} else {
			e.In.Set(a.Type)
		}
		elems = append(elems, e)
	}

	if len(elems) == 0 {
		return []Element{
			{TimeMillis: start},
			{TimeMillis: end - 1, Out: sample.Some(sample.Still)},
		}
	}

	sort.SliceStable(elems, func(i, j int) bool {
		return elems[i].TimeMillis < elems[j].TimeMillis
	})

	closing := end - 1
	if inside(now) {
		closing = now
	}
	if last := elems[len(elems)-1].TimeMillis; closing < last {
		closing = last
	}
	return append(elems, Element{TimeMillis: closing, Out: sample.Some(sample.Still)})
}
