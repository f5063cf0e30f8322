package trip

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/planbiir/daytrips/internal/geo"
	"github.com/planbiir/daytrips/internal/sample"
)

// compatible reports whether two trips may be merged into one.
func (c *Classifier) compatible(a, b *Trip) bool {
	if a.Type == b.Type {
		return true
	}
	pair := func(x, y sample.ActivityType) bool {
		return (a.Type == x && b.Type == y) || (a.Type == y && b.Type == x)
	}
	if pair(sample.Walking, sample.OnFoot) || pair(sample.Running, sample.OnFoot) {
		return true
	}
	if a.Type.IsWalking() && b.Type.IsWalking() {
		return a.DurationMillis() < c.short() || b.DurationMillis() < c.short()
	}
	return false
}

// Compact merges neighbors of compatible type, bridging over a single trip
// shorter than the short-activity threshold. The merged trip takes the
// type with the longest total duration among its parts.
func (c *Classifier) Compact(tl *Timeline) {
	if len(tl.Trips) < 2 {
		return
	}

	out := make([]Trip, 0, len(tl.Trips))
	for i := 0; i < len(tl.Trips); {
		group := []Trip{tl.Trips[i]}
		anchor := &tl.Trips[i]

		j := i + 1
		for j < len(tl.Trips) {
			next := &tl.Trips[j]
			if c.compatible(anchor, next) {
				group = append(group, *next)
				anchor = next
				j++
				continue
			}
			if j+1 < len(tl.Trips) && next.DurationMillis() < c.short() && c.compatible(anchor, &tl.Trips[j+1]) {
				group = append(group, *next, tl.Trips[j+1])
				anchor = &tl.Trips[j+1]
				j += 2
				continue
			}
			break
		}

		if len(group) == 1 {
			out = append(out, group[0])
		} else {
			out = append(out, tl.merge(group))
		}
		i = j
	}
	tl.Trips = out
}

func (tl *Timeline) merge(group []Trip) Trip {
	durations := make(map[sample.ActivityType]int64)
	var order []sample.ActivityType
	reliable := true
	for i := range group {
		t := &group[i]
		if _, seen := durations[t.Type]; !seen {
			order = append(order, t.Type)
		}
		durations[t.Type] += t.DurationMillis()
		reliable = reliable && t.Reliable
	}

	best := order[0]
	for _, typ := range order[1:] {
		if durations[typ] > durations[best] {
			best = typ
		}
	}

	merged := Trip{
		Start: group[0].Start,
		End:   group[len(group)-1].End,
		Type:  best,
	}
	tl.measure(&merged)
	merged.Reliable = reliable
	return merged
}

// FinalizeLocations simplifies each trip's trace according to the day
// flags and assigns trip IDs. Traces are rebuilt from the chart first, so
// finalizing twice gives the same result.
func (c *Classifier) FinalizeLocations(tl *Timeline) {
	for i := range tl.Trips {
		t := &tl.Trips[i]
		t.Locations = geo.CleanTrace(tl.rawLocations(t), tl.traceOptions(false))
		switch {
		case t.Type == sample.Still:
			if c.flags.StayPoints && len(t.Locations) > 0 {
				t.Locations = []sample.Location{geo.Centroid(t.Locations)}
			}
		default:
			if c.flags.StayPoints {
				t.Locations = geo.StayPoints(t.Locations, c.cfg.StayPointDistance, c.cfg.StayPointMinSize)
			}
			if c.flags.TripSimplification {
				t.Locations = geo.SimplifySED(t.Locations, c.cfg.SEDKeepRatio, c.cfg.SEDMinPoints)
			}
		}
		t.ID = tripID(t)
	}
}

// tripID is stable for the same span and type so recomputing a day gives
// the same identifiers.
func tripID(t *Trip) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d-%d-%s", t.StartMillis, t.EndMillis, t.Type))
}
