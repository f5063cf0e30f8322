package chart

import (
	"log/slog"

	"github.com/planbiir/daytrips/internal/config"
	"github.com/planbiir/daytrips/internal/geo"
	"github.com/planbiir/daytrips/internal/sample"
)

// Normalizer repairs a freshly built chart. It owns the chart exclusively
// until Normalize returns.
type Normalizer struct {
	cfg    config.Tunables
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil logger uses slog.Default().
func NewNormalizer(cfg config.Tunables, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{cfg: cfg.Normalize(), logger: logger}
}

// Normalize runs every pass in order over the whole chart and returns the
// repaired chart. The returned slice may share storage with elems.
func (n *Normalizer) Normalize(elems []Element) []Element {
	if len(elems) == 0 {
		return elems
	}

	StepDeltas(elems)
	elems = n.fuse(elems)
	CloseOpenActivities(elems)
	propagate(elems)
	moved := n.expandBoundaries(elems)
	sandwiches := n.removeSandwiches(elems)
	elems, splits := n.splitUnreasonable(elems)
	degenerate := removeDegenerate(elems)

	n.logger.Debug("chart normalized",
		"elements", len(elems),
		"moved_tags", moved,
		"still_sandwiches", sandwiches,
		"gap_splits", splits,
		"degenerate", degenerate)
	return elems
}

// StepDeltas turns cumulative step counts into per-interval deltas. A
// count lower than its predecessor means the counter restarted, so the
// raw value is the delta. The first sample has no predecessor and
// contributes 0.
func StepDeltas(elems []Element) {
	var prev sample.Opt[int32]
	for i := range elems {
		raw, ok := elems[i].Steps.Get()
		if !ok {
			continue
		}

		var delta int32
		if p, ok := prev.Get(); ok {
			if raw >= p {
				delta = raw - p
			} else {
				delta = raw
			}
		}
		if delta < 0 {
			delta = 0
		}

		elems[i].Steps.Set(delta)
		prev.Set(raw)
	}
}

func sameSecond(a, b int64) bool {
	return (a+500)/1000 == (b+500)/1000
}

// fuse merges elements that round to the same second (first writer wins
// per field) and folds lone fixes into a nearby activity-only neighbor.
func (n *Normalizer) fuse(elems []Element) []Element {
	out := elems[:0]
	for _, e := range elems {
		if len(out) > 0 && sameSecond(out[len(out)-1].TimeMillis, e.TimeMillis) {
			out[len(out)-1].absorb(e)
			continue
		}
		out = append(out, e)
	}

	window := n.cfg.StepSamplingPeriod.Milliseconds() * 3 / 2
	folded := out[:0]
	for i := 0; i < len(out); i++ {
		e := out[i]
		if !e.LocationOnly() {
			folded = append(folded, e)
			continue
		}

		target := -1
		best := window + 1
		if len(folded) > 0 {
			p := &folded[len(folded)-1]
			if d := e.TimeMillis - p.TimeMillis; p.ActivityOnly() && d <= window && d < best {
				target, best = len(folded)-1, d
			}
		}
		if i+1 < len(out) {
			nx := &out[i+1]
			if d := nx.TimeMillis - e.TimeMillis; nx.ActivityOnly() && d <= window && d < best {
				target = -2
			}
		}

		switch target {
		case -1:
			folded = append(folded, e)
		case -2:
			out[i+1].Location = e.Location
		default:
			folded[target].Location = e.Location
		}
	}
	return folded
}

// CloseOpenActivities makes every ENTER close whatever activity is still
// open, and makes every EXIT close the activity actually open. A tag
// pair that opens and closes the same activity is dropped.
func CloseOpenActivities(elems []Element) {
	var open sample.Opt[sample.ActivityType]
	for i := range elems {
		e := &elems[i]
		out, hasOut := e.Out.Get()
		in, hasIn := e.In.Get()

		if o, isOpen := open.Get(); isOpen {
			if hasOut && out != o {
				e.Out.Set(o)
			}
			if hasIn && !hasOut {
				e.Out.Set(o)
			}
		}

		switch {
		case hasIn:
			open.Set(in)
		case hasOut:
			open.Clear()
		}

		if e.In.Same(e.Out) {
			e.ClearTags()
		}
	}
}

// propagate derives cadence and speed where step and location samples
// exist, then carries each value back over the elements before it up to
// the previous sample.
func propagate(elems []Element) {
	var prevStep int64 = -1
	var prevLoc sample.Opt[sample.Location]

	for i := range elems {
		e := &elems[i]
		if steps, ok := e.Steps.Get(); ok {
			cadence := 0.0
			if prevStep >= 0 && e.TimeMillis > prevStep {
				cadence = float64(steps) / (float64(e.TimeMillis-prevStep) / 60000)
			}
			e.Cadence.Set(cadence)
			prevStep = e.TimeMillis
		}

		if loc, ok := e.Location.Get(); ok {
			dist, speed := 0.0, 0.0
			if p, ok := prevLoc.Get(); ok {
				dist = geo.Distance(p, loc)
				speed = geo.Speed(dist, loc.TimeMillis-p.TimeMillis)
			}
			e.Distance.Set(dist)
			e.Speed.Set(speed)
			prevLoc.Set(loc)
		}
	}

	var cadence, speed sample.Opt[float64]
	for i := len(elems) - 1; i >= 0; i-- {
		e := &elems[i]
		if e.Steps.Ok() {
			cadence = e.Cadence
		} else {
			e.Cadence = cadence
		}
		if e.Location.Ok() {
			speed = e.Speed
		} else {
			e.Speed = speed
		}
	}
}

// removeDegenerate clears zero-duration tags where an activity opens and
// closes on the same element.
func removeDegenerate(elems []Element) int {
	count := 0
	for i := range elems {
		if elems[i].In.Same(elems[i].Out) {
			elems[i].ClearTags()
			count++
		}
	}
	return count
}
