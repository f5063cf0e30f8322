package chart

import "github.com/planbiir/daytrips/internal/sample"

type verdict int

const (
	stop verdict = iota
	possibly
	expand
)

func ge(o sample.Opt[float64], v float64) bool { x, ok := o.Get(); return ok && x >= v }
func le(o sample.Opt[float64], v float64) bool { x, ok := o.Get(); return ok && x <= v }
func gt(o sample.Opt[float64], v float64) bool { x, ok := o.Get(); return ok && x > v }
func lt(o sample.Opt[float64], v float64) bool { x, ok := o.Get(); return ok && x < v }

func stillOrVehicle(a sample.ActivityType) bool {
	return a == sample.Still || a == sample.InVehicle
}

// allowedToExpand decides whether claim may take over target, which
// currently belongs to yield, elapsedMillis away from the boundary.
func (n *Normalizer) allowedToExpand(claim, yield sample.ActivityType, target *Element, elapsedMillis int64) verdict {
	if target.Tagged() || target.Assigned.Ok() {
		return stop
	}
	if elapsedMillis > n.cfg.ShortActivity.Milliseconds() {
		return stop
	}

	switch {
	case claim.IsWalking() && stillOrVehicle(yield):
		if ge(target.Cadence, n.cfg.WalkingCadence) {
			return expand
		}
		return possibly

	case stillOrVehicle(claim) && yield.IsWalking():
		if le(target.Cadence, n.cfg.StillMaxCadence) {
			return expand
		}
		if gt(target.Cadence, n.cfg.StillStopCadence) {
			return stop
		}
		return possibly

	case stillOrVehicle(claim) && stillOrVehicle(yield) && claim != yield:
		if le(target.Cadence, n.cfg.WalkingCadence) && lt(target.Speed, n.cfg.StationarySpeed) {
			return expand
		}
		return possibly
	}
	return stop
}

// boundary returns the activities ending and starting at e. A missing
// side means nothing was open, which the segmenter treats as STILL.
func boundary(e *Element) (from, to sample.ActivityType) {
	return e.Out.Or(sample.Still), e.In.Or(sample.Still)
}

// expandBoundaries slides every tag toward the neighbors whose cadence and
// speed support the activity on the other side of it. Tentative hops are
// only committed when a later hop confirms them.
func (n *Normalizer) expandBoundaries(elems []Element) int {
	for i := range elems {
		elems[i].Assigned.Clear()
	}

	moved := 0
	for i := range elems {
		e := &elems[i]
		if !e.Tagged() || e.Assigned.Ok() {
			continue
		}
		from, to := boundary(e)
		if from == to {
			continue
		}

		target := n.scan(elems, i, -1, to, from)
		if target < 0 {
			target = n.scan(elems, i, 1, from, to)
		}
		if target < 0 {
			continue
		}

		t := &elems[target]
		t.In, t.Out = e.In, e.Out
		t.Assigned.Set(to)
		e.ClearTags()
		moved++
	}
	return moved
}

func (n *Normalizer) scan(elems []Element, i, step int, claim, yield sample.ActivityType) int {
	best := -1
	for j := i + step; j >= 0 && j < len(elems); j += step {
		elapsed := elems[i].TimeMillis - elems[j].TimeMillis
		if elapsed < 0 {
			elapsed = -elapsed
		}

		v := n.allowedToExpand(claim, yield, &elems[j], elapsed)
		if v == stop {
			break
		}
		if v == expand {
			best = j
		}
	}
	return best
}

// removeSandwiches collapses a short STILL interval bounded by the same
// activity on both sides. Missing sides read as STILL, so a bare EXIT
// followed by a bare ENTER of the same activity counts.
func (n *Normalizer) removeSandwiches(elems []Element) int {
	limit := n.cfg.StillSandwich.Milliseconds()
	count := 0
	for i := range elems {
		open := &elems[i]
		if !open.Tagged() {
			continue
		}
		act, to := boundary(open)
		if act == sample.Still || to != sample.Still {
			continue
		}

		k := nextTagged(elems, i)
		if k < 0 {
			continue
		}
		closing := &elems[k]
		from, resumed := boundary(closing)
		if from == sample.Still && resumed == act && closing.TimeMillis-open.TimeMillis < limit {
			open.ClearTags()
			closing.ClearTags()
			count++
		}
	}
	return count
}

func nextTagged(elems []Element, i int) int {
	for k := i + 1; k < len(elems); k++ {
		if elems[k].Tagged() {
			return k
		}
	}
	return -1
}

// splitUnreasonable closes a moving activity at the start of a silent gap
// longer than UnreasonableGapFactor*ShortActivity and reopens it after the
// gap. The gap itself becomes UNKNOWN. When the gap starts right at a tag,
// the close goes on an inserted element at the same instant so the tag
// survives.
func (n *Normalizer) splitUnreasonable(elems []Element) ([]Element, int) {
	limit := int64(n.cfg.UnreasonableGapFactor * float64(n.cfg.ShortActivity.Milliseconds()))
	count := 0

	out := make([]Element, 0, len(elems))
	current := sample.Still
	for i := range elems {
		e := &elems[i]
		tagged := e.Tagged()
		if tagged {
			_, current = boundary(e)
		}
		out = append(out, *e)

		if i+1 == len(elems) {
			break
		}
		next := &elems[i+1]
		if !current.IsMoving() || next.Tagged() || next.TimeMillis-e.TimeMillis <= limit {
			continue
		}

		if tagged {
			out = append(out, Element{
				TimeMillis: e.TimeMillis,
				Out:        sample.Some(current),
				In:         sample.Some(sample.Unknown),
			})
		} else {
			last := &out[len(out)-1]
			last.Out.Set(current)
			last.In.Set(sample.Unknown)
		}
		next.Out.Set(sample.Unknown)
		next.In.Set(current)
		count++
	}
	return out, count
}
