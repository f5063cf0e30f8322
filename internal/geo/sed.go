package geo

import (
	"container/heap"
	"math"
	"sort"

	"github.com/planbiir/daytrips/internal/sample"
)

// SimplifySED keeps ceil(keepRatio*n) points of the trace, choosing the
// ones with the largest Synchronous Euclidean Distance. Each interior point
// is scored when its successor arrives, against the time-interpolated
// position between its predecessor and successor. The reservoir is bounded:
// once full, a new candidate evicts the lowest-scored point only if it
// scores higher. First and last points are always kept. Traces shorter than
// minPoints are returned unchanged (as a copy).
func SimplifySED(locs []sample.Location, keepRatio float64, minPoints int) []sample.Location {
	n := len(locs)
	if n < minPoints || n < 3 || keepRatio >= 1 {
		out := make([]sample.Location, n)
		copy(out, locs)
		return out
	}

	capacity := int(math.Ceil(keepRatio*float64(n))) - 2
	if capacity < 0 {
		capacity = 0
	}

	res := make(reservoir, 0, capacity)
	for k := 2; k < n; k++ {
		idx := k - 1
		c := candidate{idx: idx, sed: SED(locs[k-2], locs[idx], locs[k])}

		switch {
		case capacity == 0:
		case len(res) < capacity:
			heap.Push(&res, c)
		case c.sed > res[0].sed:
			res[0] = c
			heap.Fix(&res, 0)
		}
	}

	kept := make([]int, 0, len(res)+2)
	for _, c := range res {
		kept = append(kept, c.idx)
	}
	sort.Ints(kept)

	out := make([]sample.Location, 0, len(kept)+2)
	out = append(out, locs[0])
	for _, idx := range kept {
		out = append(out, locs[idx])
	}
	out = append(out, locs[n-1])
	return out
}

// SED is the distance between p and the position interpolated at p's time
// on the straight line from a to b.
func SED(a, p, b sample.Location) float64 {
	ratio := 0.5
	if span := b.TimeMillis - a.TimeMillis; span > 0 {
		ratio = float64(p.TimeMillis-a.TimeMillis) / float64(span)
		ratio = math.Max(0, math.Min(1, ratio))
	}

	expected := sample.Location{
		TimeMillis: p.TimeMillis,
		Lat:        a.Lat + (b.Lat-a.Lat)*ratio,
		Lon:        a.Lon + (b.Lon-a.Lon)*ratio,
		Alt:        a.Alt + (b.Alt-a.Alt)*ratio,
	}
	return Distance(expected, p)
}

type candidate struct {
	idx int
	sed float64
}

// reservoir is a min-heap on sed.
type reservoir []candidate

func (r reservoir) Len() int { return len(r) }
func (r reservoir) Less(i, j int) bool {
	if r[i].sed == r[j].sed {
		return r[i].idx > r[j].idx
	}
	return r[i].sed < r[j].sed
}
func (r reservoir) Swap(i, j int) { r[i], r[j] = r[j], r[i] }

func (r *reservoir) Push(x any) { *r = append(*r, x.(candidate)) }

func (r *reservoir) Pop() any {
	old := *r
	c := old[len(old)-1]
	*r = old[:len(old)-1]
	return c
}
