package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/planbiir/daytrips/internal/sample"
)

// RemoveSpikes returns a copy of locs where every middle point of a
// spike triplet is moved to the midpoint of its neighbors. A triplet is a
// spike when the direct distance between the outer points is less than
// half the sum of the two legs. The pass repeats up to maxPasses times or
// until no spike is left.
func RemoveSpikes(locs []sample.Location, maxPasses int) []sample.Location {
	out := make([]sample.Location, len(locs))
	copy(out, locs)
	if len(out) < 3 {
		return out
	}

	for pass := 0; pass < maxPasses; pass++ {
		replaced := 0
		for i := 1; i < len(out)-1; i++ {
			prev, curr, next := out[i-1], out[i], out[i+1]
			if !prev.HasFix() || !curr.HasFix() || !next.HasFix() {
				continue
			}

			base := Distance(prev, next)
			legs := Distance(prev, curr) + Distance(curr, next)
			if 2*base < legs {
				out[i] = midpoint(prev, next, curr)
				replaced++
			}
		}
		if replaced == 0 {
			break
		}
	}
	return out
}

// midpoint keeps the time and accuracy of at.
func midpoint(a, b, at sample.Location) sample.Location {
	at.Lat = (a.Lat + b.Lat) / 2
	at.Lon = (a.Lon + b.Lon) / 2
	at.Alt = (a.Alt + b.Alt) / 2
	return at
}

// FilterAccuracy drops fixes without a position and fixes whose reported
// accuracy is worse than maxAccuracy. Unknown accuracy (0) is kept.
func FilterAccuracy(locs []sample.Location, maxAccuracy float64) []sample.Location {
	out := make([]sample.Location, 0, len(locs))
	for _, l := range locs {
		if !l.HasFix() {
			continue
		}
		if maxAccuracy > 0 && l.Accuracy > maxAccuracy {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Centroid averages the positions of locs. The result takes the time of
// the first fix and the mean accuracy.
func Centroid(locs []sample.Location) sample.Location {
	if len(locs) == 0 {
		return sample.Location{}
	}

	mp := make(orb.MultiPoint, 0, len(locs))
	var alt, acc float64
	for _, l := range locs {
		mp = append(mp, point(l))
		alt += l.Alt
		acc += l.Accuracy
	}
	c, _ := planar.CentroidArea(mp)
	n := float64(len(locs))

	return sample.Location{
		TimeMillis: locs[0].TimeMillis,
		Lat:        c.Lat(),
		Lon:        c.Lon(),
		Alt:        alt / n,
		Accuracy:   acc / n,
	}
}

// StayPoints collapses runs of fixes that stay within maxDistance of the
// run's first fix. Runs larger than minSize become one centroid; shorter
// runs are kept point by point.
func StayPoints(locs []sample.Location, maxDistance float64, minSize int) []sample.Location {
	out := make([]sample.Location, 0, len(locs))
	for i := 0; i < len(locs); {
		j := i + 1
		for j < len(locs) && Distance(locs[i], locs[j]) <= maxDistance {
			j++
		}

		cluster := locs[i:j]
		if len(cluster) > minSize {
			out = append(out, Centroid(cluster))
		} else {
			out = append(out, cluster...)
		}
		i = j
	}
	return out
}
