package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/planbiir/daytrips/internal/sample"
)

// Distance returns the 3D distance in meters between two fixes: the
// haversine surface distance combined with the altitude difference.
// Either point at (0,0) means "no fix" and yields 0.
func Distance(a, b sample.Location) float64 {
	if !a.HasFix() || !b.HasFix() {
		return 0
	}
	if a.Lat == b.Lat && a.Lon == b.Lon && a.Alt == b.Alt {
		return 0
	}

	horizontal := geo.DistanceHaversine(point(a), point(b))
	vertical := math.Abs(b.Alt - a.Alt)

	return math.Sqrt(horizontal*horizontal + vertical*vertical)
}

// Speed returns meters per second rounded to two decimals, or 0 when
// either argument is non-positive.
func Speed(meters float64, elapsedMillis int64) float64 {
	if meters <= 0 || elapsedMillis <= 0 {
		return 0
	}
	mps := meters / (float64(elapsedMillis) / 1000)
	return math.Round(mps*100) / 100
}

// PathLength sums the leg distances of an ordered trace.
func PathLength(locs []sample.Location) float64 {
	var total float64
	for i := 1; i < len(locs); i++ {
		total += Distance(locs[i-1], locs[i])
	}
	return total
}

// MaxRadius is the largest distance of any fix from the first one.
func MaxRadius(locs []sample.Location) float64 {
	if len(locs) < 2 {
		return 0
	}
	var r float64
	for _, l := range locs[1:] {
		r = math.Max(r, Distance(locs[0], l))
	}
	return r
}

// GyrationRadius is the root mean square distance of locs from ref.
func GyrationRadius(locs []sample.Location, ref sample.Location) float64 {
	if len(locs) == 0 {
		return 0
	}
	var sum float64
	for _, l := range locs {
		d := Distance(ref, l)
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(locs)))
}

func point(l sample.Location) orb.Point {
	return orb.Point{l.Lon, l.Lat}
}
