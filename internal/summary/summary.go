package summary

import (
	"math"

	"github.com/planbiir/daytrips/internal/geo"
	"github.com/planbiir/daytrips/internal/sample"
	"github.com/planbiir/daytrips/internal/trip"
)

// ActivityTotals is the time and distance spent in one activity class.
type ActivityTotals struct {
	DurationMillis int64   `json:"duration_ms"`
	DistanceKm     float64 `json:"distance_km"`
	Trips          int     `json:"trips"`
}

// DaySummary reduces a finished trip list. It has no identity of its own
// and is recomputed whenever the trips change.
type DaySummary struct {
	StepsTotal   int64                                 `json:"steps_total"`
	PerActivity  map[sample.ActivityType]ActivityTotals `json:"per_activity"`
	RadiusMeters float64                               `json:"radius_m"`

	BatteryMin sample.Opt[int] `json:"-"`
	BatteryMax sample.Opt[int] `json:"-"`
}

// Aggregate sums steps, per-class duration and distance, and computes the
// gyration radius of the day's fixes around the first fix of the day.
func Aggregate(trips []trip.Trip) DaySummary {
	s := DaySummary{PerActivity: make(map[sample.ActivityType]ActivityTotals)}

	var locs []sample.Location
	for i := range trips {
		t := &trips[i]
		s.StepsTotal += t.Steps

		class := t.Type.Class()
		tot := s.PerActivity[class]
		tot.DurationMillis += t.DurationMillis()
		tot.DistanceKm += t.DistanceMeters / 1000
		tot.Trips++
		s.PerActivity[class] = tot

		locs = append(locs, t.Locations...)
	}

	locs = geo.FilterAccuracy(locs, 0)
	if len(locs) > 0 {
		s.RadiusMeters = geo.GyrationRadius(locs, locs[0])
	}
	return s
}

// WithBattery records the battery range seen over the day.
func (s DaySummary) WithBattery(samples []sample.Battery) DaySummary {
	for _, b := range samples {
		if lo, ok := s.BatteryMin.Get(); !ok || b.Level < lo {
			s.BatteryMin.Set(b.Level)
		}
		if hi, ok := s.BatteryMax.Get(); !ok || b.Level > hi {
			s.BatteryMax.Set(b.Level)
		}
	}
	return s
}

// Totals returns the totals of one class (ON_FOOT counts as WALKING).
func (s DaySummary) Totals(a sample.ActivityType) ActivityTotals {
	return s.PerActivity[a.Class()]
}

// MovingMillis is the time spent in any moving activity.
func (s DaySummary) MovingMillis() int64 {
	var total int64
	for a, tot := range s.PerActivity {
		if a.IsMoving() {
			total += tot.DurationMillis
		}
	}
	return total
}

// RoundKm rounds a distance in kilometers to two decimals for display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
