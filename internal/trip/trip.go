package trip

import (
	"time"

	"github.com/google/uuid"

	"github.com/planbiir/daytrips/internal/chart"
	"github.com/planbiir/daytrips/internal/config"
	"github.com/planbiir/daytrips/internal/geo"
	"github.com/planbiir/daytrips/internal/sample"
)

// Trip is a contiguous chart span with one activity type. Consecutive
// trips share their boundary index: one ends where the next starts.
type Trip struct {
	ID    uuid.UUID           `json:"id"`
	Start int                 `json:"-"`
	End   int                 `json:"-"`
	Type  sample.ActivityType `json:"activity"`

	StartMillis int64 `json:"start_ms"`
	EndMillis   int64 `json:"end_ms"`

	Steps          int64   `json:"steps"`
	DistanceMeters float64 `json:"distance_m"`
	RadiusMeters   float64 `json:"radius_m"`
	Reliable       bool    `json:"reliable"`

	// Locations is a cleaned copy; it never aliases chart fixes.
	Locations []sample.Location `json:"locations,omitempty"`
}

// DurationMillis is the time spanned by the trip.
func (t *Trip) DurationMillis() int64 {
	return t.EndMillis - t.StartMillis
}

func (t *Trip) Duration() time.Duration {
	return time.Duration(t.DurationMillis()) * time.Millisecond
}

// Cadence is the average steps per minute over the trip.
func (t *Trip) Cadence() float64 {
	if t.DurationMillis() <= 0 {
		return 0
	}
	return float64(t.Steps) / (float64(t.DurationMillis()) / 60000)
}

// AverageSpeed is the trip distance over its duration in m/s.
func (t *Trip) AverageSpeed() float64 {
	return geo.Speed(t.DistanceMeters, t.DurationMillis())
}

// Timeline binds a trip list to the normalized chart it was cut from. The
// trips reference the chart by index and must not outlive it.
type Timeline struct {
	Chart    []chart.Element
	Trips    []Trip
	DayStart int64

	cfg config.Tunables
}

// NewTimeline segments a normalized chart and measures every trip.
func NewTimeline(elems []chart.Element, dayStart int64, cfg config.Tunables) *Timeline {
	tl := &Timeline{
		Chart:    elems,
		Trips:    Segment(elems),
		DayStart: dayStart,
		cfg:      cfg.Normalize(),
	}
	for i := range tl.Trips {
		tl.measure(&tl.Trips[i])
		tl.flagSuspicious(&tl.Trips[i])
	}
	return tl
}

// Segment cuts the chart at every tagged element. The first trip starts at
// index 0 as STILL; a closing tag types the trip it ends with its EXIT
// activity, otherwise the trip keeps the activity it was opened with.
// When the first tag of the day has no EXIT side the day started inside
// that activity, so the first trip takes its ENTER activity instead.
// A tag on the first element closes a zero-length STILL trip, which
// AnchorMidnight later stretches back to the start of the day.
func Segment(elems []chart.Element) []Trip {
	if len(elems) == 0 {
		return nil
	}

	cur := Trip{Start: 0, Type: sample.Still}
	var trips []Trip
	for i := 0; i < len(elems); i++ {
		e := &elems[i]
		if !e.Tagged() {
			continue
		}
		cur.End = i
		if out, ok := e.Out.Get(); ok {
			cur.Type = out
		} else if in, ok := e.In.Get(); ok && len(trips) == 0 && i > 0 {
			cur.Type = in
		}
		trips = append(trips, cur)
		cur = Trip{Start: i, Type: e.In.Or(sample.Still)}
	}

	last := len(elems) - 1
	if cur.Start < last || len(trips) == 0 {
		cur.End = last
		trips = append(trips, cur)
	}
	return trips
}

// firstOwned is the first chart index whose data belongs to t. The
// boundary element's data belongs to the trip it ends.
func firstOwned(t *Trip) int {
	if t.Start == 0 {
		return 0
	}
	return t.Start + 1
}

func (tl *Timeline) traceOptions(simplify bool) geo.TraceOptions {
	return geo.TraceOptions{
		MaxAccuracy:  tl.cfg.MaxAccuracy,
		SpikePasses:  tl.cfg.SpikePasses,
		Simplify:     simplify,
		SEDKeepRatio: tl.cfg.SEDKeepRatio,
		SEDMinPoints: tl.cfg.SEDMinPoints,
	}
}

// rawLocations returns copies of the fixes owned by t.
func (tl *Timeline) rawLocations(t *Trip) []sample.Location {
	var locs []sample.Location
	for k := firstOwned(t); k <= t.End; k++ {
		if l, ok := tl.Chart[k].Location.Get(); ok {
			locs = append(locs, l)
		}
	}
	return locs
}

// measure recomputes times, steps and the cleaned trace of t.
func (tl *Timeline) measure(t *Trip) {
	t.StartMillis = tl.Chart[t.Start].TimeMillis
	t.EndMillis = tl.Chart[t.End].TimeMillis

	t.Steps = 0
	for k := firstOwned(t); k <= t.End; k++ {
		t.Steps += int64(tl.Chart[k].Steps.Or(0))
	}

	t.Locations = geo.CleanTrace(tl.rawLocations(t), tl.traceOptions(false))
	t.DistanceMeters = geo.PathLength(t.Locations)
	t.RadiusMeters = geo.MaxRadius(t.Locations)
}

// flagSuspicious marks vehicle and bicycle trips whose radius is too small
// for the activity. Trips without at least two fixes carry no evidence.
func (tl *Timeline) flagSuspicious(t *Trip) {
	t.Reliable = true
	if len(t.Locations) < 2 {
		return
	}
	switch t.Type {
	case sample.InVehicle:
		t.Reliable = t.RadiusMeters >= tl.cfg.MinVehicleRadius
	case sample.OnBicycle:
		t.Reliable = t.RadiusMeters >= tl.cfg.MinBicycleRadius
	}
}

// Locations returns the finalized fixes of all trips in order.
func (tl *Timeline) Locations() []sample.Location {
	var locs []sample.Location
	for i := range tl.Trips {
		locs = append(locs, tl.Trips[i].Locations...)
	}
	return locs
}
