package trip

import (
	"log/slog"

	"github.com/planbiir/daytrips/internal/chart"
	"github.com/planbiir/daytrips/internal/config"
	"github.com/planbiir/daytrips/internal/geo"
	"github.com/planbiir/daytrips/internal/sample"
)

// Classifier removes or reclassifies implausible trips, merges compatible
// neighbors and finalizes each trip's trace.
type Classifier struct {
	cfg    config.Tunables
	flags  config.DayFlags
	logger *slog.Logger
}

// NewClassifier creates a Classifier. A nil logger uses slog.Default().
func NewClassifier(cfg config.Tunables, flags config.DayFlags, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{cfg: cfg.Normalize(), flags: flags, logger: logger}
}

// Correct runs every correction pass over tl in order.
func (c *Classifier) Correct(tl *Timeline) {
	if len(tl.Trips) == 0 {
		return
	}
	before := len(tl.Trips)

	c.AnchorMidnight(tl)
	absorbed := c.AbsorbShortStills(tl)
	bikes := c.NormalizeBikeSandwiches(tl)
	vehicles := c.RepairVehicleThroughWalk(tl)
	c.recogniseWalkingBurstsInStills(tl)
	recovered := c.RecoverLostActivities(tl)
	suspicious := c.CorrectSuspicious(tl)
	c.Compact(tl)
	c.FinalizeLocations(tl)

	c.logger.Debug("trips corrected",
		"segmented", before,
		"final", len(tl.Trips),
		"short_stills", absorbed,
		"bike_sandwiches", bikes,
		"vehicle_walks", vehicles,
		"recovered", recovered,
		"suspicious", suspicious)
}

// AnchorMidnight pulls a leading STILL trip back to the start of the day,
// inserting a boundary element when the chart starts later.
func (c *Classifier) AnchorMidnight(tl *Timeline) {
	if len(tl.Trips) == 0 || tl.Trips[0].Type != sample.Still {
		return
	}
	if len(tl.Chart) == 0 || tl.Chart[0].TimeMillis <= tl.DayStart {
		return
	}

	elems := make([]chart.Element, 0, len(tl.Chart)+1)
	elems = append(elems, chart.Element{TimeMillis: tl.DayStart})
	tl.Chart = append(elems, tl.Chart...)

	for i := range tl.Trips {
		tl.Trips[i].Start++
		tl.Trips[i].End++
	}
	tl.Trips[0].Start = 0
	tl.measure(&tl.Trips[0])
}

func (c *Classifier) short() int64 {
	return c.cfg.ShortActivity.Milliseconds()
}

// AbsorbShortStills retypes STILL trips shorter than the short-activity
// threshold to the type of their longer neighbor.
func (c *Classifier) AbsorbShortStills(tl *Timeline) int {
	count := 0
	for i := range tl.Trips {
		t := &tl.Trips[i]
		if t.Type != sample.Still || t.DurationMillis() >= c.short() {
			continue
		}

		var neighbor *Trip
		if i > 0 {
			neighbor = &tl.Trips[i-1]
		}
		if i+1 < len(tl.Trips) {
			next := &tl.Trips[i+1]
			if neighbor == nil || next.DurationMillis() > neighbor.DurationMillis() {
				neighbor = next
			}
		}
		if neighbor == nil || neighbor.Type == sample.Still {
			continue
		}

		t.Type = neighbor.Type
		tl.flagSuspicious(t)
		count++
	}
	return count
}

// NormalizeBikeSandwiches turns BICYCLE, VEHICLE, BICYCLE into three
// bicycle trips when the bicycle parts outlast the vehicle part.
func (c *Classifier) NormalizeBikeSandwiches(tl *Timeline) int {
	count := 0
	for i := 1; i+1 < len(tl.Trips); i++ {
		prev, t, next := &tl.Trips[i-1], &tl.Trips[i], &tl.Trips[i+1]
		if prev.Type != sample.OnBicycle || t.Type != sample.InVehicle || next.Type != sample.OnBicycle {
			continue
		}
		if prev.DurationMillis()+next.DurationMillis() > t.DurationMillis() {
			t.Type = sample.OnBicycle
			tl.flagSuspicious(t)
			count++
		}
	}
	return count
}

// RepairVehicleThroughWalk retypes a short walking trip right after a
// vehicle trip when it moves faster than anyone walks.
func (c *Classifier) RepairVehicleThroughWalk(tl *Timeline) int {
	count := 0
	for i := 1; i < len(tl.Trips); i++ {
		prev, t := &tl.Trips[i-1], &tl.Trips[i]
		if prev.Type != sample.InVehicle || !t.Type.IsWalking() {
			continue
		}
		if t.DurationMillis() > 2*c.short() {
			continue
		}
		if t.AverageSpeed() > c.cfg.VehicleWalkSpeed {
			t.Type = sample.InVehicle
			tl.flagSuspicious(t)
			count++
		}
	}
	return count
}

// recogniseWalkingBurstsInStills is an extension point for detecting short
// walking bursts inside STILL trips. It intentionally changes nothing.
func (c *Classifier) recogniseWalkingBurstsInStills(*Timeline) {}

// RecoverLostActivities re-examines long STILL and UNKNOWN trips. Strong
// step evidence turns their high-cadence runs into WALKING, or the whole
// trip when no run is long enough; a trace
// that travels further than LinearThreshold turns them into IN_VEHICLE.
func (c *Classifier) RecoverLostActivities(tl *Timeline) int {
	count := 0
	out := make([]Trip, 0, len(tl.Trips))
	for i := range tl.Trips {
		t := tl.Trips[i]
		if (t.Type != sample.Still && t.Type != sample.Unknown) || t.DurationMillis() <= 2*c.short() {
			out = append(out, t)
			continue
		}

		pieces := c.recoverLost(tl, &t)
		if pieces == nil {
			out = append(out, t)
			continue
		}
		out = append(out, pieces...)
		count++
	}
	tl.Trips = out
	return count
}

func (c *Classifier) recoverLost(tl *Timeline, t *Trip) []Trip {
	if t.Cadence() >= c.cfg.HighCadence {
		t.Type = sample.Walking
		tl.flagSuspicious(t)
		return []Trip{*t}
	}
	if t.Steps > c.cfg.LostActivitySteps {
		walking := func(e *chart.Element) bool {
			return e.Cadence.Or(0) >= c.cfg.HighCadence
		}
		if pieces := tl.extract(t, walking, sample.Walking); pieces != nil {
			return pieces
		}
		t.Type = sample.Walking
		tl.flagSuspicious(t)
		return []Trip{*t}
	}

	opts := tl.traceOptions(c.flags.DaySimplification)
	if geo.IsLinearTrajectory(tl.rawLocations(t), c.cfg.LinearThreshold, opts) {
		moving := func(e *chart.Element) bool {
			return e.Speed.Or(0) >= c.cfg.MovingSpeed
		}
		if pieces := tl.extract(t, moving, sample.InVehicle); pieces != nil {
			return pieces
		}
		t.Type = sample.InVehicle
		tl.flagSuspicious(t)
		return []Trip{*t}
	}
	return nil
}

// extract carves the runs of owned elements matching pred out of t as
// trips of type typ. Runs shorter than the short-activity threshold stay
// with t. It returns nil when nothing was carved out.
func (tl *Timeline) extract(t *Trip, pred func(*chart.Element) bool, typ sample.ActivityType) []Trip {
	short := tl.cfg.ShortActivity.Milliseconds()
	var pieces []Trip
	carved := false
	segStart := t.Start

	for k := firstOwned(t); k <= t.End; {
		if !pred(&tl.Chart[k]) {
			k++
			continue
		}
		first := k
		for k <= t.End && pred(&tl.Chart[k]) {
			k++
		}
		runStart, runEnd := max(first-1, t.Start), k-1
		if tl.Chart[runEnd].TimeMillis-tl.Chart[runStart].TimeMillis < short {
			continue
		}

		if runStart > segStart {
			pieces = append(pieces, Trip{Start: segStart, End: runStart, Type: t.Type})
		}
		pieces = append(pieces, Trip{Start: runStart, End: runEnd, Type: typ})
		segStart = runEnd
		carved = true
	}
	if !carved {
		return nil
	}
	if segStart < t.End {
		pieces = append(pieces, Trip{Start: segStart, End: t.End, Type: t.Type})
	}

	for i := range pieces {
		tl.measure(&pieces[i])
		tl.flagSuspicious(&pieces[i])
	}
	return pieces
}

// CorrectSuspicious downgrades unreliable vehicle and bicycle trips using
// the day's cycling time and the trip's own step evidence. Every trip is
// reliable once this pass has settled it.
func (c *Classifier) CorrectSuspicious(tl *Timeline) int {
	var cyclingMillis int64
	for i := range tl.Trips {
		if tl.Trips[i].Type == sample.OnBicycle {
			cyclingMillis += tl.Trips[i].DurationMillis()
		}
	}

	count := 0
	for i := range tl.Trips {
		t := &tl.Trips[i]
		if t.Reliable {
			continue
		}

		dur := t.DurationMillis()
		walking := t.Cadence() >= c.cfg.HighCadence || t.Steps > c.cfg.LostActivitySteps

		switch t.Type {
		case sample.InVehicle:
			switch {
			case cyclingMillis > dur && !walking:
				t.Type = sample.OnBicycle
			case walking:
				t.Type = sample.Walking
			default:
				t.Type = sample.Still
			}
		case sample.OnBicycle:
			switch {
			case cyclingMillis-dur > dur:
			case walking:
				t.Type = sample.Walking
			default:
				t.Type = sample.Still
			}
		}
		t.Reliable = true
		count++
	}
	return count
}
