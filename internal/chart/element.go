package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/planbiir/daytrips/internal/sample"
)

// Element is one instant of the merged timeline. Every field except the
// timestamp is optional; absent values never match in comparisons.
type Element struct {
	TimeMillis int64

	// Steps holds the cumulative counter right after Build and the
	// per-interval delta once the chart is normalized.
	Steps   sample.Opt[int32]
	Cadence sample.Opt[float64] // steps/min

	Location sample.Opt[sample.Location]
	Speed    sample.Opt[float64] // m/s
	Distance sample.Opt[float64] // meters from the previous fix

	In  sample.Opt[sample.ActivityType] // activity starting here
	Out sample.Opt[sample.ActivityType] // activity ending here

	// Assigned locks a tag that a normalization pass already settled.
	Assigned sample.Opt[sample.ActivityType]
}

// Tagged reports whether an activity starts or ends at e.
func (e *Element) Tagged() bool {
	return e.In.Ok() || e.Out.Ok()
}

// ActivityOnly is true for tagged elements without step or location data.
func (e *Element) ActivityOnly() bool {
	return e.Tagged() && !e.Steps.Ok() && !e.Location.Ok()
}

// LocationOnly is true for untagged elements carrying only a fix.
func (e *Element) LocationOnly() bool {
	return e.Location.Ok() && !e.Steps.Ok() && !e.Tagged()
}

// ClearTags removes both activity tags.
func (e *Element) ClearTags() {
	e.In.Clear()
	e.Out.Clear()
}

// absorb copies the fields o has and e lacks.
func (e *Element) absorb(o Element) {
	e.Steps.Fill(o.Steps)
	e.Cadence.Fill(o.Cadence)
	e.Location.Fill(o.Location)
	e.Speed.Fill(o.Speed)
	e.Distance.Fill(o.Distance)
	e.In.Fill(o.In)
	e.Out.Fill(o.Out)
	e.Assigned.Fill(o.Assigned)
}

func (e Element) String() string {
	var b strings.Builder
	b.WriteString(time.UnixMilli(e.TimeMillis).UTC().Format("15:04:05.000"))
	if v, ok := e.Steps.Get(); ok {
		fmt.Fprintf(&b, " steps=%d", v)
	}
	if v, ok := e.Cadence.Get(); ok {
		fmt.Fprintf(&b, " cad=%.1f", v)
	}
	if l, ok := e.Location.Get(); ok {
		fmt.Fprintf(&b, " loc=%.5f,%.5f", l.Lat, l.Lon)
	}
	if v, ok := e.Speed.Get(); ok {
		fmt.Fprintf(&b, " v=%.2f", v)
	}
	if v, ok := e.Out.Get(); ok {
		fmt.Fprintf(&b, " out=%s", v)
	}
	if v, ok := e.In.Get(); ok {
		fmt.Fprintf(&b, " in=%s", v)
	}
	return b.String()
}
