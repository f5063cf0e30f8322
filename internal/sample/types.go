package sample

import (
	"strings"
	"time"
)

// ActivityType is the closed set of activities reported by the transition
// receiver and assigned to trips.
type ActivityType int8

const (
	Still ActivityType = iota
	Walking
	Running
	OnFoot
	OnBicycle
	InVehicle
	Unknown
)

var activityNames = [...]string{
	Still:     "STILL",
	Walking:   "WALKING",
	Running:   "RUNNING",
	OnFoot:    "ON_FOOT",
	OnBicycle: "ON_BICYCLE",
	InVehicle: "IN_VEHICLE",
	Unknown:   "UNKNOWN",
}

func (a ActivityType) String() string {
	if a < 0 || int(a) >= len(activityNames) {
		return "INVALID"
	}
	return activityNames[a]
}

// ParseActivity maps a name (case-insensitive) to an ActivityType.
// Unrecognised names map to Unknown.
func ParseActivity(name string) ActivityType {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range activityNames {
		if n == name {
			return ActivityType(i)
		}
	}
	return Unknown
}

// IsWalking reports whether a belongs to the walking family.
func (a ActivityType) IsWalking() bool {
	return a == Walking || a == Running || a == OnFoot
}

// IsMoving is true for every activity except Still and Unknown.
func (a ActivityType) IsMoving() bool {
	return a != Still && a != Unknown
}

// Class folds ON_FOOT into WALKING for per-activity totals.
func (a ActivityType) Class() ActivityType {
	if a == OnFoot {
		return Walking
	}
	return a
}

func (a ActivityType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActivityType) UnmarshalText(b []byte) error {
	*a = ParseActivity(string(b))
	return nil
}

// Edge tells whether an activity event opens or closes an activity.
type Edge int8

const (
	Enter Edge = iota
	Exit
)

func (e Edge) String() string {
	if e == Exit {
		return "EXIT"
	}
	return "ENTER"
}

// Step is one reading of the cumulative step counter.
type Step struct {
	TimeMillis      int64
	CumulativeSteps int32
}

// Location is one GPS fix. Accuracy is in meters; zero means unknown.
type Location struct {
	TimeMillis int64   `json:"time_ms"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Alt        float64 `json:"alt"`
	Accuracy   float64 `json:"accuracy_m"`
}

// HasFix is false for the (0,0) "no fix" sentinel.
func (l Location) HasFix() bool {
	return l.Lat != 0 || l.Lon != 0
}

// Activity is an enter/exit transition reported by the activity classifier.
type Activity struct {
	TimeMillis int64
	Type       ActivityType
	Edge       Edge
}

// Battery is informational only; the engine passes it through.
type Battery struct {
	TimeMillis int64 `json:"time_ms"`
	Level      int   `json:"level"`
	Charging   bool  `json:"charging"`
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Time converts epoch milliseconds back to a time in loc.
func Time(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc)
}
