package summary

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/daytrips/internal/sample"
	"github.com/planbiir/daytrips/internal/trip"
)

func east(meters float64) sample.Location {
	degPerMeter := 180 / (math.Pi * orb.EarthRadius)
	return sample.Location{Lat: 46, Lon: 7 + meters*degPerMeter/math.Cos(46*math.Pi/180)}
}

func span(start, length time.Duration) (int64, int64) {
	return start.Milliseconds(), (start + length).Milliseconds()
}

func TestAggregate(t *testing.T) {
	var trips []trip.Trip
	add := func(typ sample.ActivityType, start, length time.Duration, steps int64, meters float64, locs ...sample.Location) {
		s, e := span(start, length)
		trips = append(trips, trip.Trip{
			Type: typ, StartMillis: s, EndMillis: e,
			Steps: steps, DistanceMeters: meters, Locations: locs,
		})
	}
	add(sample.Still, 0, 8*time.Hour, 0, 0)
	add(sample.Walking, 8*time.Hour, 10*time.Minute, 900, 800, east(0), east(100))
	add(sample.OnFoot, 8*time.Hour+10*time.Minute, 5*time.Minute, 100, 200)
	add(sample.InVehicle, 9*time.Hour, 30*time.Minute, 0, 12340)

	s := Aggregate(trips)

	assert.Equal(t, int64(1000), s.StepsTotal)
	require.Len(t, s.PerActivity, 3)

	walking := s.Totals(sample.OnFoot)
	assert.Equal(t, (15 * time.Minute).Milliseconds(), walking.DurationMillis)
	assert.InDelta(t, 1.0, walking.DistanceKm, 1e-9)
	assert.Equal(t, 2, walking.Trips)

	assert.Equal(t, (45 * time.Minute).Milliseconds(), s.MovingMillis())
	assert.InDelta(t, 12.34, RoundKm(s.Totals(sample.InVehicle).DistanceKm), 1e-9)

	// RMS of 0 m and 100 m around the first fix
	assert.InDelta(t, 70.71, s.RadiusMeters, 0.1)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	assert.Zero(t, s.StepsTotal)
	assert.Empty(t, s.PerActivity)
	assert.Zero(t, s.RadiusMeters)
}

func TestWithBattery(t *testing.T) {
	s := Aggregate(nil)
	assert.False(t, s.BatteryMin.Ok())

	s = s.WithBattery([]sample.Battery{{Level: 80}, {Level: 35}, {Level: 62}})
	assert.True(t, s.BatteryMin.Is(35))
	assert.True(t, s.BatteryMax.Is(80))
}
