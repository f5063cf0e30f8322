package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/daytrips/internal/sample"
)

const baseLat, baseLon = 46.0, 7.0

// at places a fix east/north meters away from the base point.
func at(ms int64, east, north float64) sample.Location {
	degPerMeter := 180 / (math.Pi * orb.EarthRadius)
	return sample.Location{
		TimeMillis: ms,
		Lat:        baseLat + north*degPerMeter,
		Lon:        baseLon + east*degPerMeter/math.Cos(baseLat*math.Pi/180),
	}
}

func TestDistance(t *testing.T) {
	a := sample.Location{Lat: 46.0, Lon: 7.0}
	b := sample.Location{Lat: 46.001, Lon: 7.001}

	d := Distance(a, b)
	if d < 130 || d > 150 {
		t.Errorf("Expected distance ~140m, got %.0fm", d)
	}

	up := a
	up.Alt = 30
	assert.InDelta(t, 30, Distance(a, up), 1e-9)

	assert.Zero(t, Distance(sample.Location{}, b))
	assert.Zero(t, Distance(a, sample.Location{Alt: 100}))
	assert.Zero(t, Distance(a, a))
}

func TestDistanceCombinesAltitude(t *testing.T) {
	a := at(0, 0, 0)
	b := at(0, 40, 0)
	b.Alt = 30
	assert.InDelta(t, 50, Distance(a, b), 0.1)
}

func TestSpeed(t *testing.T) {
	assert.Equal(t, 3.33, Speed(100, 30_000))
	assert.Zero(t, Speed(0, 1000))
	assert.Zero(t, Speed(10, 0))
	assert.Zero(t, Speed(-5, 1000))
}

func TestRemoveSpikesOnlyReplacesGenuineSpike(t *testing.T) {
	// P1-P3 50m, P1-P2 40m, P2-P3 45m: 2*50 > 85, not a spike.
	wide := []sample.Location{at(0, 0, 0), at(1000, 20.75, 34.197), at(2000, 50, 0)}
	require.InDelta(t, 40, Distance(wide[0], wide[1]), 0.5)
	require.InDelta(t, 45, Distance(wide[1], wide[2]), 0.5)

	out := RemoveSpikes(wide, 4)
	assert.Equal(t, wide, out)

	// P1-P3 10m, legs 40m and 45m: 2*10 < 85, a spike.
	narrow := []sample.Location{at(0, 0, 0), at(1000, -16.25, 36.55), at(2000, 10, 0)}
	require.InDelta(t, 40, Distance(narrow[0], narrow[1]), 0.5)
	require.InDelta(t, 45, Distance(narrow[1], narrow[2]), 0.5)

	out = RemoveSpikes(narrow, 4)
	require.Len(t, out, 3)
	assert.InDelta(t, (narrow[0].Lat+narrow[2].Lat)/2, out[1].Lat, 1e-12)
	assert.InDelta(t, (narrow[0].Lon+narrow[2].Lon)/2, out[1].Lon, 1e-12)
	assert.Equal(t, narrow[1].TimeMillis, out[1].TimeMillis)

	// the input is a read-only snapshot
	assert.NotEqual(t, narrow[1], out[1])
}

func TestRemoveSpikesIdempotent(t *testing.T) {
	var line []sample.Location
	for i := 0; i < 12; i++ {
		line = append(line, at(int64(i)*1000, float64(i)*15, float64(i)*3))
	}
	once := RemoveSpikes(line, 4)
	twice := RemoveSpikes(once, 4)
	assert.Equal(t, line, once)
	assert.Equal(t, once, twice)
}

func TestSimplifySEDBounds(t *testing.T) {
	var trace []sample.Location
	for i := 0; i < 20; i++ {
		wiggle := 0.0
		if i%3 == 0 {
			wiggle = float64(i)
		}
		trace = append(trace, at(int64(i)*5000, float64(i)*50, wiggle))
	}

	out := SimplifySED(trace, 0.65, 8)
	assert.LessOrEqual(t, len(out), int(math.Ceil(0.65*20)))
	assert.Equal(t, trace[0], out[0])
	assert.Equal(t, trace[len(trace)-1], out[len(out)-1])
	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1].TimeMillis, out[i].TimeMillis, "output keeps time order")
	}

	short := trace[:7]
	assert.Equal(t, short, SimplifySED(short, 0.65, 8))
}

func TestSimplifySEDKeepsDeviations(t *testing.T) {
	var trace []sample.Location
	for i := 0; i < 10; i++ {
		north := 0.0
		if i == 4 {
			north = 300
		}
		trace = append(trace, at(int64(i)*1000, float64(i)*10, north))
	}

	out := SimplifySED(trace, 0.65, 8)
	found := false
	for _, l := range out {
		if l.TimeMillis == trace[4].TimeMillis {
			found = true
		}
	}
	assert.True(t, found, "the largest deviation must survive simplification")
}

func TestStayPoints(t *testing.T) {
	var trace []sample.Location
	for i := 0; i < 7; i++ {
		trace = append(trace, at(int64(i)*1000, float64(i%2)*5, float64(i%3)*3))
	}
	for i := 0; i < 3; i++ {
		trace = append(trace, at(int64(10+i)*1000, 200+float64(i)*100, 0))
	}

	out := StayPoints(trace, 25, 5)
	require.Len(t, out, 4)
	assert.Equal(t, trace[0].TimeMillis, out[0].TimeMillis)
	assert.Less(t, Distance(out[0], trace[0]), 10.0)
	assert.Equal(t, trace[7:], out[1:])

	// a run of exactly minSize points is not collapsed
	assert.Len(t, StayPoints(trace[:5], 25, 5), 5)
}

func TestIsLinearTrajectory(t *testing.T) {
	opts := TraceOptions{MaxAccuracy: 50, SpikePasses: 4}
	trace := []sample.Location{
		at(0, 0, 0),
		at(60_000, 500, 0),
		at(120_000, 1000, 0),
		at(180_000, 2000, 0),
	}

	assert.True(t, IsLinearTrajectory(trace, 1500, opts))
	assert.False(t, IsLinearTrajectory(trace, 2500, opts))

	noisy := []sample.Location{at(0, 0, 0), at(60_000, 10, 0)}
	far := at(120_000, 2000, 0)
	far.Accuracy = 200
	noisy = append(noisy, far)
	assert.False(t, IsLinearTrajectory(noisy, 1500, opts), "inaccurate fixes are ignored")

	opts.Simplify, opts.SEDKeepRatio, opts.SEDMinPoints = true, 0.65, 8
	assert.True(t, IsLinearTrajectory(trace, 1500, opts))
}

func TestRadii(t *testing.T) {
	trace := []sample.Location{at(0, 0, 0), at(1, 300, 0), at(2, 100, 0)}
	assert.InDelta(t, 300, MaxRadius(trace), 1)
	assert.InDelta(t, math.Sqrt((0+300*300+100*100)/3.0), GyrationRadius(trace, trace[0]), 1)
	assert.Zero(t, MaxRadius(trace[:1]))
	assert.Zero(t, GyrationRadius(nil, trace[0]))
	assert.InDelta(t, 500, PathLength(trace), 1)
}
