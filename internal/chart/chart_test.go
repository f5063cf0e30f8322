package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/daytrips/internal/config"
	"github.com/planbiir/daytrips/internal/sample"
)

const day = int64(24 * time.Hour / time.Millisecond)

func ms(d time.Duration) int64 { return d.Milliseconds() }

func testNormalizer() *Normalizer {
	return NewNormalizer(config.DefaultTunables(), nil)
}

func tagged(t int64, out, in sample.ActivityType) Element {
	return Element{TimeMillis: t, Out: sample.Some(out), In: sample.Some(in)}
}

func withCadence(t int64, cadence float64) Element {
	return Element{TimeMillis: t, Cadence: sample.Some(cadence)}
}

func TestBuildOrdersAndBreaksTiesByKind(t *testing.T) {
	in := Input{
		Steps: []sample.Step{
			{TimeMillis: 1000, CumulativeSteps: 10},
			{TimeMillis: 5000, CumulativeSteps: 20},
		},
		Locations: []sample.Location{
			{TimeMillis: 5000, Lat: 46, Lon: 7},
		},
		Activities: []sample.Activity{
			{TimeMillis: -1, Type: sample.Walking, Edge: sample.Enter}, // before the interval
			{TimeMillis: 5000, Type: sample.Walking, Edge: sample.Enter},
			{TimeMillis: 3000, Type: sample.Still, Edge: sample.Exit},
		},
	}

	elems := Build(in, 0, day, 10*day)
	require.Len(t, elems, 6)

	assert.Equal(t, int64(1000), elems[0].TimeMillis)
	assert.True(t, elems[1].Out.Is(sample.Still))
	assert.True(t, elems[2].Steps.Is(20), "steps first on a tie")
	assert.True(t, elems[3].Location.Ok(), "then locations")
	assert.True(t, elems[4].In.Is(sample.Walking), "then activities")

	closing := elems[5]
	assert.Equal(t, day-1, closing.TimeMillis)
	assert.True(t, closing.Out.Is(sample.Still))
	assert.False(t, closing.In.Ok())
}

func TestBuildClosesAtNowInsideInterval(t *testing.T) {
	in := Input{Steps: []sample.Step{{TimeMillis: ms(8 * time.Hour), CumulativeSteps: 1}}}

	elems := Build(in, 0, day, ms(12*time.Hour))
	require.Len(t, elems, 2)
	assert.Equal(t, ms(12*time.Hour), elems[1].TimeMillis)

	// the closing element never goes back in time
	elems = Build(in, 0, day, ms(time.Hour))
	assert.Equal(t, ms(8*time.Hour), elems[1].TimeMillis)
}

func TestBuildEmptySpansTheDay(t *testing.T) {
	elems := Build(Input{}, 0, day, 0)
	require.Len(t, elems, 2)
	assert.Equal(t, int64(0), elems[0].TimeMillis)
	assert.False(t, elems[0].Tagged())
	assert.Equal(t, day-1, elems[1].TimeMillis)
	assert.True(t, elems[1].Out.Is(sample.Still))
}

func TestStepDeltasNeverNegative(t *testing.T) {
	raw := []int32{100, 150, 20, 30, 30}
	elems := make([]Element, 0, len(raw)+1)
	for i, v := range raw {
		elems = append(elems, Element{TimeMillis: int64(i) * 30000, Steps: sample.Some(v)})
	}
	elems = append(elems, Element{TimeMillis: 200000}) // no step data

	StepDeltas(elems)

	want := []int32{0, 50, 20, 10, 0}
	for i, w := range want {
		got, ok := elems[i].Steps.Get()
		require.True(t, ok)
		assert.Equal(t, w, got, "element %d", i)
		assert.GreaterOrEqual(t, got, int32(0))
	}
	assert.False(t, elems[5].Steps.Ok())
}

func TestFuseSameSecondFirstWriterWins(t *testing.T) {
	loc := sample.Location{TimeMillis: 1400, Lat: 46, Lon: 7}
	elems := []Element{
		{TimeMillis: 1000, Steps: sample.Some[int32](5)},
		{TimeMillis: 1400, Steps: sample.Some[int32](7), Location: sample.Some(loc)},
		{TimeMillis: 2600, Steps: sample.Some[int32](9)},
	}

	out := testNormalizer().fuse(elems)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1000), out[0].TimeMillis)
	assert.True(t, out[0].Steps.Is(5))
	assert.True(t, out[0].Location.Ok())
	assert.True(t, out[1].Steps.Is(9))
}

func TestFuseFoldsLocationIntoCloserActivity(t *testing.T) {
	loc := sample.Location{TimeMillis: 30000, Lat: 46, Lon: 7}

	t.Run("previous", func(t *testing.T) {
		elems := []Element{
			{TimeMillis: 0, In: sample.Some(sample.Walking)},
			{TimeMillis: 20000, Location: sample.Some(loc)},
			{TimeMillis: 100000, Steps: sample.Some[int32](1)},
		}
		out := testNormalizer().fuse(elems)
		require.Len(t, out, 2)
		assert.True(t, out[0].Location.Ok())
	})

	t.Run("next is closer", func(t *testing.T) {
		elems := []Element{
			{TimeMillis: 0, In: sample.Some(sample.Walking)},
			{TimeMillis: 30000, Location: sample.Some(loc)},
			{TimeMillis: 40000, In: sample.Some(sample.Still)},
		}
		out := testNormalizer().fuse(elems)
		require.Len(t, out, 2)
		assert.False(t, out[0].Location.Ok())
		assert.True(t, out[1].Location.Ok())
	})

	t.Run("too far", func(t *testing.T) {
		elems := []Element{
			{TimeMillis: 0, In: sample.Some(sample.Walking)},
			{TimeMillis: 60000, Location: sample.Some(loc)},
		}
		assert.Len(t, testNormalizer().fuse(elems), 2)
	})
}

func TestCloseOpenActivities(t *testing.T) {
	elems := []Element{
		{TimeMillis: 0, In: sample.Some(sample.Walking)},
		{TimeMillis: 1000, In: sample.Some(sample.InVehicle)},
		{TimeMillis: 2000, Out: sample.Some(sample.Running)},
		{TimeMillis: 3000, In: sample.Some(sample.Still)},
		{TimeMillis: 4000, In: sample.Some(sample.Still)},
	}

	CloseOpenActivities(elems)

	assert.True(t, elems[1].Out.Is(sample.Walking), "enter closes the open activity")
	assert.True(t, elems[2].Out.Is(sample.InVehicle), "exit closes what is actually open")
	assert.False(t, elems[3].Out.Ok(), "nothing open after the exit")
	assert.False(t, elems[4].Tagged(), "still closing still is dropped")
}

func TestPropagateCarriesValuesBackward(t *testing.T) {
	a := sample.Location{TimeMillis: 0, Lat: 46, Lon: 7}
	b := sample.Location{TimeMillis: 60000, Lat: 46.001, Lon: 7}
	elems := []Element{
		{TimeMillis: 0, Steps: sample.Some[int32](0), Location: sample.Some(a)},
		{TimeMillis: 30000},
		{TimeMillis: 60000, Steps: sample.Some[int32](60), Location: sample.Some(b)},
		{TimeMillis: 90000},
	}

	propagate(elems)

	assert.True(t, elems[0].Cadence.Is(0))
	assert.True(t, elems[1].Cadence.Is(60))
	assert.True(t, elems[2].Cadence.Is(60))
	assert.False(t, elems[3].Cadence.Ok(), "nothing after the last sample")

	speed, ok := elems[1].Speed.Get()
	require.True(t, ok)
	assert.InDelta(t, 1.85, speed, 0.02)
}

func TestExpandWalkingClaimsHighCadence(t *testing.T) {
	elems := []Element{
		withCadence(0, 0),
		withCadence(30000, 90),
		withCadence(60000, 90),
		tagged(90000, sample.Still, sample.Walking),
		withCadence(120000, 90),
	}
	elems[3].Cadence.Set(90)

	moved := testNormalizer().expandBoundaries(elems)

	assert.Equal(t, 1, moved)
	assert.False(t, elems[3].Tagged())
	assert.True(t, elems[1].In.Is(sample.Walking))
	assert.True(t, elems[1].Out.Is(sample.Still))
	assert.True(t, elems[1].Assigned.Is(sample.Walking))
}

func TestExpandStopsOnHighCadenceForStill(t *testing.T) {
	elems := []Element{
		withCadence(0, 90),
		withCadence(30000, 90),
		tagged(60000, sample.Walking, sample.Still),
		withCadence(90000, 0),
	}

	moved := testNormalizer().expandBoundaries(elems)

	assert.Equal(t, 0, moved)
	assert.True(t, elems[2].In.Is(sample.Still))
	assert.True(t, elems[2].Out.Is(sample.Walking))
}

func TestExpandStillOverStationaryVehicle(t *testing.T) {
	elems := []Element{
		{TimeMillis: 0, Cadence: sample.Some(0.0), Speed: sample.Some(12.0)},
		{TimeMillis: 30000, Cadence: sample.Some(0.0), Speed: sample.Some(0.05)},
		{TimeMillis: 60000, Cadence: sample.Some(0.0), Speed: sample.Some(0.0), Out: sample.Some(sample.InVehicle), In: sample.Some(sample.Still)},
	}

	moved := testNormalizer().expandBoundaries(elems)

	assert.Equal(t, 1, moved)
	assert.True(t, elems[1].In.Is(sample.Still))
	assert.False(t, elems[2].Tagged())
}

func TestExpandIgnoresFarTargets(t *testing.T) {
	elems := []Element{
		withCadence(0, 120),
		tagged(ms(5*time.Minute), sample.Still, sample.Walking),
	}
	assert.Equal(t, 0, testNormalizer().expandBoundaries(elems))
	assert.True(t, elems[1].Tagged())
}

func TestRemoveSandwiches(t *testing.T) {
	build := func(gap time.Duration) []Element {
		return []Element{
			{TimeMillis: 0, In: sample.Some(sample.Walking)},
			tagged(ms(10*time.Minute), sample.Walking, sample.Still),
			tagged(ms(10*time.Minute+gap), sample.Still, sample.Walking),
			{TimeMillis: ms(20 * time.Minute), Out: sample.Some(sample.Walking)},
		}
	}

	elems := build(30 * time.Second)
	assert.Equal(t, 1, testNormalizer().removeSandwiches(elems))
	assert.False(t, elems[1].Tagged())
	assert.False(t, elems[2].Tagged())

	elems = build(90 * time.Second)
	assert.Equal(t, 0, testNormalizer().removeSandwiches(elems))
	assert.True(t, elems[1].Tagged())
}

func TestRemoveSandwichesReadsMissingSidesAsStill(t *testing.T) {
	elems := []Element{
		{TimeMillis: 0, In: sample.Some(sample.Walking)},
		{TimeMillis: ms(5 * time.Minute)},
		{TimeMillis: ms(10 * time.Minute), Out: sample.Some(sample.Walking)},
		{TimeMillis: ms(10*time.Minute + 30*time.Second), In: sample.Some(sample.Walking)},
		{TimeMillis: ms(15 * time.Minute)},
		{TimeMillis: ms(20 * time.Minute), Out: sample.Some(sample.Walking)},
	}

	elems = testNormalizer().Normalize(elems)
	require.Len(t, elems, 6)

	assert.True(t, elems[0].In.Is(sample.Walking))
	assert.False(t, elems[2].Tagged(), "exit collapsed")
	assert.False(t, elems[3].Tagged(), "enter collapsed")
	assert.True(t, elems[5].Out.Is(sample.Walking))
}

func TestSplitUnreasonableGap(t *testing.T) {
	elems := []Element{
		{TimeMillis: 0, In: sample.Some(sample.InVehicle)},
		{TimeMillis: ms(time.Minute)},
		{TimeMillis: ms(11 * time.Minute)},
		{TimeMillis: ms(12 * time.Minute), Out: sample.Some(sample.InVehicle)},
	}

	elems, splits := testNormalizer().splitUnreasonable(elems)
	assert.Equal(t, 1, splits)
	require.Len(t, elems, 4)

	assert.True(t, elems[1].Out.Is(sample.InVehicle))
	assert.True(t, elems[1].In.Is(sample.Unknown))
	assert.True(t, elems[2].Out.Is(sample.Unknown))
	assert.True(t, elems[2].In.Is(sample.InVehicle))
}

func TestSplitGapRightAfterEnter(t *testing.T) {
	elems := []Element{
		{TimeMillis: 0, In: sample.Some(sample.InVehicle)},
		{TimeMillis: ms(20 * time.Minute)},
		{TimeMillis: ms(21 * time.Minute)},
		{TimeMillis: ms(22 * time.Minute), Out: sample.Some(sample.InVehicle)},
	}

	elems, splits := testNormalizer().splitUnreasonable(elems)
	assert.Equal(t, 1, splits)
	require.Len(t, elems, 5)

	assert.True(t, elems[0].In.Is(sample.InVehicle), "enter kept")
	assert.False(t, elems[0].Out.Ok())

	assert.Equal(t, int64(0), elems[1].TimeMillis)
	assert.True(t, elems[1].Out.Is(sample.InVehicle))
	assert.True(t, elems[1].In.Is(sample.Unknown))

	assert.True(t, elems[2].Out.Is(sample.Unknown))
	assert.True(t, elems[2].In.Is(sample.InVehicle))
	assert.False(t, elems[3].Tagged())
}

func TestSplitIgnoresStill(t *testing.T) {
	elems := []Element{
		{TimeMillis: 0, In: sample.Some(sample.Still)},
		{TimeMillis: ms(time.Minute)},
		{TimeMillis: ms(time.Hour)},
	}
	out, splits := testNormalizer().splitUnreasonable(elems)
	assert.Equal(t, 0, splits)
	assert.Equal(t, elems, out)
}

func TestRemoveDegenerate(t *testing.T) {
	elems := []Element{
		tagged(0, sample.Walking, sample.Walking),
		tagged(1000, sample.Walking, sample.Still),
	}
	assert.Equal(t, 1, removeDegenerate(elems))
	assert.False(t, elems[0].Tagged())
	assert.True(t, elems[1].Tagged())
}

func TestNormalizeWalkingMorning(t *testing.T) {
	start := ms(8 * time.Hour)
	var in Input
	for i := 0; i <= 20; i++ {
		in.Steps = append(in.Steps, sample.Step{
			TimeMillis:      start + int64(i)*30000,
			CumulativeSteps: int32(1000 + 45*i),
		})
	}
	in.Activities = []sample.Activity{
		{TimeMillis: start, Type: sample.Walking, Edge: sample.Enter},
		{TimeMillis: start + ms(10*time.Minute), Type: sample.Still, Edge: sample.Enter},
	}

	elems := testNormalizer().Normalize(Build(in, 0, day, 10*day))
	require.Len(t, elems, 22)

	assert.True(t, elems[0].In.Is(sample.Walking))
	assert.True(t, elems[20].Out.Is(sample.Walking))
	assert.True(t, elems[20].In.Is(sample.Still))
	assert.True(t, elems[21].Out.Is(sample.Still))

	for i := 1; i <= 20; i++ {
		assert.True(t, elems[i].Cadence.Is(90), "element %d", i)
	}
	for i := 1; i < len(elems); i++ {
		assert.LessOrEqual(t, elems[i-1].TimeMillis, elems[i].TimeMillis)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, testNormalizer().Normalize(nil))
}
