package accum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxforge/wxforge/internal/types"
)

func sample(ts time.Time, kind types.Kind, value float64, interval time.Duration) types.NormalizedSample {
	return types.NormalizedSample{
		Timestamp: ts,
		Station:   "test",
		Kind:      kind,
		Value:     value,
		Interval:  interval,
	}
}

func newTestEngine(caps types.StationCapabilities) *Engine {
	return New("test", caps, time.UTC, &State{}, nil)
}

func TestRainCounterRebase(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{})

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	counters := []float64{10.0, 10.5, 3.0, 3.4}
	wantRates := []float64{0, 0.5, 0, 0.4} // first sample only sets the baseline

	var snaps []Snapshot
	for i, c := range counters {
		ts := start.Add(time.Duration(i) * time.Hour)
		snaps = append(snaps, e.Apply(ts, []types.NormalizedSample{
			sample(ts, types.KindRainCounter, c, time.Hour),
		}))
	}

	for i, want := range wantRates {
		assert.InDelta(t, want, snaps[i].RainRateMMH, 1e-9, "rate after sample %d", i)
		assert.GreaterOrEqual(t, snaps[i].RainRateMMH, 0.0, "rate must never go negative")
	}
	assert.InDelta(t, 0.9, snaps[3].DayRainMM, 1e-9, "vendor reset must rebase, not subtract")
}

func TestRolloverFiresExactlyOnce(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{RolloverHour: 0})

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var resets int
	prevDayRain := 0.0

	for i := 0; i < 1440; i++ {
		ts := start.Add(time.Duration(i) * time.Minute)
		samples := []types.NormalizedSample{
			sample(ts, types.KindTemperature, 20, time.Minute),
		}
		// Rain: baseline at 12:00, 2 mm by 13:00 on day one, 1 mm more
		// at 00:30 on day two.
		switch i {
		case 0:
			samples = append(samples, sample(ts, types.KindRainCounter, 10.0, time.Minute))
		case 60:
			samples = append(samples, sample(ts, types.KindRainCounter, 12.0, time.Minute))
		case 750: // 00:30
			samples = append(samples, sample(ts, types.KindRainCounter, 13.0, time.Minute))
		}

		snap := e.Apply(ts, samples)
		if snap.DayRainMM < prevDayRain {
			resets++
			assert.Equal(t, 0, ts.Hour(), "reset must happen in the rollover hour")
			assert.Equal(t, 0, ts.Minute(), "reset must happen at the first record of the hour")
		}
		prevDayRain = snap.DayRainMM
	}

	assert.Equal(t, 1, resets, "day reset must fire exactly once across the two days")

	final := e.State()
	assert.InDelta(t, 1.0, final.DayRainMM, 1e-9, "day two rain survives the rest of hour zero")
	assert.InDelta(t, 2.0, final.Month.RainTotal, 1e-9, "day one total flushed into the month scope")
}

func TestRolloverHourNine(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{RolloverHour: 9})

	day1 := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	e.Apply(day1, []types.NormalizedSample{
		sample(day1, types.KindTemperature, 15, time.Minute),
		sample(day1, types.KindRainCounter, 5.0, time.Minute),
	})
	rain := day1.Add(5 * time.Minute)
	e.Apply(rain, []types.NormalizedSample{
		sample(rain, types.KindRainCounter, 7.0, time.Minute),
	})

	// Crossing midnight must reset rain-since-midnight but not day rain.
	midnight := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	snap := e.Apply(midnight, []types.NormalizedSample{
		sample(midnight, types.KindTemperature, 14, time.Minute),
	})
	assert.InDelta(t, 2.0, snap.DayRainMM, 1e-9, "rollover hour is 9, day rain survives midnight")
	assert.InDelta(t, 0.0, snap.RainSinceMidnightMM, 1e-9, "rain since midnight resets at midnight")

	// Crossing 09:00 performs the day rollover.
	nine := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	snap = e.Apply(nine, []types.NormalizedSample{
		sample(nine, types.KindTemperature, 16, time.Minute),
	})
	assert.InDelta(t, 0.0, snap.DayRainMM, 1e-9, "day rain resets at the rollover hour")
}

func TestLightningMonotonicity(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{})

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events := []struct {
		eventTime time.Time
		dist      float64
	}{
		{base.Add(100 * time.Second), 12},
		{base.Add(50 * time.Second), 5},
		{base.Add(150 * time.Second), 30},
	}

	for _, ev := range events {
		e.Apply(ev.eventTime, []types.NormalizedSample{
			sample(ev.eventTime, types.KindLightningDistance, ev.dist, time.Minute),
		})
	}

	st := e.State()
	assert.Equal(t, base.Add(150*time.Second), st.LightningAt, "stale event must not overwrite a newer one")
	assert.InDelta(t, 30, st.LightningDistKM, 1e-9)
}

func TestExtremesTieBreakFirstOccurrenceWins(t *testing.T) {
	var x Extreme
	t1 := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	x.noteHigh(25.0, t1)
	x.noteHigh(25.0, t2)

	assert.Equal(t, t1, x.At, "a later equal value must not overwrite the timestamp")

	var month Extremes
	day1 := Extremes{TempHigh: Extreme{Value: 25, At: t1, Set: true}}
	day2 := Extremes{TempHigh: Extreme{Value: 25, At: t2, Set: true}}
	month.absorb(&day1)
	month.absorb(&day2)

	assert.Equal(t, t1, month.TempHigh.At)
}

func TestIntervalScalingBatchEqualsLive(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// One 60-minute historical bucket.
	batch := newTestEngine(types.StationCapabilities{})
	batch.Apply(start, []types.NormalizedSample{
		sample(start, types.KindWindSpeed, 10, time.Hour),
		sample(start, types.KindTemperature, 4, time.Hour),
	})

	// Sixty 1-minute live ticks.
	live := newTestEngine(types.StationCapabilities{})
	for i := 0; i < 60; i++ {
		ts := start.Add(time.Duration(i) * time.Minute)
		live.Apply(ts, []types.NormalizedSample{
			sample(ts, types.KindWindSpeed, 10, time.Minute),
			sample(ts, types.KindTemperature, 4, time.Minute),
		})
	}

	assert.InDelta(t, batch.State().WindRunKM, live.State().WindRunKM, 1e-6,
		"wind run must be identical for one 60-minute bucket and sixty 1-minute ticks")
	assert.InDelta(t, 36.0, batch.State().WindRunKM, 1e-6)
	assert.InDelta(t, batch.State().ChillHours, live.State().ChillHours, 1e-6)
	assert.InDelta(t, 1.0, batch.State().ChillHours, 1e-6)
	assert.InDelta(t, batch.State().HeatingDegreeDays, live.State().HeatingDegreeDays, 1e-6)
}

func TestAbsentSamplesAreSkipped(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{})
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	s := sample(ts, types.KindTemperature, -99, time.Minute)
	s.Absent = types.AbsentNoData
	snap := e.Apply(ts, []types.NormalizedSample{s})

	assert.False(t, snap.TempOK)
	assert.Equal(t, 0, e.State().TempSamples)
}

func TestPrimaryChannelFiltering(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{PrimaryWindChannel: 1, PrimaryRainChannel: 2})
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	wrongWind := sample(ts, types.KindWindSpeed, 99, time.Minute)
	wrongWind.Channel = 3
	rightWind := sample(ts, types.KindWindSpeed, 5, time.Minute)
	rightWind.Channel = 1

	snap := e.Apply(ts, []types.NormalizedSample{wrongWind, rightWind})
	assert.InDelta(t, 5, snap.WindSpeedMS, 1e-9, "non-primary wind channel must be ignored")
}

func TestVendorWindAverageSelection(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{UsesSpeedForAverage: true})
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	snap := e.Apply(ts, []types.NormalizedSample{
		sample(ts, types.KindWindSpeed, 7.5, time.Minute),
	})
	assert.InDelta(t, 7.5, snap.WindAvgMS, 1e-9, "vendor rolling average accepted as-is")
}

func TestVendorDewPointHonored(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{ComputesDewPoint: true})
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	snap := e.Apply(ts, []types.NormalizedSample{
		sample(ts, types.KindTemperature, 20, time.Minute),
		sample(ts, types.KindHumidity, 50, time.Minute),
		sample(ts, types.KindDewPoint, 9.9, time.Minute),
	})

	assert.InDelta(t, 9.9, snap.DewPointC, 1e-9, "vendor dew point wins when capability is set")
}

func TestLocalDewPointWhenVendorDoesNot(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{})
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	snap := e.Apply(ts, []types.NormalizedSample{
		sample(ts, types.KindTemperature, 20, time.Minute),
		sample(ts, types.KindHumidity, 100, time.Minute),
	})

	require.True(t, snap.TempOK)
	assert.InDelta(t, 20, snap.DewPointC, 0.05, "at 100%% humidity dew point equals temperature")
}

func TestSunshineHoursAccumulateAndResetAtMidnight(t *testing.T) {
	e := newTestEngine(types.StationCapabilities{RolloverHour: 9})

	ts := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		at := ts.Add(time.Duration(i) * time.Minute)
		e.Apply(at, []types.NormalizedSample{
			sample(at, types.KindSolar, 600, time.Minute),
		})
	}
	assert.InDelta(t, 2.0, e.State().SunshineHours, 1e-6)

	// Dim light does not count.
	dim := ts.Add(3 * time.Hour)
	e.Apply(dim, []types.NormalizedSample{sample(dim, types.KindSolar, 50, time.Minute)})
	assert.InDelta(t, 2.0, e.State().SunshineHours, 1e-6)

	midnight := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	e.Apply(midnight, []types.NormalizedSample{sample(midnight, types.KindSolar, 0, time.Minute)})
	assert.InDelta(t, 0.0, e.State().SunshineHours, 1e-6, "sunshine hours reset at local midnight")
}
