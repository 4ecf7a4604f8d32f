// Package accum implements the derived-metrics engine: running
// accumulators, extreme tracking, and the day-rollover state machine.
// One State instance exists per station session and is only ever
// touched by the single engine goroutine.
package accum

import (
	"time"
)

// Extreme is a tracked record value with the time it occurred. Ties do
// not overwrite: the first occurrence keeps its timestamp.
type Extreme struct {
	Value float64   `msgpack:"value"`
	At    time.Time `msgpack:"at"`
	Set   bool      `msgpack:"set"`
}

// noteHigh updates the extreme when v is strictly greater than the
// stored value.
func (e *Extreme) noteHigh(v float64, at time.Time) {
	if !e.Set || v > e.Value {
		e.Value = v
		e.At = at
		e.Set = true
	}
}

// noteLow updates the extreme when v is strictly less than the stored
// value.
func (e *Extreme) noteLow(v float64, at time.Time) {
	if !e.Set || v < e.Value {
		e.Value = v
		e.At = at
		e.Set = true
	}
}

// Extremes is one scope's record set (day, month, year, or all-time).
type Extremes struct {
	TempHigh     Extreme `msgpack:"temp_high"`
	TempLow      Extreme `msgpack:"temp_low"`
	GustHigh     Extreme `msgpack:"gust_high"`
	WindHigh     Extreme `msgpack:"wind_high"`
	RainRateHigh Extreme `msgpack:"rain_rate_high"`
	PressureHigh Extreme `msgpack:"pressure_high"`
	PressureLow  Extreme `msgpack:"pressure_low"`
	HumidityHigh Extreme `msgpack:"humidity_high"`
	HumidityLow  Extreme `msgpack:"humidity_low"`
	RainTotal    float64 `msgpack:"rain_total"`
}

// absorb folds a closed day's records into this scope, first occurrence
// winning ties.
func (x *Extremes) absorb(day *Extremes) {
	absorbHigh := func(dst *Extreme, src Extreme) {
		if src.Set && (!dst.Set || src.Value > dst.Value) {
			*dst = src
		}
	}
	absorbLow := func(dst *Extreme, src Extreme) {
		if src.Set && (!dst.Set || src.Value < dst.Value) {
			*dst = src
		}
	}

	absorbHigh(&x.TempHigh, day.TempHigh)
	absorbLow(&x.TempLow, day.TempLow)
	absorbHigh(&x.GustHigh, day.GustHigh)
	absorbHigh(&x.WindHigh, day.WindHigh)
	absorbHigh(&x.RainRateHigh, day.RainRateHigh)
	absorbHigh(&x.PressureHigh, day.PressureHigh)
	absorbLow(&x.PressureLow, day.PressureLow)
	absorbHigh(&x.HumidityHigh, day.HumidityHigh)
	absorbLow(&x.HumidityLow, day.HumidityLow)
	x.RainTotal += day.RainTotal
}

// State is the complete persisted accumulator state for one station.
// Fields are exported for the msgpack snapshot codec.
type State struct {
	// Day-scoped accumulators, reset exactly once per rollover.
	TempSumC          float64 `msgpack:"temp_sum_c"`
	TempSamples       int     `msgpack:"temp_samples"`
	WindRunKM         float64 `msgpack:"wind_run_km"`
	HeatingDegreeDays float64 `msgpack:"heating_dd"`
	CoolingDegreeDays float64 `msgpack:"cooling_dd"`
	DayRainMM         float64 `msgpack:"day_rain_mm"`

	// ChillHours is seasonal: it accumulates across rollovers and is
	// only cleared by explicit operator action.
	ChillHours float64 `msgpack:"chill_hours"`

	// Midnight-scoped accumulators, reset exactly once per local
	// midnight, independent of the rollover hour.
	SunshineHours       float64 `msgpack:"sunshine_hours"`
	RainSinceMidnightMM float64 `msgpack:"rain_since_midnight_mm"`

	// Rain counter tracking. The baseline rebases on counter decrease so
	// a vendor reset never produces a negative rate.
	RainCounterMM   float64 `msgpack:"rain_counter_mm"`
	RainCounterSeen bool    `msgpack:"rain_counter_seen"`

	// Lightning monotonicity guard state.
	LightningDistKM float64   `msgpack:"lightning_dist_km"`
	LightningAt     time.Time `msgpack:"lightning_at"`
	LightningCount  float64   `msgpack:"lightning_count"`

	// Record sets per scope.
	Day     Extremes `msgpack:"day"`
	Month   Extremes `msgpack:"month"`
	Year    Extremes `msgpack:"year"`
	AllTime Extremes `msgpack:"all_time"`

	// Rollover bookkeeping. RolloverDone clears when the clock leaves
	// the rollover hour so the next day's entry can trigger again;
	// MidnightDone does the same for the midnight reset.
	RolloverDone      bool       `msgpack:"rollover_done"`
	MidnightDone      bool       `msgpack:"midnight_done"`
	LastRolloverMonth time.Month `msgpack:"last_rollover_month"`
	LastRolloverYear  int        `msgpack:"last_rollover_year"`

	LastTimestamp time.Time `msgpack:"last_timestamp"`
}

// resetDay clears the day-scoped accumulators and record set.
func (s *State) resetDay() {
	s.TempSumC = 0
	s.TempSamples = 0
	s.WindRunKM = 0
	s.HeatingDegreeDays = 0
	s.CoolingDegreeDays = 0
	s.DayRainMM = 0
	s.Day = Extremes{}
}
