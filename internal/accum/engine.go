package accum

import (
	"time"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/types"
)

const (
	// sunshineThresholdWM2 is the solar radiation level above which a
	// minute counts as sunshine.
	sunshineThresholdWM2 = 120.0
	// chillThresholdC is the chill-hours temperature threshold.
	chillThresholdC = 7.0
	// degreeDayBaseC is the heating/cooling degree-day reference (65°F).
	degreeDayBaseC = 18.3
)

// Engine folds normalized samples into the accumulator state and emits
// one Snapshot per processed timestamp. It behaves identically whether
// fed one live sample at a time or an entire historical batch, because
// all time-weighted accumulation scales by the sample's own interval.
//
// The engine is not safe for concurrent use; the station session
// guarantees a single caller.
type Engine struct {
	station string
	caps    types.StationCapabilities
	loc     *time.Location
	logger  *zap.SugaredLogger
	st      *State
	wind    *windAverager
	cur     current
}

// current holds the latest observed values used for derived metrics.
type current struct {
	tempC      float64
	tempOK     bool
	humidity   float64
	humidityOK bool
	windMS     float64
	windOK     bool
	gustMS     float64
	dirDeg     float64
	dirOK      bool
	pressure   float64
	pressureOK bool
	rainRate   float64
	solar      float64
	uv         float64
	co2        float64

	// vendor-supplied derived values, honored per capabilities
	vendorDewPoint float64
	vendorDewOK    bool
	vendorChill    float64
	vendorChillOK  bool
}

// New creates an engine around st, which may be a freshly-zeroed State
// or one restored from the state store.
func New(station string, caps types.StationCapabilities, loc *time.Location, st *State, logger *zap.SugaredLogger) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if st == nil {
		st = &State{}
	}
	return &Engine{
		station: station,
		caps:    caps,
		loc:     loc,
		logger:  logger,
		st:      st,
		wind:    newWindAverager(10 * time.Minute),
	}
}

// State exposes the accumulator state for persistence. Callers must not
// mutate it.
func (e *Engine) State() *State {
	return e.st
}

// Apply folds all samples for one timestamp and returns the resulting
// snapshot. Samples must be for the same instant; batches from archive
// catch-up call Apply once per historical record, in ascending order.
func (e *Engine) Apply(ts time.Time, samples []types.NormalizedSample) Snapshot {
	local := ts.In(e.loc)

	e.checkMidnight(local)
	e.checkRollover(local)

	for _, s := range samples {
		if s.IsAbsent() {
			continue
		}
		e.fold(local, s)
	}

	e.st.LastTimestamp = ts
	return e.snapshot(ts)
}

// checkRollover drives the day rollover state machine. Entering the
// rollover hour with the done flag clear performs the transition;
// leaving the hour clears the flag so the next day can trigger again.
func (e *Engine) checkRollover(local time.Time) {
	hour := e.caps.RolloverHour
	if e.caps.UseDSTShiftedRollover && local.IsDST() {
		hour++
	}

	if local.Hour() != hour {
		e.st.RolloverDone = false
		return
	}
	if e.st.RolloverDone {
		return
	}

	e.rollover(local)
	e.st.RolloverDone = true
}

// checkMidnight tracks the independent local-midnight reset for
// rain-since-midnight and sunshine hours. Rollover hour and midnight
// are not always the same hour, so this keeps its own done flag.
func (e *Engine) checkMidnight(local time.Time) {
	if local.Hour() != 0 {
		e.st.MidnightDone = false
		return
	}
	if e.st.MidnightDone {
		return
	}

	e.st.SunshineHours = 0
	e.st.RainSinceMidnightMM = 0
	e.st.MidnightDone = true
	if e.logger != nil {
		e.logger.Debugf("station [%s] midnight reset at %s", e.station, local.Format(time.RFC3339))
	}
}

// rollover closes the day: flush day records into the longer scopes,
// reset month/year sets on period boundaries, then clear the
// day-scoped accumulators.
func (e *Engine) rollover(local time.Time) {
	e.st.Month.absorb(&e.st.Day)
	e.st.Year.absorb(&e.st.Day)
	e.st.AllTime.absorb(&e.st.Day)

	if e.st.LastRolloverMonth != 0 && e.st.LastRolloverMonth != local.Month() {
		e.st.Month = Extremes{}
	}
	if e.st.LastRolloverYear != 0 && e.st.LastRolloverYear != local.Year() {
		e.st.Year = Extremes{}
	}
	e.st.LastRolloverMonth = local.Month()
	e.st.LastRolloverYear = local.Year()

	e.st.resetDay()
	e.wind.reset()

	if e.logger != nil {
		e.logger.Infof("station [%s] day rollover at %s", e.station, local.Format(time.RFC3339))
	}
}

func (e *Engine) fold(local time.Time, s types.NormalizedSample) {
	hours := s.Interval.Hours()

	switch s.Kind {
	case types.KindTemperature:
		e.cur.tempC = s.Value
		e.cur.tempOK = true
		e.st.TempSumC += s.Value
		e.st.TempSamples++
		e.st.Day.TempHigh.noteHigh(s.Value, local)
		e.st.Day.TempLow.noteLow(s.Value, local)
		if s.Value < chillThresholdC {
			e.st.ChillHours += hours
		}
		if s.Value < degreeDayBaseC {
			e.st.HeatingDegreeDays += (degreeDayBaseC - s.Value) * hours / 24
		} else {
			e.st.CoolingDegreeDays += (s.Value - degreeDayBaseC) * hours / 24
		}

	case types.KindHumidity:
		e.cur.humidity = s.Value
		e.cur.humidityOK = true
		e.st.Day.HumidityHigh.noteHigh(s.Value, local)
		e.st.Day.HumidityLow.noteLow(s.Value, local)

	case types.KindWindSpeed:
		if !e.primaryWind(s.Channel) {
			return
		}
		e.cur.windMS = s.Value
		e.cur.windOK = true
		e.st.WindRunKM += s.Value * 3.6 * hours
		e.st.Day.WindHigh.noteHigh(s.Value, local)
		if !e.caps.UsesSpeedForAverage {
			e.wind.add(local, s.Value, e.cur.dirDeg, e.cur.dirOK)
		}

	case types.KindWindGust:
		if !e.primaryWind(s.Channel) {
			return
		}
		e.cur.gustMS = s.Value
		e.st.Day.GustHigh.noteHigh(s.Value, local)

	case types.KindWindDirection:
		if !e.primaryWind(s.Channel) {
			return
		}
		e.cur.dirDeg = s.Value
		e.cur.dirOK = true

	case types.KindRainCounter:
		if !e.primaryRain(s.Channel) {
			return
		}
		e.foldRainCounter(s)

	case types.KindRainRate:
		if !e.primaryRain(s.Channel) {
			return
		}
		e.cur.rainRate = s.Value
		e.st.Day.RainRateHigh.noteHigh(s.Value, local)

	case types.KindPressure:
		e.cur.pressure = s.Value
		e.cur.pressureOK = true
		e.st.Day.PressureHigh.noteHigh(s.Value, local)
		e.st.Day.PressureLow.noteLow(s.Value, local)

	case types.KindSolar:
		e.cur.solar = s.Value
		if s.Value >= sunshineThresholdWM2 {
			e.st.SunshineHours += hours
		}

	case types.KindUV:
		e.cur.uv = s.Value

	case types.KindCO2:
		e.cur.co2 = s.Value

	case types.KindDewPoint:
		if e.caps.ComputesDewPoint {
			e.cur.vendorDewPoint = s.Value
			e.cur.vendorDewOK = true
		}

	case types.KindWindChill:
		if e.caps.ComputesWindChill {
			e.cur.vendorChill = s.Value
			e.cur.vendorChillOK = true
		}

	case types.KindLightningDistance, types.KindLightningCount:
		e.foldLightning(s)
	}
}

// foldRainCounter updates rain totals from the cumulative counter. A
// counter decrease means the vendor reset; the baseline rebases so the
// delta is never negative.
func (e *Engine) foldRainCounter(s types.NormalizedSample) {
	if !e.st.RainCounterSeen {
		e.st.RainCounterMM = s.Value
		e.st.RainCounterSeen = true
		return
	}

	delta := s.Value - e.st.RainCounterMM
	if delta < 0 {
		if e.logger != nil {
			e.logger.Warnf("station [%s] rain counter decreased from %.2f to %.2f, rebasing",
				e.station, e.st.RainCounterMM, s.Value)
		}
		delta = 0
	}
	e.st.RainCounterMM = s.Value

	if delta > 0 {
		e.st.DayRainMM += delta
		e.st.RainSinceMidnightMM += delta
		e.st.Day.RainTotal += delta
	}

	if s.Interval > 0 {
		rate := delta * float64(time.Hour) / float64(s.Interval)
		// Vendor-supplied rates take precedence within the same batch,
		// but a computed rate still feeds the day record.
		e.cur.rainRate = rate
		e.st.Day.RainRateHigh.noteHigh(rate, s.Timestamp.In(e.loc))
	}
}

// foldLightning applies the monotonicity guard: vendors resend a stale
// default on device reboot, so only strictly newer events are accepted.
func (e *Engine) foldLightning(s types.NormalizedSample) {
	if !s.Timestamp.After(e.st.LightningAt) {
		if e.logger != nil {
			e.logger.Debugw("stale lightning event ignored",
				"station", e.station,
				"event_time", s.Timestamp,
				"stored_time", e.st.LightningAt,
				"reason", types.ErrClockAnomaly.Error())
		}
		return
	}

	switch s.Kind {
	case types.KindLightningDistance:
		e.st.LightningDistKM = s.Value
		e.st.LightningAt = s.Timestamp
	case types.KindLightningCount:
		e.st.LightningCount = s.Value
		e.st.LightningAt = s.Timestamp
	}
}

func (e *Engine) primaryWind(channel int) bool {
	return e.caps.PrimaryWindChannel == 0 || channel == e.caps.PrimaryWindChannel
}

func (e *Engine) primaryRain(channel int) bool {
	return e.caps.PrimaryRainChannel == 0 || channel == e.caps.PrimaryRainChannel
}
