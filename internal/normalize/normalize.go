// Package normalize converts raw vendor readings into canonical station
// units and detects the sentinel values vendors use for missing data.
package normalize

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/types"
)

// Canonical units: temperature °C, speed m/s, rain mm, pressure hPa,
// distance km.

// Rain click sizes in millimetres, by vendor size code.
var rainClickSizes = map[int]float64{
	1: 0.254,  // 0.01 in
	2: 0.2,    // 0.2 mm
	3: 0.1,    // 0.1 mm
	4: 0.0254, // 0.001 in
}

const (
	// lightningNoStrike is the "no event yet" marker some consoles report
	// for strike distance, in whichever distance unit they use.
	lightningNoStrike = 255
	// counterNoEvent is the uninitialized-counter marker.
	counterNoEvent = 0xFFFFFFFF
	// tempSentinel is reported by several vendors for a missing
	// temperature probe.
	tempSentinel = -99
)

// Normalizer converts SensorReadings to NormalizedSamples. It never
// fails: bad input becomes an Absent sample, a debug log line, and an
// anomaly counter increment.
type Normalizer struct {
	caps      types.StationCapabilities
	logger    *zap.SugaredLogger
	anomalies atomic.Uint64
}

// New creates a Normalizer for one station.
func New(caps types.StationCapabilities, logger *zap.SugaredLogger) *Normalizer {
	return &Normalizer{caps: caps, logger: logger}
}

// Anomalies returns the number of sentinel or unparseable readings seen.
func (n *Normalizer) Anomalies() uint64 {
	return n.anomalies.Load()
}

// Normalize converts one reading to canonical units. Sentinel and
// unparseable input yields an Absent sample, never an error.
func (n *Normalizer) Normalize(r types.SensorReading) types.NormalizedSample {
	s := types.NormalizedSample{
		Timestamp: r.Timestamp,
		Station:   r.Station,
		Kind:      r.Kind,
		Channel:   r.Channel,
		Interval:  r.Interval,
	}

	if !r.Valid {
		s.Absent = types.AbsentUnsupported
		return s
	}

	// Drivers set Text only when the vendor field did not parse as a
	// number ("--", empty quoted fields, junk).
	if r.Text != "" {
		return n.absent(r, s, "non-numeric placeholder")
	}

	if sentinel, reason := n.isSentinel(r); sentinel {
		return n.absent(r, s, reason)
	}

	value, unit := n.toCanonical(r)
	s.Value = value
	s.Unit = unit
	s.Absent = types.AbsentNone
	return s
}

func (n *Normalizer) absent(r types.SensorReading, s types.NormalizedSample, reason string) types.NormalizedSample {
	n.anomalies.Add(1)
	if n.logger != nil {
		n.logger.Debugw("reading discarded as absent",
			"station", r.Station,
			"kind", r.Kind.String(),
			"channel", r.Channel,
			"raw", r.Value,
			"text", r.Text,
			"reason", reason)
	}
	s.Absent = types.AbsentNoData
	return s
}

// isSentinel detects per-kind "no data" markers.
func (n *Normalizer) isSentinel(r types.SensorReading) (bool, string) {
	switch r.Kind {
	case types.KindTemperature:
		if r.Value == tempSentinel {
			return true, "temperature sentinel -99"
		}
	case types.KindLightningDistance:
		if r.Value == lightningNoStrike {
			return true, "no strike recorded yet"
		}
	case types.KindLightningCount, types.KindRainCounter:
		if uint64(r.Value) == counterNoEvent {
			return true, "counter not initialized"
		}
	case types.KindHumidity:
		if r.Value < 0 || r.Value > 100 {
			return true, "humidity out of range"
		}
	}
	return false, ""
}

// toCanonical converts a present value to the station's canonical units.
func (n *Normalizer) toCanonical(r types.SensorReading) (float64, types.Unit) {
	switch r.Kind {
	case types.KindTemperature:
		return toCelsius(r.Value, r.Unit), types.UnitCelsius
	case types.KindWindSpeed, types.KindWindGust:
		return toMetersPerSecond(r.Value, r.Unit), types.UnitMPS
	case types.KindWindDirection:
		// Normalize into [0, 360).
		d := r.Value
		for d < 0 {
			d += 360
		}
		for d >= 360 {
			d -= 360
		}
		return d, types.UnitDegrees
	case types.KindRainCounter:
		if r.Unit == types.UnitClicks {
			return r.Value * n.rainClickSize(r.ClickCode), types.UnitMM
		}
		return toMillimetres(r.Value, r.Unit), types.UnitMM
	case types.KindRainRate:
		if r.Unit == types.UnitClicks {
			return r.Value * n.rainClickSize(r.ClickCode), types.UnitMMPerHour
		}
		if r.Unit == types.UnitInPerHour {
			return r.Value * 25.4, types.UnitMMPerHour
		}
		return r.Value, types.UnitMMPerHour
	case types.KindPressure:
		if r.Unit == types.UnitInHg {
			return r.Value * 33.8639, types.UnitHPa
		}
		return r.Value, types.UnitHPa
	case types.KindLightningDistance:
		if r.Unit == types.UnitMiles {
			return r.Value * 1.609344, types.UnitKM
		}
		return r.Value, types.UnitKM
	case types.KindSolar:
		return r.Value, types.UnitWM2
	case types.KindUV:
		return r.Value, types.UnitUVIndex
	case types.KindCO2:
		return r.Value, types.UnitPPM
	case types.KindAirQuality:
		return r.Value, types.UnitUGM3
	case types.KindBattery:
		return r.Value, types.UnitVolts
	default:
		return r.Value, r.Unit
	}
}

// rainClickSize resolves a vendor click size code to millimetres. An
// unrecognized or zero code falls back to the configured gauge type so
// the reading is never silently dropped.
func (n *Normalizer) rainClickSize(code int) float64 {
	if size, ok := rainClickSizes[code]; ok {
		return size
	}

	switch n.caps.RainGaugeOverride {
	case types.RainGaugeImperial:
		return rainClickSizes[1]
	case types.RainGaugeMetric:
		return rainClickSizes[2]
	}

	if n.logger != nil {
		n.logger.Warnf("unrecognized rain click code %d and no gauge override configured, assuming 0.2 mm", code)
	}
	return rainClickSizes[2]
}

func toCelsius(v float64, u types.Unit) float64 {
	if u == types.UnitFahrenheit {
		return (v - 32) * 5 / 9
	}
	return v
}

func toMetersPerSecond(v float64, u types.Unit) float64 {
	switch u {
	case types.UnitMPH:
		return v * 0.44704
	case types.UnitKMH:
		return v / 3.6
	case types.UnitKnots:
		return v * 0.514444
	default:
		return v
	}
}

func toMillimetres(v float64, u types.Unit) float64 {
	if u == types.UnitInch {
		return v * 25.4
	}
	return v
}
