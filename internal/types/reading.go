// Package types holds the reading and sample types shared by every
// station driver and the derived-metrics engine.
package types

import (
	"time"
)

// Kind identifies what a sensor reading measures.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTemperature
	KindHumidity
	KindWindSpeed
	KindWindGust
	KindWindDirection
	KindRainCounter
	KindRainRate
	KindPressure
	KindSolar
	KindUV
	KindLightningDistance
	KindLightningCount
	KindSoilMoisture
	KindLeafWetness
	KindAirQuality
	KindCO2
	KindBattery

	// Vendor-computed derived values. Folded only when the station's
	// capabilities say the vendor supplies them.
	KindDewPoint
	KindWindChill
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindTemperature:       "temperature",
	KindHumidity:          "humidity",
	KindWindSpeed:         "windspeed",
	KindWindGust:          "windgust",
	KindWindDirection:     "winddir",
	KindRainCounter:       "raincounter",
	KindRainRate:          "rainrate",
	KindPressure:          "pressure",
	KindSolar:             "solar",
	KindUV:                "uv",
	KindLightningDistance: "lightningdist",
	KindLightningCount:    "lightningcount",
	KindSoilMoisture:      "soilmoisture",
	KindLeafWetness:       "leafwetness",
	KindAirQuality:        "airquality",
	KindCO2:               "co2",
	KindBattery:           "battery",
	KindDewPoint:          "dewpoint",
	KindWindChill:         "windchill",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves a kind by its wire name. Unrecognized names map to
// KindUnknown with ok=false.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// Unit is the unit of measure a value was reported or normalized in.
type Unit string

const (
	UnitNone       Unit = ""
	UnitCelsius    Unit = "C"
	UnitFahrenheit Unit = "F"
	UnitPercent    Unit = "%"
	UnitMPS        Unit = "m/s"
	UnitMPH        Unit = "mph"
	UnitKMH        Unit = "km/h"
	UnitKnots      Unit = "kt"
	UnitDegrees    Unit = "deg"
	UnitMM         Unit = "mm"
	UnitInch       Unit = "in"
	UnitMMPerHour  Unit = "mm/h"
	UnitInPerHour  Unit = "in/h"
	UnitHPa        Unit = "hPa"
	UnitInHg       Unit = "inHg"
	UnitWM2        Unit = "W/m2"
	UnitUVIndex    Unit = "uvi"
	UnitKM         Unit = "km"
	UnitMiles      Unit = "mi"
	UnitCount      Unit = "count"
	UnitClicks     Unit = "clicks"
	UnitPPM        Unit = "ppm"
	UnitUGM3       Unit = "ug/m3"
	UnitVolts      Unit = "V"
)

// SensorReading is one raw decoded value from a station transport. It is
// immutable once constructed; drivers build them, the normalizer consumes
// them. Text carries the vendor's literal representation when the value
// did not parse as a number (e.g. "--").
type SensorReading struct {
	Timestamp time.Time
	Station   string
	Kind      Kind
	Channel   int
	Value     float64
	Text      string
	Unit      Unit
	Valid     bool

	// Interval is the span of time this reading covers: one polling tick
	// for live data, the bucket width for historical records. Used by the
	// engine for time-weighted accumulation.
	Interval time.Duration

	// ClickCode is the vendor rain gauge size code. Only meaningful on
	// RainCounter readings whose unit is UnitClicks.
	ClickCode int
}

// AbsentReason distinguishes why a normalized sample has no value. The
// vendors are inconsistent about whether a sentinel means "sensor not
// fitted" or "no data yet this cycle", so both survive normalization
// as distinct states.
type AbsentReason uint8

const (
	// AbsentNone means the sample carries a real value.
	AbsentNone AbsentReason = iota
	// AbsentUnsupported means the station does not report this measurable.
	AbsentUnsupported
	// AbsentNoData means the measurable is supported but no value was
	// available this cycle (sentinel, empty field, parse failure).
	AbsentNoData
)

func (r AbsentReason) String() string {
	switch r {
	case AbsentNone:
		return "present"
	case AbsentUnsupported:
		return "unsupported"
	case AbsentNoData:
		return "nodata"
	default:
		return "unknown"
	}
}

// NormalizedSample is a SensorReading converted to canonical station
// units. Absent is a valid state, not an error.
type NormalizedSample struct {
	Timestamp time.Time
	Station   string
	Kind      Kind
	Channel   int
	Value     float64
	Unit      Unit
	Absent    AbsentReason
	Interval  time.Duration
}

// IsAbsent reports whether the sample carries no usable value.
func (s NormalizedSample) IsAbsent() bool {
	return s.Absent != AbsentNone
}
