package accum

import (
	"time"
)

// Snapshot is the fully-derived record emitted once per processed
// timestamp and consumed by logging, publishing, and display sinks.
// All values are canonical units.
type Snapshot struct {
	Timestamp time.Time
	Station   string

	TempC      float64
	TempOK     bool
	Humidity   float64
	HumidityOK bool

	DewPointC  float64
	WindChillC float64
	HeatIndexC float64
	HumidexC   float64
	ApparentC  float64
	FeelsLikeC float64
	CloudBaseM float64

	WindSpeedMS   float64
	WindOK        bool
	WindGustMS    float64
	WindDirDeg    float64
	WindAvgMS     float64
	WindAvgDirDeg float64

	PressureHPa float64
	PressureOK  bool

	RainRateMMH         float64
	DayRainMM           float64
	RainSinceMidnightMM float64

	SolarWM2 float64
	UVIndex  float64
	CO2PPM   float64

	TempAvgC          float64
	WindRunKM         float64
	SunshineHours     float64
	ChillHours        float64
	HeatingDegreeDays float64
	CoolingDegreeDays float64

	LightningDistKM float64
	LightningAt     time.Time
	LightningCount  float64

	Day Extremes
}

// snapshot assembles the outbound record from the current values and
// accumulators, computing whatever derived quantities the vendor did
// not supply.
func (e *Engine) snapshot(ts time.Time) Snapshot {
	s := Snapshot{
		Timestamp: ts,
		Station:   e.station,

		TempC:      e.cur.tempC,
		TempOK:     e.cur.tempOK,
		Humidity:   e.cur.humidity,
		HumidityOK: e.cur.humidityOK,

		WindSpeedMS: e.cur.windMS,
		WindOK:      e.cur.windOK,
		WindGustMS:  e.cur.gustMS,
		WindDirDeg:  e.cur.dirDeg,

		PressureHPa: e.cur.pressure,
		PressureOK:  e.cur.pressureOK,

		RainRateMMH:         e.cur.rainRate,
		DayRainMM:           e.st.DayRainMM,
		RainSinceMidnightMM: e.st.RainSinceMidnightMM,

		SolarWM2: e.cur.solar,
		UVIndex:  e.cur.uv,
		CO2PPM:   e.cur.co2,

		WindRunKM:         e.st.WindRunKM,
		SunshineHours:     e.st.SunshineHours,
		ChillHours:        e.st.ChillHours,
		HeatingDegreeDays: e.st.HeatingDegreeDays,
		CoolingDegreeDays: e.st.CoolingDegreeDays,

		LightningDistKM: e.st.LightningDistKM,
		LightningAt:     e.st.LightningAt,
		LightningCount:  e.st.LightningCount,

		Day: e.st.Day,
	}

	if e.st.TempSamples > 0 {
		s.TempAvgC = e.st.TempSumC / float64(e.st.TempSamples)
	}

	// Wind average: vendor rolling average or local computation, chosen
	// once per station by capability flag.
	if e.caps.UsesSpeedForAverage {
		s.WindAvgMS = e.cur.windMS
		s.WindAvgDirDeg = e.cur.dirDeg
	} else if avg, dir, ok := e.wind.average(); ok {
		s.WindAvgMS = avg
		s.WindAvgDirDeg = dir
	}

	if e.cur.tempOK && e.cur.humidityOK {
		if e.caps.ComputesDewPoint && e.cur.vendorDewOK {
			s.DewPointC = e.cur.vendorDewPoint
		} else {
			s.DewPointC = DewPoint(e.cur.tempC, e.cur.humidity)
		}
		s.HeatIndexC = HeatIndex(e.cur.tempC, e.cur.humidity)
		s.HumidexC = Humidex(e.cur.tempC, e.cur.humidity)
		s.CloudBaseM = CloudBase(e.cur.tempC, s.DewPointC)
	}

	if e.cur.tempOK && e.cur.windOK {
		if e.caps.ComputesWindChill && e.cur.vendorChillOK {
			s.WindChillC = e.cur.vendorChill
		} else {
			s.WindChillC = WindChill(e.cur.tempC, e.cur.windMS)
		}
	}

	if e.cur.tempOK && e.cur.humidityOK && e.cur.windOK {
		s.ApparentC = ApparentTemperature(e.cur.tempC, e.cur.humidity, e.cur.windMS)
		s.FeelsLikeC = FeelsLike(e.cur.tempC, e.cur.humidity, e.cur.windMS)
	}

	return s
}
