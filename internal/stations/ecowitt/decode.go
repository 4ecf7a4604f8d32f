package ecowitt

import (
	"sort"
	"strconv"
	"time"

	"github.com/wxforge/wxforge/internal/archive"
	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

// decodeRealTime flattens a real-time payload into raw readings. The
// cloud was asked for metric units, so everything maps straight onto
// canonical units; values stay strings until NumericReading parses
// them, which keeps vendor placeholders ("-", "") on the anomaly path.
func decodeRealTime(data *realTimeData, station string, interval time.Duration) stations.Batch {
	ts := time.Now()
	if data.Outdoor.Temperature != nil {
		if unix, err := strconv.ParseInt(data.Outdoor.Temperature.Time, 10, 64); err == nil {
			ts = time.Unix(unix, 0)
		}
	}

	var batch stations.Batch
	add := func(kind types.Kind, m *measurement, unit types.Unit) {
		if m == nil {
			return
		}
		batch = append(batch, stations.NumericReading(ts, station, kind, m.Value, unit, interval))
	}

	add(types.KindTemperature, data.Outdoor.Temperature, types.UnitCelsius)
	add(types.KindHumidity, data.Outdoor.Humidity, types.UnitPercent)
	add(types.KindDewPoint, data.Outdoor.DewPoint, types.UnitCelsius)
	add(types.KindWindSpeed, data.Wind.WindSpeed, types.UnitMPS)
	add(types.KindWindGust, data.Wind.WindGust, types.UnitMPS)
	add(types.KindWindDirection, data.Wind.WindDirection, types.UnitDegrees)
	add(types.KindRainRate, data.Rainfall.RainRate, types.UnitMMPerHour)
	add(types.KindRainCounter, data.Rainfall.Yearly, types.UnitMM)
	add(types.KindPressure, data.Pressure.Relative, types.UnitHPa)
	add(types.KindSolar, data.SolarAndUVI.Solar, types.UnitWM2)
	add(types.KindUV, data.SolarAndUVI.UVI, types.UnitUVIndex)
	add(types.KindLightningDistance, data.Lightning.Distance, types.UnitKM)
	add(types.KindLightningCount, data.Lightning.Count, types.UnitCount)
	add(types.KindCO2, data.CO2.CO2, types.UnitPPM)

	return batch
}

// historyInterval is the bucket width of the 5min cycle type.
const historyInterval = 5 * time.Minute

// decodeHistory regroups the per-measurable series into per-timestamp
// records, ascending. The cloud returns each measurable as its own
// timestamp-keyed map; the coordinator wants whole observations.
func decodeHistory(data *historyData, station string) []archive.Record {
	byTS := make(map[int64][]types.SensorReading)
	add := func(kind types.Kind, s *series, unit types.Unit) {
		if s == nil {
			return
		}
		for key, raw := range s.List {
			unix, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				continue
			}
			r := stations.NumericReading(time.Unix(unix, 0), station, kind, raw, unit, historyInterval)
			byTS[unix] = append(byTS[unix], r)
		}
	}

	add(types.KindTemperature, data.Outdoor.Temperature, types.UnitCelsius)
	add(types.KindHumidity, data.Outdoor.Humidity, types.UnitPercent)
	add(types.KindWindSpeed, data.Wind.WindSpeed, types.UnitMPS)
	add(types.KindWindGust, data.Wind.WindGust, types.UnitMPS)
	add(types.KindWindDirection, data.Wind.WindDirection, types.UnitDegrees)
	add(types.KindRainCounter, data.Rainfall.Yearly, types.UnitMM)
	add(types.KindPressure, data.Pressure.Relative, types.UnitHPa)
	add(types.KindSolar, data.SolarAndUVI.Solar, types.UnitWM2)
	add(types.KindUV, data.SolarAndUVI.UVI, types.UnitUVIndex)

	records := make([]archive.Record, 0, len(byTS))
	for unix, readings := range byTS {
		records = append(records, archive.Record{
			Timestamp: time.Unix(unix, 0),
			Readings:  readings,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}
