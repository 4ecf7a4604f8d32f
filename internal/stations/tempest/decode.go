package tempest

import (
	"time"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

// decodeObs converts one obs_st observation row into raw readings. The
// vendor reports rain as millimetres accumulated over the report
// interval, not as a counter, so the caller supplies a running counter
// that this driver maintains itself.
func decodeObs(row []float64, station string, counterMM float64) (stations.Batch, float64) {
	if len(row) < obsFieldCount {
		return nil, counterMM
	}

	ts := time.Unix(int64(row[obsEpoch]), 0)
	interval := time.Duration(row[obsReportInterval]) * time.Minute
	if interval <= 0 {
		interval = time.Minute
	}

	counterMM += row[obsRainAccum]

	add := func(kind types.Kind, v float64, unit types.Unit) types.SensorReading {
		return stations.ValueReading(ts, station, kind, v, unit, interval)
	}

	batch := stations.Batch{
		add(types.KindTemperature, row[obsAirTemp], types.UnitCelsius),
		add(types.KindHumidity, row[obsHumidity], types.UnitPercent),
		add(types.KindWindSpeed, row[obsWindAvg], types.UnitMPS),
		add(types.KindWindGust, row[obsWindGust], types.UnitMPS),
		add(types.KindWindDirection, row[obsWindDir], types.UnitDegrees),
		add(types.KindPressure, row[obsPressure], types.UnitHPa),
		add(types.KindUV, row[obsUV], types.UnitUVIndex),
		add(types.KindSolar, row[obsSolar], types.UnitWM2),
		add(types.KindRainCounter, counterMM, types.UnitMM),
		add(types.KindLightningDistance, row[obsLightningDist], types.UnitKM),
		add(types.KindLightningCount, row[obsLightningCount], types.UnitCount),
		add(types.KindBattery, row[obsBattery], types.UnitVolts),
	}
	return batch, counterMM
}

// decodeRapidWind converts a rapid_wind observation. These arrive every
// few seconds between full observations.
func decodeRapidWind(ob []float64, station string) stations.Batch {
	if len(ob) < 3 {
		return nil
	}
	ts := time.Unix(int64(ob[rapidEpoch]), 0)
	return stations.Batch{
		stations.ValueReading(ts, station, types.KindWindSpeed, ob[rapidSpeed], types.UnitMPS, 3*time.Second),
		stations.ValueReading(ts, station, types.KindWindDirection, ob[rapidDir], types.UnitDegrees, 3*time.Second),
	}
}

// decodeStrike converts an evt_strike event.
func decodeStrike(evt []float64, station string) stations.Batch {
	if len(evt) < 2 {
		return nil
	}
	ts := time.Unix(int64(evt[strikeEpoch]), 0)
	return stations.Batch{
		stations.ValueReading(ts, station, types.KindLightningDistance, evt[strikeDistance], types.UnitKM, 0),
		stations.ValueReading(ts, station, types.KindLightningCount, 1, types.UnitCount, 0),
	}
}
