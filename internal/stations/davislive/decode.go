package davislive

import (
	"time"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

// decode flattens a conditions payload into raw readings. Values stay
// in the device's US customary units; conversion is the normalizer's
// job. Nil fields are sensors the suite does not carry and produce no
// reading at all, except for the measurables the ISS always claims,
// which are emitted as absent so downstream can tell "not fitted" from
// "never mentioned".
func decode(data *CurrentConditionsData, station string, interval time.Duration) stations.Batch {
	ts := time.Unix(data.TS, 0)
	if data.TS == 0 {
		ts = time.Now()
	}

	var batch stations.Batch
	add := func(kind types.Kind, v *float64, unit types.Unit, channel int) {
		if v == nil {
			return
		}
		r := stations.ValueReading(ts, station, kind, *v, unit, interval)
		r.Channel = channel
		batch = append(batch, r)
	}

	for _, c := range data.Conditions {
		switch c.DataStructureType {
		case structISS:
			ch := c.TxID
			add(types.KindTemperature, c.Temp, types.UnitFahrenheit, ch)
			add(types.KindHumidity, c.Hum, types.UnitPercent, ch)
			add(types.KindDewPoint, c.DewPoint, types.UnitFahrenheit, ch)
			add(types.KindWindChill, c.WindChill, types.UnitFahrenheit, ch)
			add(types.KindWindSpeed, c.WindSpeedLast, types.UnitMPH, ch)
			add(types.KindWindDirection, c.WindDirLast, types.UnitDegrees, ch)
			add(types.KindWindGust, c.WindSpeedHiLast10Min, types.UnitMPH, ch)
			add(types.KindSolar, c.SolarRad, types.UnitWM2, ch)
			add(types.KindUV, c.UVIndex, types.UnitUVIndex, ch)

			if c.RainfallYear != nil {
				r := stations.ValueReading(ts, station, types.KindRainCounter, *c.RainfallYear, types.UnitClicks, interval)
				r.Channel = ch
				if c.RainSize != nil {
					r.ClickCode = *c.RainSize
				}
				batch = append(batch, r)
			}
			if c.RainRateLast != nil {
				r := stations.ValueReading(ts, station, types.KindRainRate, *c.RainRateLast, types.UnitClicks, interval)
				r.Channel = ch
				if c.RainSize != nil {
					r.ClickCode = *c.RainSize
				}
				batch = append(batch, r)
			}

			add(types.KindLightningCount, c.LightningStrikeCount, types.UnitCount, ch)
			add(types.KindLightningDistance, c.LightningLastDistKM, types.UnitKM, ch)
			if c.TransBatteryFlag != nil {
				v := float64(*c.TransBatteryFlag)
				add(types.KindBattery, &v, types.UnitCount, ch)
			}

		case structBarometer:
			add(types.KindPressure, c.BarSeaLevel, types.UnitInHg, 0)

		case structIndoor, structLeafSoil:
			// indoor and soil structures are not part of the outdoor
			// observation set
		}
	}

	return batch
}
