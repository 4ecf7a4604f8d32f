package ecowitt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

const sampleRealTime = `{
  "code": 0, "msg": "success", "time": "1724918400",
  "data": {
    "outdoor": {
      "temperature": {"time": "1724918400", "unit": "C", "value": "22.4"},
      "humidity": {"time": "1724918400", "unit": "%", "value": "61"}
    },
    "wind": {
      "wind_speed": {"time": "1724918400", "unit": "m/s", "value": "3.1"},
      "wind_gust": {"time": "1724918400", "unit": "m/s", "value": "5.8"},
      "wind_direction": {"time": "1724918400", "unit": "deg", "value": "204"}
    },
    "rainfall": {
      "rain_rate": {"time": "1724918400", "unit": "mm/hr", "value": "0.0"},
      "yearly": {"time": "1724918400", "unit": "mm", "value": "412.6"}
    },
    "pressure": {
      "relative": {"time": "1724918400", "unit": "hPa", "value": "1013.2"}
    },
    "solar_and_uvi": {
      "solar": {"time": "1724918400", "unit": "W/m2", "value": "540.1"},
      "uvi": {"time": "1724918400", "unit": "", "value": "-"}
    }
  }
}`

func find(batch stations.Batch, kind types.Kind) (types.SensorReading, bool) {
	for _, r := range batch {
		if r.Kind == kind {
			return r, true
		}
	}
	return types.SensorReading{}, false
}

func TestDecodeRealTime(t *testing.T) {
	var resp realTimeResponse
	require.NoError(t, json.Unmarshal([]byte(sampleRealTime), &resp))

	batch := decodeRealTime(&resp.Data, "paddock", time.Minute)

	temp, ok := find(batch, types.KindTemperature)
	require.True(t, ok)
	assert.Equal(t, 22.4, temp.Value)
	assert.Equal(t, types.UnitCelsius, temp.Unit)
	assert.Equal(t, time.Unix(1724918400, 0), temp.Timestamp)

	counter, ok := find(batch, types.KindRainCounter)
	require.True(t, ok)
	assert.Equal(t, 412.6, counter.Value)
	assert.Equal(t, types.UnitMM, counter.Unit)

	// dew point absent from the payload: no reading at all
	_, ok = find(batch, types.KindDewPoint)
	assert.False(t, ok)
}

func TestDecodeRealTimePlaceholderStaysText(t *testing.T) {
	var resp realTimeResponse
	require.NoError(t, json.Unmarshal([]byte(sampleRealTime), &resp))

	batch := decodeRealTime(&resp.Data, "paddock", time.Minute)

	uvi, ok := find(batch, types.KindUV)
	require.True(t, ok)
	assert.Equal(t, "-", uvi.Text)
	assert.True(t, uvi.Valid)
}

func TestDecodeHistoryRegroupsAndSorts(t *testing.T) {
	data := &historyData{}
	data.Outdoor.Temperature = &series{
		Unit: "C",
		List: map[string]string{
			"1724919000": "21.0",
			"1724918400": "22.0",
			"1724918700": "21.5",
		},
	}
	data.Outdoor.Humidity = &series{
		Unit: "%",
		List: map[string]string{
			"1724918400": "60",
			"1724918700": "62",
		},
	}

	records := decodeHistory(data, "paddock")
	require.Len(t, records, 3)

	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].Timestamp.After(records[i-1].Timestamp),
			"records must be ascending")
	}

	assert.Len(t, records[0].Readings, 2, "same-timestamp measurables merge into one record")
	assert.Len(t, records[2].Readings, 1)
	for _, r := range records[0].Readings {
		assert.Equal(t, historyInterval, r.Interval)
	}
}
