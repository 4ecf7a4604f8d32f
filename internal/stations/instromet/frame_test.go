package instromet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
	"github.com/wxforge/wxforge/pkg/checksum"
)

func frame(payload string) []byte {
	return append(checksum.AppendFrame([]byte(payload)), '\r', '\n')
}

func find(batch stations.Batch, kind types.Kind) (types.SensorReading, bool) {
	for _, r := range batch {
		if r.Kind == kind {
			return r, true
		}
	}
	return types.SensorReading{}, false
}

func TestParseFrame(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	line := frame("IMET,18.4,61,3.2,5.9,245,1284,1009.8,412,3.1,")

	batch, err := parseFrame(line, "paddock", ts, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 9)

	temp, ok := find(batch, types.KindTemperature)
	require.True(t, ok)
	assert.Equal(t, 18.4, temp.Value)
	assert.Equal(t, types.UnitCelsius, temp.Unit)
	assert.Equal(t, ts, temp.Timestamp)

	rain, ok := find(batch, types.KindRainCounter)
	require.True(t, ok)
	assert.Equal(t, 1284.0, rain.Value)
	assert.Equal(t, types.UnitClicks, rain.Unit)
	assert.Zero(t, rain.ClickCode, "gauge size comes from configuration, not the frame")
}

func TestParseFrameUnfittedSensorStaysText(t *testing.T) {
	line := frame("IMET,18.4,61,3.2,5.9,245,1284,1009.8,--,--,")

	batch, err := parseFrame(line, "paddock", time.Now(), 30*time.Second)
	require.NoError(t, err)

	solar, ok := find(batch, types.KindSolar)
	require.True(t, ok)
	assert.Equal(t, "--", solar.Text)
	assert.True(t, solar.Valid)
}

func TestParseFrameRejectsBadChecksum(t *testing.T) {
	line := []byte("IMET,18.4,61,3.2,5.9,245,1284,1009.8,412,3.1,7\r\n")

	_, err := parseFrame(line, "paddock", time.Now(), 30*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMalformedPayload)
}

func TestParseFrameRejectsWrongShape(t *testing.T) {
	cases := map[string]string{
		"short frame": "IMET,18.4,61,",
		"wrong tag":   "XMET,18.4,61,3.2,5.9,245,1284,1009.8,412,3.1,",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseFrame(frame(payload), "paddock", time.Now(), 30*time.Second)
			assert.ErrorIs(t, err, types.ErrMalformedPayload)
		})
	}
}
