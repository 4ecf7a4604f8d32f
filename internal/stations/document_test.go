package stations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxforge/wxforge/internal/types"
)

func TestDecodeDocument(t *testing.T) {
	raw := []byte(`{
		"station": "shed",
		"timestamp": 1724918400,
		"interval_seconds": 300,
		"readings": [
			{"kind": "temperature", "value": 19.2, "unit": "C"},
			{"kind": "raincounter", "value": 31.4, "unit": "mm", "channel": 1},
			{"kind": "humidity", "text": "--", "unit": "%"},
			{"kind": "solar", "unit": "W/m2"}
		]
	}`)

	batch, err := DecodeDocument(raw, "shed")
	require.NoError(t, err)
	require.Len(t, batch, 4)

	assert.Equal(t, types.KindTemperature, batch[0].Kind)
	assert.Equal(t, 19.2, batch[0].Value)
	assert.Equal(t, time.Unix(1724918400, 0), batch[0].Timestamp)
	assert.Equal(t, 5*time.Minute, batch[0].Interval)

	assert.Equal(t, 1, batch[1].Channel)

	assert.Equal(t, "--", batch[2].Text)
	assert.True(t, batch[2].Valid)

	assert.False(t, batch[3].Valid, "no value and no text marks the measurable unreported")
}

func TestDecodeDocumentRejects(t *testing.T) {
	cases := map[string]string{
		"wrong station": `{"station": "barn", "readings": [{"kind": "temperature", "value": 1, "unit": "C"}]}`,
		"no readings":   `{"station": "shed", "readings": []}`,
		"unknown kind":  `{"station": "shed", "readings": [{"kind": "vibes", "value": 1, "unit": "C"}]}`,
		"not json":      `temperature=19.2`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(raw), "shed")
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrMalformedPayload)
		})
	}
}
