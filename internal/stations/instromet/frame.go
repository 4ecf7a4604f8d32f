package instromet

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wxforge/wxforge/pkg/checksum"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

// The console answers the poll command with one comma-framed ASCII
// record, checksummed over every byte through the last comma:
//
//	IMET,<tempC>,<hum%>,<windMS>,<gustMS>,<dirDeg>,<rainClicks>,<presHPa>,<solarWM2>,<sunMin>,<cksum>
//
// Unfitted sensors report "--". The rain field is a cumulative click
// counter; the gauge size comes from configuration, so readings carry
// no click code and the normalizer falls back to the gauge-type
// override.

const frameTag = "IMET"

const frameFields = 10 // tag + 9 measurables, checksum excluded

// parseFrame validates and decodes one record into raw readings.
func parseFrame(line []byte, station string, ts time.Time, interval time.Duration) (stations.Batch, error) {
	payload, err := checksum.VerifyFrame(bytes.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, types.ErrMalformedPayload)
	}

	fields := bytes.Split(payload, []byte(","))
	if len(fields) != frameFields {
		return nil, fmt.Errorf("frame has %d fields, want %d: %w", len(fields), frameFields, types.ErrMalformedPayload)
	}
	if string(fields[0]) != frameTag {
		return nil, fmt.Errorf("frame tag %q, want %q: %w", fields[0], frameTag, types.ErrMalformedPayload)
	}

	kinds := []struct {
		kind types.Kind
		unit types.Unit
	}{
		{types.KindTemperature, types.UnitCelsius},
		{types.KindHumidity, types.UnitPercent},
		{types.KindWindSpeed, types.UnitMPS},
		{types.KindWindGust, types.UnitMPS},
		{types.KindWindDirection, types.UnitDegrees},
		{types.KindRainCounter, types.UnitClicks},
		{types.KindPressure, types.UnitHPa},
		{types.KindSolar, types.UnitWM2},
		{types.KindUV, types.UnitUVIndex},
	}

	batch := make(stations.Batch, 0, len(kinds))
	for i, k := range kinds {
		batch = append(batch, stations.NumericReading(ts, station, k.kind, string(fields[i+1]), k.unit, interval))
	}
	return batch, nil
}
