package stations

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wxforge/wxforge/internal/types"
	"github.com/wxforge/wxforge/pkg/config"
)

// Capabilities maps station configuration to the engine's capability
// flags. Consulted once at session construction.
func Capabilities(cfg config.StationData) types.StationCapabilities {
	caps := types.StationCapabilities{
		ComputesDewPoint:      cfg.VendorComputesDewPoint,
		ComputesWindChill:     cfg.VendorComputesWindChill,
		UsesSpeedForAverage:   cfg.VendorWindAverage,
		PrimaryWindChannel:    cfg.PrimaryWindChannel,
		PrimaryRainChannel:    cfg.PrimaryRainChannel,
		RolloverHour:          cfg.RolloverHour,
		UseDSTShiftedRollover: cfg.UseDSTShiftedRollover,
	}

	switch cfg.RainGaugeType {
	case "metric":
		caps.RainGaugeOverride = types.RainGaugeMetric
	case "imperial":
		caps.RainGaugeOverride = types.RainGaugeImperial
	}

	return caps
}

// Location resolves the station's timezone, defaulting to the host's.
func Location(cfg config.StationData) (*time.Location, error) {
	if cfg.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("station [%s] invalid timezone %q: %w: %w",
			cfg.Name, cfg.Timezone, err, types.ErrConfiguration)
	}
	return loc, nil
}

// ValidateNetwork checks that a network driver has an address to dial.
func ValidateNetwork(cfg config.StationData) error {
	if cfg.Hostname == "" {
		return fmt.Errorf("station [%s] requires a hostname: %w", cfg.Name, types.ErrConfiguration)
	}
	return nil
}

// ValidateSerial checks that a serial driver has a device to open.
func ValidateSerial(cfg config.StationData) error {
	if cfg.SerialDevice == "" {
		return fmt.Errorf("station [%s] requires a serial device: %w", cfg.Name, types.ErrConfiguration)
	}
	return nil
}

// NumericReading builds a reading from a vendor field that may be a
// placeholder. Unparseable text ends up in Text so the normalizer can
// record the anomaly instead of the driver guessing.
func NumericReading(ts time.Time, station string, kind types.Kind, raw string, unit types.Unit, interval time.Duration) types.SensorReading {
	r := types.SensorReading{
		Timestamp: ts,
		Station:   station,
		Kind:      kind,
		Unit:      unit,
		Valid:     true,
		Interval:  interval,
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		r.Text = raw
		return r
	}
	r.Value = v
	return r
}

// ValueReading builds a reading from an already-decoded numeric field.
func ValueReading(ts time.Time, station string, kind types.Kind, value float64, unit types.Unit, interval time.Duration) types.SensorReading {
	return types.SensorReading{
		Timestamp: ts,
		Station:   station,
		Kind:      kind,
		Value:     value,
		Unit:      unit,
		Valid:     true,
		Interval:  interval,
	}
}

// AbsentReading marks a measurable the station does not report.
func AbsentReading(ts time.Time, station string, kind types.Kind) types.SensorReading {
	return types.SensorReading{
		Timestamp: ts,
		Station:   station,
		Kind:      kind,
		Valid:     false,
	}
}
