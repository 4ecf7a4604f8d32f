package types

// RainGaugeType selects the click-size fallback when a vendor reports an
// unrecognized rain gauge code.
type RainGaugeType uint8

const (
	RainGaugeUnknown  RainGaugeType = iota
	RainGaugeMetric                 // 0.2 mm per click
	RainGaugeImperial               // 0.01 in per click
)

// StationCapabilities is static per-station configuration consulted by the
// derived-metrics engine. Set once at session construction, never mutated.
type StationCapabilities struct {
	// ComputesDewPoint is true when the vendor supplies dew point itself;
	// the engine then skips its local calculation.
	ComputesDewPoint bool
	// ComputesWindChill is true when the vendor supplies wind chill.
	ComputesWindChill bool
	// UsesSpeedForAverage selects the vendor's rolling wind average over a
	// locally-computed one. Chosen once per station, never mixed within an
	// accumulation window.
	UsesSpeedForAverage bool
	// PrimaryWindChannel is the transmitter channel treated as
	// authoritative for wind when several report it.
	PrimaryWindChannel int
	// PrimaryRainChannel is the authoritative rain transmitter channel.
	PrimaryRainChannel int
	// RolloverHour is the local hour (0 or 9) at which day accumulators
	// reset.
	RolloverHour int
	// UseDSTShiftedRollover shifts the rollover hour forward one hour
	// while daylight-saving time is in effect.
	UseDSTShiftedRollover bool
	// RainGaugeOverride is consulted when a vendor rain click code is
	// unrecognized or zero.
	RainGaugeOverride RainGaugeType
}
