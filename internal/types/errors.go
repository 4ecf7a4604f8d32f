package types

import "errors"

// Error taxonomy for ingestion. Per-reading errors are contained inside
// the adapter or normalizer and never abort a station session; only
// ErrConfiguration may prevent a session from starting.
var (
	// ErrTransientTransport marks a network or serial timeout that is
	// worth retrying under the adapter's retry policy.
	ErrTransientTransport = errors.New("transient transport error")

	// ErrMalformedPayload marks a decode failure; the reading is
	// discarded and the anomaly counter incremented.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrVendorRejection marks an explicit vendor refusal, such as a
	// concurrent-request conflict; retried under backoff.
	ErrVendorRejection = errors.New("vendor rejected request")

	// ErrConfiguration marks missing credentials or an invalid address;
	// the affected session fails to start, others are unaffected.
	ErrConfiguration = errors.New("configuration error")

	// ErrClockAnomaly marks non-monotonic vendor timestamps or rollover
	// drift; the reading is adjusted or ignored, never fatal.
	ErrClockAnomaly = errors.New("clock anomaly")
)
