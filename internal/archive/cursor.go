// Package archive implements historical catch-up: before live polling
// starts, the coordinator walks a vendor's history API from the last
// persisted cursor up to now, in bounded chunks, and replays every
// record through the normalizer and the derived-metrics engine.
package archive

import "time"

// Cursor marks the newest archive record that has been fully applied.
// It is monotonically non-decreasing and persisted after every chunk so
// a restart resumes without reprocessing or gaps.
type Cursor struct {
	LastApplied time.Time `msgpack:"last_applied"`
}

// IsZero reports whether no archive record has ever been applied.
func (c Cursor) IsZero() bool {
	return c.LastApplied.IsZero()
}

// Advance moves the cursor forward. Attempts to move it backward are
// ignored, preserving the non-decreasing invariant.
func (c *Cursor) Advance(ts time.Time) {
	if ts.After(c.LastApplied) {
		c.LastApplied = ts
	}
}

// NextStart returns the start of the next fetch window: one minute past
// the last applied record, so the boundary record is not reprocessed.
func (c Cursor) NextStart() time.Time {
	return c.LastApplied.Add(time.Minute)
}
