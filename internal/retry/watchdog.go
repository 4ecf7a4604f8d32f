package retry

import (
	"sync"
	"time"
)

// Watchdog raises an advisory data-stopped alarm when no successful
// ingestion event has been recorded within the configured window. The
// alarm is surfaced to operators through the status endpoint; it never
// drives control flow itself.
type Watchdog struct {
	mu       sync.Mutex
	window   time.Duration
	lastGood time.Time
	stopped  bool
	onChange func(stopped bool)
	now      func() time.Time
}

// NewWatchdog creates a watchdog with the given quiet window. onChange,
// if non-nil, is called whenever the alarm flips state.
func NewWatchdog(window time.Duration, onChange func(stopped bool)) *Watchdog {
	return &Watchdog{
		window:   window,
		onChange: onChange,
		now:      time.Now,
	}
}

// Feed records a successful ingestion event and clears the alarm if set.
func (w *Watchdog) Feed() {
	w.mu.Lock()
	w.lastGood = w.now()
	flipped := w.stopped
	w.stopped = false
	cb := w.onChange
	w.mu.Unlock()

	if flipped && cb != nil {
		cb(false)
	}
}

// Check evaluates the alarm. Sessions call this from a ticker; tests call
// it directly after adjusting the clock.
func (w *Watchdog) Check() {
	w.mu.Lock()
	quiet := w.lastGood.IsZero() || w.now().Sub(w.lastGood) > w.window
	flipped := quiet && !w.stopped
	if quiet {
		w.stopped = true
	}
	cb := w.onChange
	w.mu.Unlock()

	if flipped && cb != nil {
		cb(true)
	}
}

// Stopped reports whether the data-stopped alarm is currently raised.
func (w *Watchdog) Stopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// LastGood returns the time of the last successful ingestion event.
func (w *Watchdog) LastGood() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastGood
}
