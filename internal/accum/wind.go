package accum

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// windAverager computes a rolling wind average from raw samples, for
// stations whose vendor does not supply one. Direction uses a circular
// mean so 350° and 10° average to 0°, not 180°.
type windAverager struct {
	window  time.Duration
	samples []windSample
}

type windSample struct {
	at      time.Time
	speedMS float64
	dirRad  float64
	hasDir  bool
}

func newWindAverager(window time.Duration) *windAverager {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &windAverager{window: window}
}

func (w *windAverager) add(at time.Time, speedMS float64, dirDeg float64, hasDir bool) {
	w.samples = append(w.samples, windSample{
		at:      at,
		speedMS: speedMS,
		dirRad:  dirDeg * math.Pi / 180,
		hasDir:  hasDir,
	})
	w.trim(at)
}

func (w *windAverager) trim(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.samples) && w.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = append(w.samples[:0], w.samples[i:]...)
	}
}

// average returns the mean speed and circular-mean direction over the
// window. ok is false when no samples are present.
func (w *windAverager) average() (speedMS, dirDeg float64, ok bool) {
	if len(w.samples) == 0 {
		return 0, 0, false
	}

	speeds := make([]float64, 0, len(w.samples))
	dirs := make([]float64, 0, len(w.samples))
	for _, s := range w.samples {
		speeds = append(speeds, s.speedMS)
		if s.hasDir {
			dirs = append(dirs, s.dirRad)
		}
	}

	speedMS = stat.Mean(speeds, nil)
	if len(dirs) > 0 {
		rad := stat.CircularMean(dirs, nil)
		dirDeg = rad * 180 / math.Pi
		for dirDeg < 0 {
			dirDeg += 360
		}
		for dirDeg >= 360 {
			dirDeg -= 360
		}
	}
	return speedMS, dirDeg, true
}

// reset discards the sample window, used when switching accumulation
// windows so vendor and local averages are never mixed.
func (w *windAverager) reset() {
	w.samples = w.samples[:0]
}
