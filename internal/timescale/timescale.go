// Package timescale converts between wall-clock timestamps and horizontal
// pixel offsets on a waterfall timeline.
//
// Offsets are computed in float64 milliseconds derived from time.Duration
// (int64 nanoseconds), so spans of several days stay exact to well below a
// device pixel at any supported scale. Callers truncate to device pixels
// only at paint time.
package timescale

import (
	"math"
	"time"
)

// MinPixelsPerMs is substituted for non-positive scales so that the inverse
// mapping never divides by zero.
const MinPixelsPerMs = 1e-6

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FromMillis converts fractional milliseconds to a duration, rounding to the
// nearest nanosecond.
func FromMillis(ms float64) time.Duration {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0
	}
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

// ToPixels returns the offset of t from origin in pixels:
// (t - origin) * pixelsPerMs.
func ToPixels(t, origin time.Time, pixelsPerMs float64) float64 {
	return Millis(t.Sub(origin)) * sanitize(pixelsPerMs)
}

// ToTime is the inverse of ToPixels: px/pixelsPerMs + origin.
func ToTime(px float64, origin time.Time, pixelsPerMs float64) time.Time {
	return origin.Add(FromMillis(px / sanitize(pixelsPerMs)))
}

// DurationToPixels scales a duration to a width in pixels.
func DurationToPixels(d time.Duration, pixelsPerMs float64) float64 {
	return Millis(d) * sanitize(pixelsPerMs)
}

func sanitize(pixelsPerMs float64) float64 {
	if math.IsNaN(pixelsPerMs) || pixelsPerMs <= 0 {
		return MinPixelsPerMs
	}
	return pixelsPerMs
}

// Window is the visible time range of a timeline. It is derived every frame
// and never stored.
type Window struct {
	Min time.Time
	Max time.Time
}

// NewWindow builds the window for the given start times. Min is the earliest
// start, or now when there are none; Max is now plus the future buffer.
func NewWindow(starts []time.Time, now time.Time, future time.Duration) Window {
	w := Window{Min: now, Max: now.Add(future)}
	first := true
	for _, s := range starts {
		if s.IsZero() {
			continue
		}
		if first || s.Before(w.Min) {
			w.Min = s
			first = false
		}
	}
	if w.Max.Before(w.Min) {
		w.Max = w.Min
	}
	return w
}

// Duration returns Max - Min.
func (w Window) Duration() time.Duration {
	return w.Max.Sub(w.Min)
}

// DurationMs returns the window length in milliseconds.
func (w Window) DurationMs() float64 {
	return Millis(w.Duration())
}
