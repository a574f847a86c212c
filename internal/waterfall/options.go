// Package waterfall is the timeline engine behind the waterfall view: bar
// geometry, live clock, viewport pan/zoom state machine, layout and
// selection. It does no painting; the tui packages turn a Layout into text.
//
// All horizontal quantities are float64 pixels. The painter decides how many
// pixels make up a terminal cell.
package waterfall

import "time"

// Options holds the tunable constants of the timeline.
type Options struct {
	MinScale     float64 // pixels per millisecond
	MaxScale     float64
	DefaultScale float64
	ScaleStep    float64 // per wheel notch or zoom key

	DragSensitivity float64 // scroll pixels per pointer pixel
	FollowMargin    float64 // fraction of the viewport left of "now"
	ClickThreshold  float64 // pointer travel in pixels that turns a click into a drag

	FutureBuffer time.Duration // window extends this far past now
	GridInterval time.Duration // spacing of time-axis gridlines
	MinBarPx     float64       // bars are never narrower than this

	BarHeight  float64
	BarPadding float64
	TopMargin  float64

	TickInterval      time.Duration
	AnimationDuration time.Duration
	ShimmerPeriod     time.Duration
}

// DefaultOptions returns the stock timeline constants.
func DefaultOptions() Options {
	return Options{
		MinScale:          0.1,
		MaxScale:          10,
		DefaultScale:      0.1,
		ScaleStep:         0.1,
		DragSensitivity:   2,
		FollowMargin:      0.8,
		ClickThreshold:    4,
		FutureBuffer:      5 * time.Second,
		GridInterval:      time.Second,
		MinBarPx:          2,
		BarHeight:         20,
		BarPadding:        4,
		TopMargin:         24,
		TickInterval:      16 * time.Millisecond,
		AnimationDuration: 300 * time.Millisecond,
		ShimmerPeriod:     1500 * time.Millisecond,
	}
}

// Normalize replaces unusable values with defaults so the engine never sees
// a zero scale or an inverted range.
func (o Options) Normalize() Options {
	d := DefaultOptions()
	if o.MinScale <= 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = o.MinScale
	}
	if o.DefaultScale < o.MinScale || o.DefaultScale > o.MaxScale {
		o.DefaultScale = clamp(d.DefaultScale, o.MinScale, o.MaxScale)
	}
	if o.ScaleStep <= 0 {
		o.ScaleStep = d.ScaleStep
	}
	if o.DragSensitivity <= 0 {
		o.DragSensitivity = d.DragSensitivity
	}
	if o.FollowMargin < 0 || o.FollowMargin > 1 {
		o.FollowMargin = d.FollowMargin
	}
	if o.ClickThreshold < 0 {
		o.ClickThreshold = d.ClickThreshold
	}
	if o.FutureBuffer < 0 {
		o.FutureBuffer = d.FutureBuffer
	}
	if o.GridInterval <= 0 {
		o.GridInterval = d.GridInterval
	}
	if o.MinBarPx <= 0 {
		o.MinBarPx = d.MinBarPx
	}
	if o.BarHeight <= 0 {
		o.BarHeight = d.BarHeight
	}
	if o.BarPadding < 0 {
		o.BarPadding = d.BarPadding
	}
	if o.TopMargin < 0 {
		o.TopMargin = d.TopMargin
	}
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	if o.AnimationDuration < 0 {
		o.AnimationDuration = d.AnimationDuration
	}
	if o.ShimmerPeriod <= 0 {
		o.ShimmerPeriod = d.ShimmerPeriod
	}
	return o
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
