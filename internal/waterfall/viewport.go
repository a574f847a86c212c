package waterfall

import (
	"fmt"
	"math"
)

// Phase is the pointer state of the viewport.
type Phase int

const (
	// Idle means no pointer gesture is in progress; auto-follow may scroll.
	Idle Phase = iota
	// Dragging means the pointer is held down on the timeline surface.
	Dragging
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Drag is the pointer state machine value. AnchorX and ScrollAtStart are
// only meaningful while Phase is Dragging.
type Drag struct {
	Phase         Phase
	AnchorX       float64
	ScrollAtStart float64
	// MaxTravel is the furthest the pointer moved from AnchorX during this gesture.
	MaxTravel float64
}

// Viewport owns scale and horizontal scroll of the timeline and turns
// pointer, wheel and key input into changes of both.
//
// Invariants kept after every method: MinScale <= scale <= MaxScale and
// 0 <= scroll <= MaxScroll(). The render pass only reads a Viewport.
type Viewport struct {
	opts Options

	scale  float64
	scroll float64

	width      float64 // viewport width in pixels
	durationMs float64 // length of the time window

	drag   Drag
	follow bool
}

// NewViewport creates a viewport at the default scale with auto-follow on.
func NewViewport(o Options) *Viewport {
	o = o.Normalize()
	return &Viewport{
		opts:   o,
		scale:  o.DefaultScale,
		follow: true,
	}
}

// Scale returns the current pixels per millisecond.
func (v *Viewport) Scale() float64 { return v.scale }

// Scroll returns the horizontal scroll offset in pixels.
func (v *Viewport) Scroll() float64 { return v.scroll }

// Width returns the viewport width in pixels.
func (v *Viewport) Width() float64 { return v.width }

// Drag returns the pointer state.
func (v *Viewport) Drag() Drag { return v.drag }

// Dragging reports whether a drag gesture is in progress.
func (v *Viewport) Dragging() bool { return v.drag.Phase == Dragging }

// Following reports whether auto-follow is enabled.
func (v *Viewport) Following() bool { return v.follow }

// Options returns the constants the viewport was built with.
func (v *Viewport) Options() Options { return v.opts }

// SetOptions swaps the constants, re-clamping scale and scroll.
func (v *Viewport) SetOptions(o Options) {
	v.opts = o.Normalize()
	v.setScale(v.scale)
}

// ContentWidth returns max(viewport width, window duration * scale).
func (v *Viewport) ContentWidth() float64 {
	return math.Max(v.width, v.durationMs*v.scale)
}

// MaxScroll returns the largest valid scroll offset for the current scale.
func (v *Viewport) MaxScroll() float64 {
	return math.Max(0, v.ContentWidth()-v.width)
}

// SetExtent updates the viewport width and window duration and re-clamps
// scroll immediately.
func (v *Viewport) SetExtent(widthPx, durationMs float64) {
	if widthPx < 0 || math.IsNaN(widthPx) {
		widthPx = 0
	}
	if durationMs < 0 || math.IsNaN(durationMs) || math.IsInf(durationMs, 0) {
		durationMs = 0
	}
	v.width = widthPx
	v.durationMs = durationMs
	v.setScroll(v.scroll)
}

// PointerDown starts a drag at pointer x.
func (v *Viewport) PointerDown(x float64) {
	v.drag = Drag{
		Phase:         Dragging,
		AnchorX:       x,
		ScrollAtStart: v.scroll,
	}
}

// PointerMove pans while dragging. It reports whether scroll changed.
func (v *Viewport) PointerMove(x float64) bool {
	if v.drag.Phase != Dragging {
		return false
	}
	if travel := math.Abs(x - v.drag.AnchorX); travel > v.drag.MaxTravel {
		v.drag.MaxTravel = travel
	}
	delta := (x - v.drag.AnchorX) * v.opts.DragSensitivity
	before := v.scroll
	v.setScroll(v.drag.ScrollAtStart - delta)
	return v.scroll != before
}

// PointerUp ends a drag. It returns true when the gesture stayed within the
// click threshold and should be treated as a click.
func (v *Viewport) PointerUp(x float64) bool {
	if v.drag.Phase != Dragging {
		return false
	}
	if travel := math.Abs(x - v.drag.AnchorX); travel > v.drag.MaxTravel {
		v.drag.MaxTravel = travel
	}
	click := v.drag.MaxTravel <= v.opts.ClickThreshold
	v.drag = Drag{}
	return click
}

// PointerLeave ends a drag without a click.
func (v *Viewport) PointerLeave() {
	v.drag = Drag{}
}

// Wheel zooms by one ScaleStep per notch. Positive notches zoom in. The
// drag phase is left untouched.
func (v *Viewport) Wheel(notches int) {
	if notches == 0 {
		return
	}
	step := v.opts.ScaleStep
	if notches < 0 {
		step = -step
	}
	v.setScale(v.scale + step)
}

// ZoomIn increases scale by one step.
func (v *Viewport) ZoomIn() { v.setScale(v.scale + v.opts.ScaleStep) }

// ZoomOut decreases scale by one step.
func (v *Viewport) ZoomOut() { v.setScale(v.scale - v.opts.ScaleStep) }

// SetScale sets scale directly, clamped to range.
func (v *Viewport) SetScale(s float64) { v.setScale(s) }

// Reset restores the default scale and scrolls to the start.
func (v *Viewport) Reset() {
	v.setScale(v.opts.DefaultScale)
	v.scroll = 0
}

// PanBy scrolls by px (keyboard pan). Panning pauses auto-follow.
func (v *Viewport) PanBy(px float64) {
	v.follow = false
	v.setScroll(v.scroll + px)
}

// SetFollow enables or disables auto-follow.
func (v *Viewport) SetFollow(on bool) { v.follow = on }

// ToggleFollow flips auto-follow and returns the new value.
func (v *Viewport) ToggleFollow() bool {
	v.follow = !v.follow
	return v.follow
}

// Follow keeps nowPx at FollowMargin of the viewport width. It never runs
// while a drag is in progress or when auto-follow is paused, and reports
// whether scroll changed.
func (v *Viewport) Follow(nowPx float64) bool {
	if v.drag.Phase == Dragging || !v.follow {
		return false
	}
	if math.IsNaN(nowPx) || math.IsInf(nowPx, 0) {
		return false
	}
	before := v.scroll
	v.setScroll(math.Max(0, nowPx-v.width*v.opts.FollowMargin))
	return v.scroll != before
}

// ScaleLabel formats the scale for display, e.g. "0.10x".
func (v *Viewport) ScaleLabel() string {
	return fmt.Sprintf("%.2fx", v.scale)
}

func (v *Viewport) setScale(s float64) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		s = v.opts.DefaultScale
	}
	// Round away float accumulation from repeated steps (0.1+0.1+0.1).
	s = math.Round(s*1e9) / 1e9
	v.scale = clamp(s, v.opts.MinScale, v.opts.MaxScale)
	// maxScroll depends on scale.
	v.setScroll(v.scroll)
}

func (v *Viewport) setScroll(px float64) {
	if math.IsNaN(px) || math.IsInf(px, 0) {
		px = 0
	}
	v.scroll = clamp(px, 0, v.MaxScroll())
}
