package waterfall

import "time"

// Tween interpolates a value from From to To over Duration starting at
// Start, with a cubic ease-out. Once finished Value returns To exactly.
type Tween struct {
	From     float64
	To       float64
	Start    time.Time
	Duration time.Duration
}

// Snap returns a finished tween resting at v.
func Snap(v float64) Tween {
	return Tween{From: v, To: v}
}

// Done reports whether the tween has reached its target at now.
func (t Tween) Done(now time.Time) bool {
	return t.Duration <= 0 || !now.Before(t.Start.Add(t.Duration))
}

// Value returns the interpolated value at now.
func (t Tween) Value(now time.Time) float64 {
	if t.Done(now) {
		return t.To
	}
	p := float64(now.Sub(t.Start)) / float64(t.Duration)
	if p < 0 {
		p = 0
	}
	return t.From + (t.To-t.From)*easeOutCubic(p)
}

func easeOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}

// Geometry is the displayed position and width of a bar.
type Geometry struct {
	X     float64
	Width float64
}

type barMotion struct {
	x       Tween
	width   Tween
	pending bool
}

// Animator layers motion on top of the authoritative bar geometry.
//
// Pending bars track their target geometry every frame with no easing. Any
// other change of target (termination, rescale, origin shift) starts a
// fresh ease-out from the currently displayed value, replacing whatever
// tween was in flight.
type Animator struct {
	duration time.Duration
	initial  float64
	bars     map[string]*barMotion
}

// NewAnimator creates an animator whose tweens last d. New terminal bars
// grow from initialWidth.
func NewAnimator(d time.Duration, initialWidth float64) *Animator {
	return &Animator{
		duration: d,
		initial:  initialWidth,
		bars:     make(map[string]*barMotion),
	}
}

// Configure changes the tween duration and the initial width of new bars.
// Tweens already in flight keep their timing.
func (a *Animator) Configure(d time.Duration, initialWidth float64) {
	a.duration = d
	a.initial = initialWidth
}

// Step advances the motion of b to now and returns the geometry to draw.
func (a *Animator) Step(b Bar, now time.Time) Geometry {
	m, ok := a.bars[b.ID]
	if !ok {
		m = &barMotion{x: Snap(b.X), width: Snap(b.Width), pending: b.Pending}
		if !b.Pending && a.duration > 0 && b.Width != a.initial {
			m.width = Tween{From: a.initial, To: b.Width, Start: now, Duration: a.duration}
		}
		a.bars[b.ID] = m
		return Geometry{X: m.x.Value(now), Width: m.width.Value(now)}
	}

	switch {
	case b.Pending:
		// x and width move together or the bar's right edge drifts from now.
		m.x, m.width = Snap(b.X), Snap(b.Width)
	default:
		if m.x.To != b.X {
			m.x = a.retarget(m.x, b.X, now)
		}
		if m.width.To != b.Width {
			m.width = a.retarget(m.width, b.Width, now)
		}
	}
	m.pending = b.Pending

	return Geometry{X: m.x.Value(now), Width: m.width.Value(now)}
}

func (a *Animator) retarget(t Tween, to float64, now time.Time) Tween {
	if a.duration <= 0 {
		return Snap(to)
	}
	return Tween{From: t.Value(now), To: to, Start: now, Duration: a.duration}
}

// Animating reports whether any bar is still mid-tween at now.
func (a *Animator) Animating(now time.Time) bool {
	for _, m := range a.bars {
		if !m.x.Done(now) || !m.width.Done(now) {
			return true
		}
	}
	return false
}

// Prune drops motion state for ids no longer present.
func (a *Animator) Prune(live map[string]struct{}) {
	for id := range a.bars {
		if _, ok := live[id]; !ok {
			delete(a.bars, id)
		}
	}
}

// Reset cancels every in-flight tween.
func (a *Animator) Reset() {
	clear(a.bars)
}

// Len returns the number of tracked bars.
func (a *Animator) Len() int {
	return len(a.bars)
}
