package waterfall

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/netfall/internal/request"
	"github.com/Dicklesworthstone/netfall/internal/timescale"
)

// Source is the read side of the request feed.
type Source interface {
	Snapshot() []request.Request
	Get(id string) (request.Request, bool)
}

// Timeline ties the engine together for one live view: clock, viewport,
// bar animation and selection. It is not safe for concurrent use; a single
// UI goroutine drives it.
//
// Within one tick the order is fixed: the clock advances, bar geometry is
// rebuilt from a fresh snapshot, auto-follow adjusts scroll, and only then
// may the caller render. Pointer and key handlers run between ticks, so
// user input always lands before the next auto-follow.
type Timeline struct {
	opts Options
	src  Source

	clock    *Clock
	view     *Viewport
	anim     *Animator
	selector Selector

	layout  Layout
	display []Geometry
}

// NewTimeline creates a timeline reading from src. A nil nowFn uses time.Now.
func NewTimeline(src Source, o Options, nowFn func() time.Time) *Timeline {
	o = o.Normalize()
	t := &Timeline{
		opts:  o,
		src:   src,
		clock: NewClock(o.TickInterval, nowFn),
		view:  NewViewport(o),
		anim:  NewAnimator(o.AnimationDuration, o.MinBarPx),
	}
	t.Refresh()
	return t
}

// Start begins the live clock.
func (t *Timeline) Start() tea.Cmd {
	return t.clock.Start()
}

// Stop tears down the clock and all in-flight animation.
func (t *Timeline) Stop() {
	t.clock.Stop()
	t.anim.Reset()
}

// Tick handles a clock tick. It returns the command arming the next tick;
// stale ticks from a stopped clock return nil and leave state untouched.
func (t *Timeline) Tick(msg TickMsg) tea.Cmd {
	if !t.clock.Accept(msg) {
		return nil
	}
	t.Refresh()
	t.follow()
	return t.clock.Next()
}

// Refresh rebuilds the layout from a fresh snapshot at the clock's now.
func (t *Timeline) Refresh() {
	now := t.clock.Now()
	var reqs []request.Request
	if t.src != nil {
		reqs = t.src.Snapshot()
	}

	// The viewport must know the window before the layout reads its scale,
	// so a shrinking window re-clamps scroll first.
	w := WindowFor(reqs, now, t.opts)
	t.view.SetExtent(t.view.Width(), w.DurationMs())

	t.layout = Build(reqs, now, t.view.Scale(), t.view.Width(), t.opts)

	live := make(map[string]struct{}, len(t.layout.Bars))
	t.display = t.display[:0]
	for _, b := range t.layout.Bars {
		live[b.ID] = struct{}{}
		t.display = append(t.display, t.anim.Step(b, now))
	}
	t.anim.Prune(live)

	if sel, ok := t.selector.Selected(); ok {
		if _, exists := live[sel.ID]; !exists {
			t.selector.Clear()
		}
	}
}

func (t *Timeline) follow() {
	t.view.Follow(timescale.ToPixels(t.clock.Now(), t.layout.Origin, t.view.Scale()))
}

// Layout returns the current frame layout.
func (t *Timeline) Layout() Layout {
	return t.layout
}

// Display returns the animated geometry of the bar at row i.
func (t *Timeline) Display(i int) (Geometry, bool) {
	if i < 0 || i >= len(t.display) {
		return Geometry{}, false
	}
	return t.display[i], true
}

// Viewport exposes the viewport for reading.
func (t *Timeline) Viewport() *Viewport {
	return t.view
}

// Clock exposes the live clock.
func (t *Timeline) Clock() *Clock {
	return t.clock
}

// Options returns the engine constants.
func (t *Timeline) Options() Options {
	return t.opts
}

// SetOptions applies new constants, e.g. after a config reload.
func (t *Timeline) SetOptions(o Options) {
	t.opts = o.Normalize()
	t.view.SetOptions(t.opts)
	t.clock.SetInterval(t.opts.TickInterval)
	t.anim.Configure(t.opts.AnimationDuration, t.opts.MinBarPx)
	t.Refresh()
}

// SetViewportWidth updates the visible width in pixels.
func (t *Timeline) SetViewportWidth(px float64) {
	t.view.SetExtent(px, t.layout.Window.DurationMs())
	t.Refresh()
}

// PointerDown starts a drag at viewport x.
func (t *Timeline) PointerDown(x float64) {
	t.view.PointerDown(x)
}

// PointerMove pans during a drag.
func (t *Timeline) PointerMove(x float64) {
	t.view.PointerMove(x)
}

// PointerUp ends a drag. When the gesture was a click, the bar under the
// pointer (viewport x, bar row) is selected and anchored at screen; a click
// on empty space closes any open selection. It reports whether a bar was
// selected.
func (t *Timeline) PointerUp(x float64, row int, screen Point, slop float64) bool {
	if !t.view.PointerUp(x) {
		return false
	}
	if b, ok := t.layout.HitTest(t.view.Scroll()+x, row, slop); ok {
		t.selector.Select(b.ID, screen)
		return true
	}
	t.selector.Clear()
	return false
}

// PointerLeave cancels a drag without clicking.
func (t *Timeline) PointerLeave() {
	t.view.PointerLeave()
}

// Wheel zooms by notches and relayouts at the new scale.
func (t *Timeline) Wheel(notches int) {
	t.view.Wheel(notches)
	t.Refresh()
}

// ZoomIn zooms in one step.
func (t *Timeline) ZoomIn() {
	t.view.ZoomIn()
	t.Refresh()
}

// ZoomOut zooms out one step.
func (t *Timeline) ZoomOut() {
	t.view.ZoomOut()
	t.Refresh()
}

// Reset restores the default view.
func (t *Timeline) Reset() {
	t.view.Reset()
	t.Refresh()
}

// PanBy scrolls by px and pauses auto-follow.
func (t *Timeline) PanBy(px float64) {
	t.view.PanBy(px)
}

// ToggleFollow flips auto-follow; turning it on jumps back to now.
func (t *Timeline) ToggleFollow() bool {
	on := t.view.ToggleFollow()
	if on {
		t.follow()
	}
	return on
}

// Select opens the popover for id at screen.
func (t *Timeline) Select(id string, screen Point) {
	t.selector.Select(id, screen)
}

// CloseSelection dismisses the popover.
func (t *Timeline) CloseSelection() {
	t.selector.Clear()
}

// Selection returns the current selection.
func (t *Timeline) Selection() (Selection, bool) {
	return t.selector.Selected()
}

// Selected resolves the selection to the latest request.
func (t *Timeline) Selected() (request.Request, bool) {
	if t.src == nil {
		return request.Request{}, false
	}
	return t.selector.Resolve(t.src.Get)
}
