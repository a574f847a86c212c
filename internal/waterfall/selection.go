package waterfall

import "github.com/Dicklesworthstone/netfall/internal/request"

// Point is a screen position in cells.
type Point struct {
	X int
	Y int
}

// Size is a width and height in cells.
type Size struct {
	W int
	H int
}

// Rect is a screen rectangle in cells.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Selection refers to the clicked request by id, never by copy, so the
// popover always shows the latest state.
type Selection struct {
	ID     string
	Anchor Point
}

// Selector holds the current selection, if any.
type Selector struct {
	current Selection
	active  bool
}

// Select opens a selection for id anchored at the click position.
func (s *Selector) Select(id string, anchor Point) {
	s.current = Selection{ID: id, Anchor: anchor}
	s.active = true
}

// Clear closes the selection. The selected request is not touched.
func (s *Selector) Clear() {
	s.current = Selection{}
	s.active = false
}

// Selected returns the current selection.
func (s *Selector) Selected() (Selection, bool) {
	return s.current, s.active
}

// IsSelected reports whether id is the selected request.
func (s *Selector) IsSelected(id string) bool {
	return s.active && s.current.ID == id
}

// Resolve looks up the latest version of the selected request. A selection
// whose request has gone is cleared.
func (s *Selector) Resolve(lookup func(id string) (request.Request, bool)) (request.Request, bool) {
	if !s.active {
		return request.Request{}, false
	}
	r, ok := lookup(s.current.ID)
	if !ok {
		s.Clear()
		return request.Request{}, false
	}
	return r, true
}

// PlacePopover positions a popover of the given size above the anchor and
// centred on it, clamped so it stays inside bounds. When there is no room
// above, it opens below the anchor instead.
func PlacePopover(anchor Point, size Size, bounds Rect) Rect {
	w := min(size.W, bounds.W)
	h := min(size.H, bounds.H)
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}

	x := anchor.X - w/2
	y := anchor.Y - h
	if y < bounds.Y {
		y = anchor.Y + 1
	}

	x = clampInt(x, bounds.X, bounds.X+bounds.W-w)
	y = clampInt(y, bounds.Y, bounds.Y+bounds.H-h)
	return Rect{X: x, Y: y, W: w, H: h}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
