package waterfall

import (
	"math"
	"testing"
	"time"

	"github.com/Dicklesworthstone/netfall/internal/request"
	"github.com/Dicklesworthstone/netfall/internal/timescale"
)

func TestBuild_Empty(t *testing.T) {
	now := ms(10_000)
	l := Build(nil, now, 0.1, 800, DefaultOptions())

	if !l.Origin.Equal(now) {
		t.Errorf("Origin = %v, want now", l.Origin)
	}
	if l.NowX != 0 {
		t.Errorf("NowX = %v, want 0", l.NowX)
	}
	if math.IsNaN(l.ContentWidth) || l.ContentWidth != 800 {
		t.Errorf("ContentWidth = %v, want 800", l.ContentWidth)
	}
	if len(l.Bars) != 0 {
		t.Errorf("expected no bars, got %d", len(l.Bars))
	}
	if len(l.Gridlines) != 5 {
		t.Errorf("expected 5 gridlines over the future buffer, got %d", len(l.Gridlines))
	}
}

func TestBuild_OriginIsEarliestStart(t *testing.T) {
	reqs := []request.Request{
		{ID: "b", StartTime: ms(3000), State: request.StatePending},
		{ID: "a", StartTime: ms(1000), EndTime: ms(1800), State: request.StateComplete},
	}
	now := ms(4000)
	l := Build(reqs, now, 0.5, 100, DefaultOptions())

	if !l.Origin.Equal(ms(1000)) {
		t.Errorf("Origin = %v, want 1000ms", l.Origin.UnixMilli())
	}
	// Slot order follows the snapshot, not start time.
	if l.Bars[0].ID != "b" || l.Bars[1].ID != "a" {
		t.Errorf("bar order = %s,%s", l.Bars[0].ID, l.Bars[1].ID)
	}
	if l.Bars[0].X != 1000 || l.Bars[1].X != 0 {
		t.Errorf("bar X = %v,%v, want 1000,0", l.Bars[0].X, l.Bars[1].X)
	}
	if l.NowX != 1500 {
		t.Errorf("NowX = %v, want 1500", l.NowX)
	}
	// Window is 1000..9000ms.
	if l.ContentWidth != 4000 {
		t.Errorf("ContentWidth = %v, want 4000", l.ContentWidth)
	}
	o := DefaultOptions()
	if want := 2*(o.BarHeight+o.BarPadding) + o.TopMargin; l.ContentHeight != want {
		t.Errorf("ContentHeight = %v, want %v", l.ContentHeight, want)
	}
}

func TestGridlines(t *testing.T) {
	origin := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	lines := Gridlines(windowOf(origin, origin.Add(2500*time.Millisecond)), 0.1, time.Second)
	if len(lines) != 3 {
		t.Fatalf("got %d gridlines, want 3", len(lines))
	}
	for i, g := range lines {
		if g.X != float64(i)*100 {
			t.Errorf("gridline %d X = %v, want %v", i, g.X, float64(i)*100)
		}
	}
	if lines[2].Label != "12:00:02" {
		t.Errorf("label = %q, want 12:00:02", lines[2].Label)
	}
	if n := len(Gridlines(windowOf(origin, origin), 0.1, time.Second)); n != 0 {
		t.Errorf("zero-length window has %d gridlines, want 0", n)
	}
	if Gridlines(windowOf(origin, origin.Add(time.Second)), 0.1, 0) != nil {
		t.Error("non-positive interval should yield no gridlines")
	}
}

func TestHitTest(t *testing.T) {
	l := Layout{Bars: []Bar{
		{ID: "a", X: 10, Width: 20},
		{ID: "b", X: 100, Width: 2},
	}}

	tests := []struct {
		x    float64
		row  int
		slop float64
		want string
	}{
		{15, 0, 0, "a"},
		{30, 0, 0, ""},
		{5, 0, 0, ""},
		{97, 1, 4, "b"},
		{105, 1, 4, "b"},
		{105, 1, 0, ""},
		{15, 2, 0, ""},
		{15, -1, 0, ""},
	}
	for _, tt := range tests {
		b, ok := l.HitTest(tt.x, tt.row, tt.slop)
		if tt.want == "" {
			if ok {
				t.Errorf("HitTest(%v,%d) hit %s, want miss", tt.x, tt.row, b.ID)
			}
			continue
		}
		if !ok || b.ID != tt.want {
			t.Errorf("HitTest(%v,%d) = %s,%v, want %s", tt.x, tt.row, b.ID, ok, tt.want)
		}
	}

	if _, ok := l.BarByID("b"); !ok {
		t.Error("BarByID(b) not found")
	}
	if n := l.VisibleRows(1); n != 1 {
		t.Errorf("VisibleRows(1) = %d", n)
	}
	if n := l.VisibleRows(-3); n != 0 {
		t.Errorf("VisibleRows(-3) = %d", n)
	}
}

func windowOf(lo, hi time.Time) timescale.Window {
	return timescale.Window{Min: lo, Max: hi}
}
