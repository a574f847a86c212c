package waterfall

import (
	"math"
	"time"

	"github.com/Dicklesworthstone/netfall/internal/request"
	"github.com/Dicklesworthstone/netfall/internal/timescale"
)

// GridlineLabelFormat is the clock format of time-axis labels.
const GridlineLabelFormat = "15:04:05"

// Gridline is one labelled tick on the time axis.
type Gridline struct {
	X     float64
	Time  time.Time
	Label string
}

// Layout is everything the painter needs for one frame.
type Layout struct {
	Frame
	Window timescale.Window

	ContentWidth  float64
	ContentHeight float64
	NowX          float64

	Gridlines []Gridline
	Bars      []Bar
}

// WindowFor derives the time window of a request snapshot. An empty
// snapshot yields a window starting at now.
func WindowFor(reqs []request.Request, now time.Time, o Options) timescale.Window {
	starts := make([]time.Time, 0, len(reqs))
	for _, r := range reqs {
		starts = append(starts, r.StartTime)
	}
	return timescale.NewWindow(starts, now, o.FutureBuffer)
}

// Build lays out reqs (in vertical slot order) for one frame.
func Build(reqs []request.Request, now time.Time, scale, viewportWidth float64, o Options) Layout {
	o = o.Normalize()
	if scale <= 0 || math.IsNaN(scale) {
		scale = o.DefaultScale
	}
	if viewportWidth < 0 || math.IsNaN(viewportWidth) {
		viewportWidth = 0
	}

	w := WindowFor(reqs, now, o)
	f := Frame{Now: now, Origin: w.Min, Scale: scale}

	l := Layout{
		Frame:         f,
		Window:        w,
		ContentWidth:  math.Max(viewportWidth, w.DurationMs()*scale),
		ContentHeight: float64(len(reqs))*(o.BarHeight+o.BarPadding) + o.TopMargin,
		NowX:          timescale.ToPixels(now, w.Min, scale),
		Gridlines:     Gridlines(w, scale, o.GridInterval),
		Bars:          make([]Bar, 0, len(reqs)),
	}
	for i, r := range reqs {
		l.Bars = append(l.Bars, BuildBar(r, i, f, o))
	}
	return l
}

// Gridlines returns one tick per interval from the window start, labelled
// with the wall-clock time of the tick.
func Gridlines(w timescale.Window, scale float64, interval time.Duration) []Gridline {
	if interval <= 0 {
		return nil
	}
	count := int(math.Ceil(float64(w.Duration()) / float64(interval)))
	if count < 0 {
		count = 0
	}
	lines := make([]Gridline, 0, count)
	for i := 0; i < count; i++ {
		at := w.Min.Add(time.Duration(i) * interval)
		lines = append(lines, Gridline{
			X:     timescale.DurationToPixels(time.Duration(i)*interval, scale),
			Time:  at,
			Label: at.Format(GridlineLabelFormat),
		})
	}
	return lines
}

// VisibleRows bounds the number of bar rows to the available height.
func (l Layout) VisibleRows(available int) int {
	if available < 0 {
		return 0
	}
	if len(l.Bars) < available {
		return len(l.Bars)
	}
	return available
}

// HitTest returns the bar at the given content x and row. slop widens the
// hit box on both sides, so a pointer resolution coarser than a pixel can
// still hit a 2px bar.
func (l Layout) HitTest(x float64, row int, slop float64) (Bar, bool) {
	if row < 0 || row >= len(l.Bars) {
		return Bar{}, false
	}
	b := l.Bars[row]
	if x >= b.X-slop && x < b.End()+slop {
		return b, true
	}
	return Bar{}, false
}

// BarByID finds a bar by request id.
func (l Layout) BarByID(id string) (Bar, bool) {
	for _, b := range l.Bars {
		if b.ID == id {
			return b, true
		}
	}
	return Bar{}, false
}
