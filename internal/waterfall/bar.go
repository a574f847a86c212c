package waterfall

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Dicklesworthstone/netfall/internal/request"
	"github.com/Dicklesworthstone/netfall/internal/timescale"
	"github.com/Dicklesworthstone/netfall/internal/util"
)

// ColorKey names the palette slot a bar is painted with. The theme maps keys
// to concrete colors.
type ColorKey string

const (
	ColorGet     ColorKey = "get"
	ColorPost    ColorKey = "post"
	ColorPut     ColorKey = "put"
	ColorDelete  ColorKey = "delete"
	ColorDefault ColorKey = "default"
	ColorPending ColorKey = "pending"
	ColorError   ColorKey = "error"
)

// ShimmerStopped is the Shimmer value of bars that are not live.
const ShimmerStopped = -1.0

// tooltipTargetWidth bounds the target shown in a bar tooltip.
const tooltipTargetWidth = 32

// Frame is the time/scale snapshot a frame is laid out against.
type Frame struct {
	Now    time.Time
	Origin time.Time // minTime of the window
	Scale  float64   // pixels per millisecond
}

// Bar is the derived geometry of one request for one frame. X and Width are
// the authoritative target values; animation is layered on top by Animator.
type Bar struct {
	ID      string
	Label   string
	Index   int
	X       float64
	Y       float64
	Width   float64
	Color   ColorKey
	Pending bool
	// Shimmer is the sweep phase in [0,1) for pending bars, ShimmerStopped otherwise.
	Shimmer float64
	Tooltip []string
}

// End returns the right edge of the bar.
func (b Bar) End() float64 {
	return b.X + b.Width
}

// BuildBar derives the bar for r at the given vertical slot.
func BuildBar(r request.Request, index int, f Frame, o Options) Bar {
	scale := f.Scale
	if scale <= 0 || math.IsNaN(scale) {
		scale = o.MinScale
	}

	end := r.EndTime
	if end.IsZero() {
		end = f.Now
	}
	widthMs := timescale.Millis(end.Sub(r.StartTime))
	if floor := o.MinBarPx / scale; widthMs < floor {
		widthMs = floor
	}

	b := Bar{
		ID:      r.ID,
		Label:   r.DisplayLabel(),
		Index:   index,
		X:       timescale.ToPixels(r.StartTime, f.Origin, scale),
		Y:       float64(index)*(o.BarHeight+o.BarPadding) + o.TopMargin,
		Width:   widthMs * scale,
		Color:   BarColor(r),
		Pending: r.IsPending(),
		Shimmer: ShimmerStopped,
		Tooltip: Tooltip(r, f.Now),
	}
	if b.Pending {
		b.Shimmer = ShimmerPhase(f.Now.Sub(r.StartTime), o.ShimmerPeriod)
	}
	return b
}

// BarColor picks the palette slot for a request: error and pending states
// win over the per-method category.
func BarColor(r request.Request) ColorKey {
	switch {
	case r.State == request.StateError:
		return ColorError
	case r.IsPending():
		return ColorPending
	}
	switch strings.ToUpper(r.Method) {
	case "GET":
		return ColorGet
	case "POST":
		return ColorPost
	case "PUT", "PATCH":
		return ColorPut
	case "DELETE":
		return ColorDelete
	default:
		return ColorDefault
	}
}

// Tooltip returns the hover text of a bar: method and truncated target,
// then the duration or the elapsed time of a live request.
func Tooltip(r request.Request, now time.Time) []string {
	target := util.TruncateMiddle(r.Target(), tooltipTargetWidth)
	head := strings.TrimSpace(strings.ToUpper(r.Method) + " " + target)

	ms := util.FormatMillis(r.Duration(now))
	if r.IsPending() {
		return []string{head, fmt.Sprintf("Elapsed: %s…", ms)}
	}
	return []string{head, fmt.Sprintf("Duration: %s", ms)}
}

// ShimmerPhase returns the position of the liveness sweep in [0,1).
func ShimmerPhase(elapsed, period time.Duration) float64 {
	if period <= 0 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return float64(elapsed%period) / float64(period)
}
