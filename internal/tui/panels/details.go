package panels

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/netfall/internal/request"
	"github.com/Dicklesworthstone/netfall/internal/tui/layout"
	"github.com/Dicklesworthstone/netfall/internal/tui/theme"
	"github.com/Dicklesworthstone/netfall/internal/util"
	"github.com/Dicklesworthstone/netfall/internal/waterfall"
)

// CloseGlyph is the click target that dismisses the popover.
const CloseGlyph = "×"

const (
	detailsMaxInner = 56
	detailsMinInner = 16
	detailsKeyWidth = 10
)

// Details is a rendered popover box.
type Details struct {
	Lines []string
	Size  waterfall.Size
	// Close is the cell of the close glyph relative to the box origin.
	Close waterfall.Point
}

// RenderDetails draws the popover for r. maxWidth bounds the whole box,
// border included.
func RenderDetails(r request.Request, now time.Time, th theme.Theme, maxWidth int) Details {
	inner := min(detailsMaxInner, maxWidth-4)
	if inner < detailsMinInner {
		inner = detailsMinInner
	}

	method := strings.ToUpper(r.Method)
	if method == "" {
		method = "?"
	}
	methodStyle := lipgloss.NewStyle().Bold(true).Foreground(th.Bar(waterfall.BarColor(r)))
	closeStyle := lipgloss.NewStyle().Foreground(th.Subtext)

	titleRoom := inner - lipgloss.Width(method) - 3
	title := methodStyle.Render(method) + " " + util.TruncateMiddle(r.Target(), max(titleRoom, 0))
	gap := inner - lipgloss.Width(title) - lipgloss.Width(CloseGlyph)
	header := title + strings.Repeat(" ", max(gap, 1)) + closeStyle.Render(CloseGlyph)

	var body []string
	body = append(body, header)
	urlStyle := lipgloss.NewStyle().Foreground(th.Blue)
	for _, line := range layout.WrapLines(r.URL, inner) {
		body = append(body, urlStyle.Render(line))
	}
	body = append(body, "")

	keyStyle := lipgloss.NewStyle().Foreground(th.Subtext).Width(detailsKeyWidth)
	row := func(k, v string) {
		body = append(body, keyStyle.Render(k)+layout.TruncateWidthDefault(v, inner-detailsKeyWidth))
	}

	row("Start", util.FormatClock(r.StartTime))
	if r.IsPending() {
		row("End", "-")
		row("Elapsed", util.FormatMillis(r.Duration(now))+"…")
	} else {
		row("End", util.FormatClock(r.EndTime))
		row("Duration", util.FormatMillis(r.Duration(now)))
	}
	row("State", stateText(r, th))
	row("Status", dash(r.Status > 0, strconv.Itoa(r.Status)))
	row("Type", dash(r.Type != "", r.Type))
	row("Size", dash(r.Size > 0, util.FormatBytes(r.Size)))
	row("ID", r.ID)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.Primary).
		Padding(0, 1).
		Width(inner + 2).
		Render(strings.Join(body, "\n"))

	lines := strings.Split(box, "\n")
	w := 0
	for _, l := range lines {
		w = max(w, lipgloss.Width(l))
	}
	return Details{
		Lines: lines,
		Size:  waterfall.Size{W: w, H: len(lines)},
		Close: waterfall.Point{X: w - 3, Y: 1},
	}
}

func stateText(r request.Request, th theme.Theme) string {
	s := string(r.State)
	if s == "" {
		s = "pending"
	}
	switch r.State {
	case request.StateError:
		return lipgloss.NewStyle().Foreground(th.Red).Render(s)
	case request.StateComplete:
		return lipgloss.NewStyle().Foreground(th.Green).Render(s)
	}
	return lipgloss.NewStyle().Foreground(th.Yellow).Render(s)
}

func dash(ok bool, v string) string {
	if !ok {
		return "-"
	}
	return v
}

// hitClose reports whether p, in screen cells, is on the close glyph of a
// popover placed at rect. One cell of slack on each side.
func (d Details) hitClose(rect waterfall.Rect, p waterfall.Point) bool {
	cx, cy := rect.X+d.Close.X, rect.Y+d.Close.Y
	return p.Y == cy && p.X >= cx-1 && p.X <= cx+1
}

// describe is the one-line form used in logs.
func describe(r request.Request) string {
	return fmt.Sprintf("%s %s (%s)", strings.ToUpper(r.Method), r.URL, r.State)
}
