package panels

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/netfall/internal/tui/layout"
	"github.com/Dicklesworthstone/netfall/internal/tui/theme"
	"github.com/Dicklesworthstone/netfall/internal/waterfall"
)

// Rows above and below the bar area.
const (
	headerRow   = 0
	barTop      = 3
	footerRows  = 1
	chromeRows  = barTop + footerRows
	minGutter   = 10
	maxGutter   = 28
	gutterRatio = 5
)

// eighths are the left-aligned partial blocks, one to eight eighths wide.
var eighths = []rune{'▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

func waterfallConfig() PanelConfig {
	return PanelConfig{
		ID:        "waterfall",
		Title:     "netfall",
		MinWidth:  20,
		MinHeight: chromeRows + 1,
	}
}

// WaterfallPanel paints a live timeline and turns mouse and key input into
// timeline gestures. One terminal cell spans CellPx timeline pixels.
type WaterfallPanel struct {
	PanelBase
	tl     *waterfall.Timeline
	theme  theme.Theme
	keys   KeyMap
	cellPx float64

	cursor int // keyboard row, -1 for none
	offset int // first visible bar row

	hover    waterfall.Point
	hovering bool
}

// NewWaterfallPanel creates a panel over tl.
func NewWaterfallPanel(tl *waterfall.Timeline, th theme.Theme, cellPx float64) *WaterfallPanel {
	if cellPx <= 0 {
		cellPx = 8
	}
	return &WaterfallPanel{
		PanelBase: NewPanelBase(waterfallConfig()),
		tl:        tl,
		theme:     th,
		keys:      DefaultKeyMap(),
		cellPx:    cellPx,
		cursor:    -1,
	}
}

// Timeline returns the engine behind the panel.
func (m *WaterfallPanel) Timeline() *waterfall.Timeline {
	return m.tl
}

// SetTheme swaps the palette.
func (m *WaterfallPanel) SetTheme(th theme.Theme) {
	m.theme = th
}

// SetCellPx changes how many timeline pixels one cell spans.
func (m *WaterfallPanel) SetCellPx(px float64) {
	if px <= 0 {
		return
	}
	m.cellPx = px
	m.syncWidth()
}

// Keys returns the panel key map.
func (m *WaterfallPanel) Keys() KeyMap {
	return m.keys
}

// Cursor returns the keyboard row, or -1.
func (m *WaterfallPanel) Cursor() int {
	return m.cursor
}

// SetSize implements Panel and resizes the timeline viewport.
func (m *WaterfallPanel) SetSize(width, height int) {
	m.PanelBase.SetSize(width, height)
	m.syncWidth()
	m.clampRows()
}

func (m *WaterfallPanel) syncWidth() {
	m.tl.SetViewportWidth(float64(m.areaWidth()) * m.cellPx)
}

// Init implements tea.Model and starts the live clock.
func (m *WaterfallPanel) Init() tea.Cmd {
	return m.tl.Start()
}

// Update implements tea.Model.
func (m *WaterfallPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case waterfall.TickMsg:
		cmd := m.tl.Tick(msg)
		m.clampRows()
		return m, cmd
	case tea.KeyMsg:
		if m.IsFocused() {
			m.handleKey(msg)
		}
	case tea.MouseMsg:
		if m.IsFocused() {
			m.handleMouse(msg)
		}
	}
	return m, nil
}

func (m *WaterfallPanel) handleKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Close):
		if _, open := m.tl.Selection(); open {
			m.tl.CloseSelection()
		} else {
			m.cursor = -1
		}
	case key.Matches(msg, m.keys.ZoomIn):
		m.tl.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.tl.ZoomOut()
	case key.Matches(msg, m.keys.Reset):
		m.tl.Reset()
	case key.Matches(msg, m.keys.PanLeft):
		m.tl.PanBy(-m.panStep())
	case key.Matches(msg, m.keys.PanRight):
		m.tl.PanBy(m.panStep())
	case key.Matches(msg, m.keys.Follow):
		m.tl.ToggleFollow()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Open):
		m.openCursor()
	}
	m.clampRows()
}

// panStep is a quarter of the visible width.
func (m *WaterfallPanel) panStep() float64 {
	return math.Max(m.cellPx, float64(m.areaWidth())*m.cellPx/4)
}

func (m *WaterfallPanel) moveCursor(delta int) {
	n := len(m.tl.Layout().Bars)
	if n == 0 {
		m.cursor = -1
		return
	}
	if m.cursor < 0 {
		m.cursor = n - 1
		return
	}
	m.cursor = max(0, min(n-1, m.cursor+delta))
}

func (m *WaterfallPanel) openCursor() {
	l := m.tl.Layout()
	if m.cursor < 0 || m.cursor >= len(l.Bars) {
		return
	}
	b := l.Bars[m.cursor]
	g, ok := m.tl.Display(m.cursor)
	if !ok {
		g = waterfall.Geometry{X: b.X, Width: b.Width}
	}
	mid := int((g.X + g.Width/2 - m.tl.Viewport().Scroll()) / m.cellPx)
	anchor := waterfall.Point{
		X: m.gutterWidth() + max(0, min(m.areaWidth()-1, mid)),
		Y: barTop + m.cursor - m.offset,
	}
	m.tl.Select(b.ID, anchor)
}

func (m *WaterfallPanel) handleMouse(msg tea.MouseMsg) {
	p := waterfall.Point{X: msg.X, Y: msg.Y}
	if !m.contains(p) {
		// Leaving the panel ends a drag without a click.
		if msg.Action != tea.MouseActionPress {
			m.CancelDrag()
		}
		m.hovering = false
		return
	}
	m.hover, m.hovering = p, true

	if msg.Action == tea.MouseActionPress {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.tl.Wheel(1)
			return
		case tea.MouseButtonWheelDown:
			m.tl.Wheel(-1)
			return
		case tea.MouseButtonLeft:
			if m.popoverPress(p) {
				return
			}
			if p.X < m.gutterWidth() {
				m.selectRow(p)
				return
			}
			m.tl.PointerDown(m.pointerPx(p.X))
		}
		return
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		if m.tl.Viewport().Dragging() {
			m.tl.PointerMove(m.pointerPx(p.X))
		}
	case tea.MouseActionRelease:
		if !m.tl.Viewport().Dragging() {
			return
		}
		row := -1
		if r, ok := m.rowAt(p.Y); ok {
			row = r
		}
		if m.tl.PointerUp(m.pointerPx(p.X), row, p, m.cellPx/2) {
			if sel, ok := m.tl.Selected(); ok {
				slog.Default().Debug("request selected", "id", sel.ID, "request", describe(sel))
			}
		}
	}
}

// CancelDrag ends an in-progress drag as a pointer leave, for when mouse
// input stops reaching the panel.
func (m *WaterfallPanel) CancelDrag() {
	m.hovering = false
	if m.tl.Viewport().Dragging() {
		m.tl.PointerLeave()
	}
}

func (m *WaterfallPanel) contains(p waterfall.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.Width() && p.Y < m.Height()
}

// popoverPress handles a press on an open popover: the close glyph closes
// it, anywhere else inside it is swallowed. Presses outside fall through.
func (m *WaterfallPanel) popoverPress(p waterfall.Point) bool {
	d, rect, ok := m.popover()
	if !ok || !rect.Contains(p) {
		return false
	}
	if d.hitClose(rect, p) {
		m.tl.CloseSelection()
	}
	return true
}

// selectRow opens the popover for the bar whose label was clicked.
func (m *WaterfallPanel) selectRow(p waterfall.Point) {
	row, ok := m.rowAt(p.Y)
	if !ok {
		m.tl.CloseSelection()
		return
	}
	m.cursor = row
	m.tl.Select(m.tl.Layout().Bars[row].ID, p)
}

// rowAt maps a screen row to a bar index.
func (m *WaterfallPanel) rowAt(y int) (int, bool) {
	if y < barTop || y >= barTop+m.barRows() {
		return 0, false
	}
	row := y - barTop + m.offset
	if row >= len(m.tl.Layout().Bars) {
		return 0, false
	}
	return row, true
}

// pointerPx converts a screen column to viewport pixels, at the centre of
// the cell.
func (m *WaterfallPanel) pointerPx(x int) float64 {
	return (float64(x-m.gutterWidth()) + 0.5) * m.cellPx
}

func (m *WaterfallPanel) gutterWidth() int {
	w := m.Width()
	if w < 3*minGutter {
		return 0
	}
	return max(minGutter, min(maxGutter, w/gutterRatio))
}

func (m *WaterfallPanel) areaWidth() int {
	return max(0, m.Width()-m.gutterWidth())
}

func (m *WaterfallPanel) barRows() int {
	return max(0, m.Height()-chromeRows)
}

// clampRows keeps the keyboard cursor on screen. Without a cursor the
// newest rows stay visible.
func (m *WaterfallPanel) clampRows() {
	n := len(m.tl.Layout().Bars)
	rows := m.barRows()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.offset = max(0, n-rows)
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if rows > 0 && m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = max(0, min(m.offset, max(0, n-rows)))
}

// popover renders the open popover and places it on screen.
func (m *WaterfallPanel) popover() (Details, waterfall.Rect, bool) {
	sel, ok := m.tl.Selection()
	if !ok {
		return Details{}, waterfall.Rect{}, false
	}
	r, ok := m.tl.Selected()
	if !ok {
		return Details{}, waterfall.Rect{}, false
	}
	bounds := waterfall.Rect{X: 0, Y: headerRow + 1, W: m.Width(), H: max(0, m.Height()-footerRows-1)}
	d := RenderDetails(r, m.tl.Clock().Now(), m.theme, bounds.W)
	return d, waterfall.PlacePopover(sel.Anchor, d.Size, bounds), true
}

// hovered returns the bar under the mouse.
func (m *WaterfallPanel) hovered() (waterfall.Bar, bool) {
	if !m.hovering || m.hover.X < m.gutterWidth() {
		return waterfall.Bar{}, false
	}
	row, ok := m.rowAt(m.hover.Y)
	if !ok {
		return waterfall.Bar{}, false
	}
	x := m.tl.Viewport().Scroll() + m.pointerPx(m.hover.X)
	return m.tl.Layout().HitTest(x, row, m.cellPx/2)
}

// View implements tea.Model.
func (m *WaterfallPanel) View() string {
	if m.TooSmall() {
		return FitToHeight(lipgloss.NewStyle().Foreground(m.theme.Subtext).Render("window too small"), m.Height())
	}

	lines := make([]string, 0, m.Height())
	lines = append(lines, m.renderHeader())
	labels, axis := m.renderAxis()
	lines = append(lines, labels, axis)

	l := m.tl.Layout()
	grid := m.gridColumns()
	rows := m.barRows()
	for i := 0; i < rows; i++ {
		idx := m.offset + i
		if idx >= len(l.Bars) {
			lines = append(lines, m.renderEmptyRow(grid))
			continue
		}
		lines = append(lines, m.renderRow(idx, grid))
	}
	lines = append(lines, m.renderStatus())

	for i, line := range lines {
		lines[i] = layout.PadRight(line, m.Width())
	}
	if d, rect, ok := m.popover(); ok {
		lines = layout.Overlay(lines, d.Lines, rect.X, rect.Y)
	}
	for i, line := range lines {
		lines[i] = layout.CutANSI(line, m.Width())
	}
	return strings.Join(FitLines(lines, m.Height()), "\n")
}

func (m *WaterfallPanel) renderHeader() string {
	t := m.theme
	v := m.tl.Viewport()
	l := m.tl.Layout()

	title := lipgloss.NewStyle().Bold(true).Foreground(t.Lavender).Render(m.Config().Title)
	scale := lipgloss.NewStyle().Foreground(t.Text).Render("Scale: " + v.ScaleLabel())

	var mode string
	switch {
	case v.Dragging():
		mode = lipgloss.NewStyle().Foreground(t.Peach).Render("◆ dragging")
	case v.Following():
		mode = lipgloss.NewStyle().Foreground(t.Green).Render("● live")
	default:
		mode = lipgloss.NewStyle().Foreground(t.Yellow).Render("❚❚ paused")
	}

	pending := 0
	for _, b := range l.Bars {
		if b.Pending {
			pending++
		}
	}
	counts := lipgloss.NewStyle().Foreground(t.Subtext).
		Render(fmt.Sprintf("%d requests · %d pending", len(l.Bars), pending))

	left := title + "  " + scale + "  " + mode
	gap := m.Width() - lipgloss.Width(left) - lipgloss.Width(counts)
	if gap < 2 {
		return left
	}
	return left + strings.Repeat(" ", gap) + counts
}

// renderAxis draws the gridline labels and the tick line with the now
// marker.
func (m *WaterfallPanel) renderAxis() (string, string) {
	t := m.theme
	w := m.areaWidth()
	scroll := m.tl.Viewport().Scroll()
	l := m.tl.Layout()

	labels := []rune(strings.Repeat(" ", w))
	ticks := []rune(strings.Repeat("─", w))
	nextFree := 0
	for _, g := range l.Gridlines {
		col := m.col(g.X, scroll)
		if col < 0 || col >= w {
			continue
		}
		ticks[col] = '┬'
		label := []rune(g.Label)
		if col >= nextFree && col+len(label) <= w {
			copy(labels[col:], label)
			nextFree = col + len(label) + 1
		}
	}

	nowCol := m.col(l.NowX, scroll)
	gutter := strings.Repeat(" ", m.gutterWidth())
	dim := lipgloss.NewStyle().Foreground(t.Surface2)
	labelLine := gutter + lipgloss.NewStyle().Foreground(t.Subtext).Render(string(labels))
	if nowCol < 0 || nowCol >= w {
		return labelLine, gutter + dim.Render(string(ticks))
	}
	marker := lipgloss.NewStyle().Foreground(t.Peach).Bold(true).Render("▼")
	axis := gutter + dim.Render(string(ticks[:nowCol])) + marker + dim.Render(string(ticks[nowCol+1:]))
	return labelLine, axis
}

// col maps content pixels to a column of the bar area.
func (m *WaterfallPanel) col(px, scroll float64) int {
	c := (px - scroll) / m.cellPx
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return -1
	}
	return int(math.Floor(c))
}

// gridColumns marks the area cells a gridline falls in. It is built once
// per frame and shared by every row.
func (m *WaterfallPanel) gridColumns() []bool {
	cols := make([]bool, max(m.areaWidth(), 0))
	scroll := m.tl.Viewport().Scroll()
	for _, g := range m.tl.Layout().Gridlines {
		if c := m.col(g.X, scroll); c >= 0 && c < len(cols) {
			cols[c] = true
		}
	}
	return cols
}

func (m *WaterfallPanel) renderEmptyRow(grid []bool) string {
	return strings.Repeat(" ", m.gutterWidth()) + m.renderGrid(0, m.areaWidth(), grid)
}

// renderGrid draws the faint gridline dots of an empty run of cells.
func (m *WaterfallPanel) renderGrid(from, to int, grid []bool) string {
	if to <= from {
		return ""
	}
	var b strings.Builder
	for c := from; c < to; c++ {
		if c >= 0 && c < len(grid) && grid[c] {
			b.WriteRune('┊')
		} else {
			b.WriteByte(' ')
		}
	}
	return lipgloss.NewStyle().Foreground(m.theme.Surface1).Render(b.String())
}

func (m *WaterfallPanel) renderRow(idx int, grid []bool) string {
	l := m.tl.Layout()
	b := l.Bars[idx]
	g, ok := m.tl.Display(idx)
	if !ok {
		g = waterfall.Geometry{X: b.X, Width: b.Width}
	}
	return m.renderLabel(idx, b) + m.renderBar(b, g, grid)
}

func (m *WaterfallPanel) renderLabel(idx int, b waterfall.Bar) string {
	w := m.gutterWidth()
	if w == 0 {
		return ""
	}
	t := m.theme
	mark := " "
	if sel, ok := m.tl.Selection(); ok && sel.ID == b.ID {
		mark = "▶"
	}
	text := b.Label
	if text == "" {
		text = b.ID
	}
	text = mark + layout.TruncateWidthDefault(text, w-2)

	style := lipgloss.NewStyle().Width(w).Foreground(t.Subtext)
	if idx == m.cursor {
		style = style.Background(t.Surface0).Foreground(t.Text).Bold(true)
	}
	return style.Render(text)
}

// renderBar paints one bar across the area. Fully covered cells are solid
// blocks. A partially covered right edge uses a left-aligned eighth block;
// a partially covered left edge draws the uncovered eighths in reverse
// video so the bar color fills the rest of the cell.
func (m *WaterfallPanel) renderBar(b waterfall.Bar, g waterfall.Geometry, grid []bool) string {
	w := m.areaWidth()
	scroll := m.tl.Viewport().Scroll()
	color := m.theme.Bar(b.Color)
	solid := lipgloss.NewStyle().Foreground(color)

	start := (g.X - scroll) / m.cellPx
	end := (g.X + g.Width - scroll) / m.cellPx
	if math.IsNaN(start) || math.IsNaN(end) || end <= 0 || start >= float64(w) {
		return m.renderGrid(0, w, grid)
	}

	first := int(math.Floor(start))
	last := int(math.Ceil(end)) - 1 // inclusive
	var out strings.Builder
	out.WriteString(m.renderGrid(0, max(0, first), grid))

	// Narrow bar inside one cell.
	if first == last {
		if first >= 0 && first < w {
			out.WriteString(solid.Render(string(partial(end - start))))
		}
		out.WriteString(m.renderGrid(first+1, w, grid))
		return out.String()
	}

	fullFrom, fullTo := first, last+1
	if first >= 0 {
		if cover := float64(first+1) - start; cover < 1 {
			gap := 1 - cover
			if gap*8 >= 0.5 {
				out.WriteString(solid.Reverse(true).Render(string(partial(gap))))
			} else {
				out.WriteString(solid.Render("█"))
			}
			fullFrom = first + 1
		}
	}
	rightPartial := false
	if last < w {
		if cover := end - float64(last); cover < 1 {
			rightPartial = true
			fullTo = last
		}
	}

	fullFrom = max(fullFrom, 0)
	fullTo = min(fullTo, w)
	out.WriteString(m.renderSolid(b, fullFrom, fullTo, solid))

	if rightPartial {
		out.WriteString(solid.Render(string(partial(end - float64(last)))))
	}
	if last+1 < w {
		out.WriteString(m.renderGrid(last+1, w, grid))
	}
	return out.String()
}

// renderSolid draws the solid run [from, to), with the shimmer cell of a
// live bar highlighted.
func (m *WaterfallPanel) renderSolid(b waterfall.Bar, from, to int, solid lipgloss.Style) string {
	n := to - from
	if n <= 0 {
		return ""
	}
	if b.Shimmer == waterfall.ShimmerStopped || n < 2 {
		return solid.Render(strings.Repeat("█", n))
	}
	at := min(n-1, int(b.Shimmer*float64(n)))
	glint := lipgloss.NewStyle().Foreground(m.theme.Text)
	return solid.Render(strings.Repeat("█", at)) +
		glint.Render("█") +
		solid.Render(strings.Repeat("█", n-at-1))
}

// partial returns the eighth block closest to frac of a cell, never empty.
func partial(frac float64) rune {
	n := int(math.Round(frac * 8))
	n = max(1, min(8, n))
	return eighths[n-1]
}

func (m *WaterfallPanel) renderStatus() string {
	t := m.theme
	if b, ok := m.hovered(); ok && len(b.Tooltip) > 0 {
		head := lipgloss.NewStyle().Bold(true).Foreground(t.Bar(b.Color)).Render(b.Tooltip[0])
		rest := lipgloss.NewStyle().Foreground(t.Text).Render(strings.Join(b.Tooltip[1:], "  "))
		return " " + head + "  " + rest
	}
	hint := "drag to pan · wheel to zoom · click a bar for details"
	if len(m.tl.Layout().Bars) == 0 {
		hint = "waiting for requests…"
	}
	return " " + lipgloss.NewStyle().Foreground(t.Overlay).Italic(true).Render(hint)
}
