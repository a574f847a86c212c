// Package dashboard is the interactive waterfall screen: the timeline panel,
// a help bar, live config reloads and the program runner.
package dashboard

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/netfall/internal/config"
	"github.com/Dicklesworthstone/netfall/internal/request"
	"github.com/Dicklesworthstone/netfall/internal/tui/layout"
	"github.com/Dicklesworthstone/netfall/internal/tui/panels"
	"github.com/Dicklesworthstone/netfall/internal/tui/theme"
	"github.com/Dicklesworthstone/netfall/internal/waterfall"
)

// ConfigReloadMsg is sent when the config file changed on disk.
type ConfigReloadMsg struct {
	Config *config.Config
	Err    error
}

// FeedDoneMsg is sent when the feeds stopped on their own.
type FeedDoneMsg struct {
	Err error
}

// noticeTTL is how long a reload or feed notice stays in the help bar.
const noticeTTL = 5 * time.Second

// Model is the waterfall screen model
type Model struct {
	cfg   *config.Config
	panel *panels.WaterfallPanel
	help  help.Model
	keys  panels.KeyMap
	theme theme.Theme
	now   func() time.Time

	width    int
	height   int
	quitting bool

	notice   string
	noticeAt time.Time
	noticeOK bool
}

// Option customises a Model.
type Option func(*Model)

// WithClock injects the time source of the timeline.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithTheme fixes the palette instead of resolving cfg.UI.Theme.
func WithTheme(t theme.Theme) Option {
	return func(m *Model) { m.theme = t }
}

// TimelineOptions converts the [timeline] config section to engine options.
func TimelineOptions(tc config.TimelineConfig) waterfall.Options {
	o := waterfall.DefaultOptions()
	o.MinScale = tc.MinScale
	o.MaxScale = tc.MaxScale
	o.DefaultScale = tc.DefaultScale
	o.ScaleStep = tc.ScaleStep
	o.DragSensitivity = tc.DragSensitivity
	o.FollowMargin = tc.FollowMargin
	o.ClickThreshold = tc.ClickThresholdPx
	o.FutureBuffer = tc.FutureBuffer()
	o.GridInterval = tc.GridInterval()
	o.MinBarPx = tc.MinBarPx
	o.TickInterval = tc.Tick()
	o.AnimationDuration = tc.Animation()
	o.ShimmerPeriod = tc.Shimmer()
	return o.Normalize()
}

// New creates the screen model over store.
func New(cfg *config.Config, store *request.Store, opts ...Option) Model {
	if cfg == nil {
		cfg = config.Default()
	}
	m := Model{
		cfg:    cfg,
		keys:   panels.DefaultKeyMap(),
		width:  80,
		height: 24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.theme.Name == "" {
		t, err := theme.Resolve(cfg.UI.Theme, nil)
		if err != nil {
			slog.Default().Warn("theme fallback", "error", err)
		}
		m.theme = t
	}
	theme.Set(m.theme)

	tl := waterfall.NewTimeline(store, TimelineOptions(cfg.Timeline), m.now)
	m.panel = panels.NewWaterfallPanel(tl, m.theme, float64(cfg.Timeline.CellPx))
	m.panel.Focus()

	m.help = help.New()
	m.help.Width = m.width
	m.applyHelpStyles()
	m.layout()
	return m
}

// Panel returns the timeline panel.
func (m Model) Panel() *panels.WaterfallPanel {
	return m.panel
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.panel.Init()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case waterfall.TickMsg:
		if m.notice != "" && m.clock().Sub(m.noticeAt) > noticeTTL {
			m.notice = ""
			m.layout()
		}
		_, cmd := m.panel.Update(msg)
		return m, cmd

	case ConfigReloadMsg:
		m.applyConfig(msg)
		return m, nil

	case FeedDoneMsg:
		if msg.Err != nil {
			m.setNotice(fmt.Sprintf("feed stopped: %v", msg.Err), false)
		} else {
			m.setNotice("feed finished", true)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.panel.Timeline().Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout()
			return m, nil
		}
		_, cmd := m.panel.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if !m.cfg.UI.Mouse {
			return m, nil
		}
		_, cmd := m.panel.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) clock() time.Time {
	return m.panel.Timeline().Clock().Now()
}

func (m *Model) setNotice(s string, ok bool) {
	m.notice = s
	m.noticeOK = ok
	m.noticeAt = m.clock()
	m.layout()
}

// applyConfig swaps in a reloaded config. A failed reload keeps the
// current settings.
func (m *Model) applyConfig(msg ConfigReloadMsg) {
	if msg.Err != nil || msg.Config == nil {
		m.setNotice(fmt.Sprintf("config reload failed: %v", msg.Err), false)
		return
	}
	cfg := msg.Config
	if !cfg.UI.Mouse {
		// The release of a drag in progress would never arrive.
		m.panel.CancelDrag()
	}
	m.cfg = cfg
	m.panel.Timeline().SetOptions(TimelineOptions(cfg.Timeline))
	m.panel.SetCellPx(float64(cfg.Timeline.CellPx))
	if t, err := theme.Resolve(cfg.UI.Theme, nil); err == nil {
		m.theme = t
		theme.Set(t)
		m.panel.SetTheme(t)
		m.applyHelpStyles()
	}
	m.setNotice("config reloaded", true)
}

func (m *Model) applyHelpStyles() {
	t := m.theme
	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(t.Overlay)
	m.help.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(t.Surface2)
	m.help.Styles.FullKey = m.help.Styles.ShortKey
	m.help.Styles.FullDesc = m.help.Styles.ShortDesc
	m.help.Styles.FullSeparator = m.help.Styles.ShortSeparator
	m.help.Styles.Ellipsis = m.help.Styles.ShortSeparator
}

// layout gives the panel whatever the help bar leaves.
func (m *Model) layout() {
	footer := 0
	if bar := m.renderHelpBar(); bar != "" {
		footer = lipgloss.Height(bar)
	}
	m.panel.SetSize(m.width, max(0, m.height-footer))
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	bar := m.renderHelpBar()
	if bar == "" {
		return m.panel.View()
	}
	return m.panel.View() + "\n" + bar
}

func (m Model) renderHelpBar() string {
	if !m.cfg.UI.ShowHelp && !m.help.ShowAll {
		return m.renderNotice()
	}
	bar := m.help.View(m.keys)
	if n := m.renderNotice(); n != "" {
		lines := strings.Split(bar, "\n")
		last := len(lines) - 1
		gap := m.width - lipgloss.Width(lines[last]) - lipgloss.Width(n)
		if gap >= 2 {
			lines[last] += strings.Repeat(" ", gap) + n
		} else {
			lines = append(lines, n)
		}
		bar = strings.Join(lines, "\n")
	}
	return bar
}

func (m Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	color := m.theme.Red
	if m.noticeOK {
		color = m.theme.Green
	}
	return lipgloss.NewStyle().Foreground(color).Render(layout.TruncateWidthDefault(m.notice, max(m.width-2, 1)))
}
