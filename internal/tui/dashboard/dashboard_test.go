package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/netfall/internal/config"
	"github.com/Dicklesworthstone/netfall/internal/feed"
	"github.com/Dicklesworthstone/netfall/internal/request"
	"github.com/Dicklesworthstone/netfall/internal/tui/theme"
	"github.com/Dicklesworthstone/netfall/internal/waterfall"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func newTestModel(t *testing.T, cfg *config.Config) (Model, *request.Store, *fakeNow) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	fn := &fakeNow{t: time.UnixMilli(100_000)}
	store := request.NewStore(request.StoreConfig{Capacity: cfg.Feed.Capacity})
	m := New(cfg, store, WithClock(fn.now), WithTheme(theme.Mocha))
	m.Init()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return next.(Model), store, fn
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func tick(m Model, fn *fakeNow, d time.Duration) Model {
	fn.t = fn.t.Add(d)
	return update(m, m.Panel().Timeline().Clock().TickAt(fn.t))
}

func TestTimelineOptions(t *testing.T) {
	cfg := config.Default()
	o := TimelineOptions(cfg.Timeline)
	if o != waterfall.DefaultOptions() {
		t.Errorf("default config should map to default options:\n got %+v\nwant %+v", o, waterfall.DefaultOptions())
	}

	cfg.Timeline.MaxScale = 4
	cfg.Timeline.TickMs = 33
	cfg.Timeline.FutureBufferMs = 0
	o = TimelineOptions(cfg.Timeline)
	if o.MaxScale != 4 || o.TickInterval != 33*time.Millisecond || o.FutureBuffer != 0 {
		t.Errorf("options = %+v", o)
	}
}

func TestModel_ViewFillsWindow(t *testing.T) {
	m, store, fn := newTestModel(t, nil)
	if err := store.Add(request.Request{ID: "a", Method: "GET", URL: "https://api.example.com/a", StartTime: time.UnixMilli(99_000)}); err != nil {
		t.Fatal(err)
	}
	m = tick(m, fn, 16*time.Millisecond)

	view := m.View()
	if h := lipgloss.Height(view); h != 20 {
		t.Errorf("view height = %d, want 20", h)
	}
	if !strings.Contains(view, "zoom in") {
		t.Error("short help missing")
	}
	t.Logf("DASHBOARD_TEST: frame\n%s", view)
}

func TestModel_HelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	before := m.Panel().Height()

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if after := m.Panel().Height(); after >= before {
		t.Errorf("full help should shrink the panel: %d -> %d", before, after)
	}
	if h := lipgloss.Height(m.View()); h != 20 {
		t.Errorf("view height with full help = %d, want 20", h)
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if m.Panel().Height() != before {
		t.Errorf("panel height = %d, want %d", m.Panel().Height(), before)
	}
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
	m = next.(Model)
	if m.Panel().Timeline().Clock().Running() {
		t.Error("quit should stop the clock")
	}
	if m.View() != "" {
		t.Error("view should be empty after quit")
	}
}

func TestModel_MouseDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.UI.Mouse = false
	m, _, _ := newTestModel(t, cfg)

	m = update(m, tea.MouseMsg{X: 50, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if got := m.Panel().Timeline().Viewport().Scale(); got != 0.1 {
		t.Errorf("mouse disabled but wheel zoomed to %v", got)
	}

	m.cfg.UI.Mouse = true
	m = update(m, tea.MouseMsg{X: 50, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if got := m.Panel().Timeline().Viewport().Scale(); got != 0.2 {
		t.Errorf("wheel with mouse on: scale %v, want 0.2", got)
	}
}

func TestModel_ConfigReload(t *testing.T) {
	m, _, fn := newTestModel(t, nil)
	for i := 0; i < 4; i++ {
		m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	}
	if got := m.Panel().Timeline().Viewport().Scale(); got != 0.5 {
		t.Fatalf("scale = %v, want 0.5", got)
	}

	cfg := config.Default()
	cfg.Timeline.MaxScale = 0.3
	cfg.UI.Theme = "nord"
	m = update(m, ConfigReloadMsg{Config: cfg})

	if got := m.Panel().Timeline().Viewport().Scale(); got != 0.3 {
		t.Errorf("reload should re-clamp scale to 0.3, got %v", got)
	}
	if theme.Current().Name != "nord" {
		t.Errorf("theme = %s, want nord", theme.Current().Name)
	}
	if !strings.Contains(m.View(), "config reloaded") {
		t.Error("reload notice missing")
	}

	m = update(m, ConfigReloadMsg{Err: errors.New("bad toml")})
	if !strings.Contains(m.View(), "bad toml") {
		t.Error("failed reload should be reported")
	}
	if got := m.Panel().Timeline().Viewport().Options().MaxScale; got != 0.3 {
		t.Errorf("failed reload changed options: max %v", got)
	}

	m = tick(m, fn, noticeTTL+time.Second)
	if strings.Contains(m.View(), "bad toml") {
		t.Error("notice should expire")
	}
	if h := lipgloss.Height(m.View()); h != 20 {
		t.Errorf("view height = %d after notice expiry", h)
	}
}

func TestModel_ReloadDisablingMouseEndsDrag(t *testing.T) {
	m, store, fn := newTestModel(t, nil)
	// a long window so there is room to scroll
	if err := store.Add(request.Request{ID: "a", Method: "GET", URL: "https://api.example.com/a", StartTime: time.UnixMilli(0)}); err != nil {
		t.Fatal(err)
	}
	m = tick(m, fn, 16*time.Millisecond)
	v := m.Panel().Timeline().Viewport()

	m = update(m, tea.MouseMsg{X: 60, Y: 4, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(m, tea.MouseMsg{X: 70, Y: 4, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if !v.Dragging() {
		t.Fatal("expected dragging")
	}

	cfg := config.Default()
	cfg.UI.Mouse = false
	m = update(m, ConfigReloadMsg{Config: cfg})
	if v.Dragging() {
		t.Fatal("disabling the mouse should end the drag")
	}

	// the release is dropped now; follow must still run
	m = update(m, tea.MouseMsg{X: 70, Y: 4, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	before := v.Scroll()
	m = tick(m, fn, time.Second)
	if v.Scroll() <= before {
		t.Errorf("auto-follow stalled: scroll %v -> %v", before, v.Scroll())
	}
	if !strings.Contains(m.View(), "live") {
		t.Error("header should be back to live")
	}
}

func TestModel_FeedDone(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	m = update(m, FeedDoneMsg{Err: errors.New("broker down")})
	if !strings.Contains(m.View(), "feed stopped: broker down") {
		t.Error("feed error notice missing")
	}
}

func TestRender(t *testing.T) {
	store := request.NewStore(request.StoreConfig{})
	now := time.UnixMilli(100_000)
	if err := store.Add(request.Request{ID: "a", Method: "POST", URL: "https://api.example.com/a", StartTime: now.Add(-time.Second)}); err != nil {
		t.Fatal(err)
	}
	out := Render(config.Default(), store, 80, 10, theme.Latte, func() time.Time { return now })
	if h := lipgloss.Height(out); h != 10 {
		t.Errorf("frame height = %d, want 10", h)
	}
	if !strings.Contains(out, "1 requests · 1 pending") {
		t.Errorf("frame missing counts:\n%s", out)
	}
	if strings.Contains(out, "zoom in") {
		t.Error("snapshot frames carry no help bar")
	}
}

func TestSnapshotWarmup(t *testing.T) {
	sim := feed.NewSimulator(feed.SimulatorConfig{Interval: time.Hour})
	out, err := Snapshot(context.Background(), config.Default(), SnapshotOptions{
		Width:   80,
		Height:  10,
		Warmup:  50 * time.Millisecond,
		Sources: []feed.Source{sim},
		Theme:   theme.Mocha,
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !strings.Contains(out, "1 requests") {
		t.Errorf("simulator should have emitted one request during warmup:\n%s", out)
	}
}
