package waterfall

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is delivered by the live clock at every interval.
type TickMsg struct {
	Time time.Time
	gen  uint64
}

// Clock is the single periodic source of "now" for a live timeline. It
// drives pending-bar growth, the rolling window and auto-follow.
//
// Each tick is a one-shot tea.Tick re-armed by Next after the previous one
// was accepted, so at most one tick is outstanding per clock. Stop bumps the
// generation: an outstanding tick from before Stop is rejected by Accept and
// never re-arms.
type Clock struct {
	interval time.Duration
	nowFn    func() time.Time
	now      time.Time
	gen      uint64
	running  bool
}

// NewClock creates a stopped clock. A nil nowFn uses time.Now.
func NewClock(interval time.Duration, nowFn func() time.Time) *Clock {
	if interval <= 0 {
		interval = DefaultOptions().TickInterval
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Clock{interval: interval, nowFn: nowFn, now: nowFn()}
}

// Start begins ticking and returns the command for the first tick.
func (c *Clock) Start() tea.Cmd {
	c.gen++
	c.running = true
	c.now = c.nowFn()
	return c.schedule()
}

// Stop cancels the clock. Any tick already in flight is discarded.
func (c *Clock) Stop() {
	c.running = false
	c.gen++
}

// Running reports whether the clock is started.
func (c *Clock) Running() bool {
	return c.running
}

// Accept advances now if msg belongs to the current generation of a running
// clock. Stale ticks return false and must not be re-armed.
func (c *Clock) Accept(msg TickMsg) bool {
	if !c.running || msg.gen != c.gen {
		return false
	}
	c.now = c.nowFn()
	return true
}

// Next arms the following tick. It returns nil when the clock is stopped.
func (c *Clock) Next() tea.Cmd {
	if !c.running {
		return nil
	}
	return c.schedule()
}

// Now returns the time of the last accepted tick.
func (c *Clock) Now() time.Time {
	return c.now
}

// Interval returns the tick cadence.
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// SetInterval changes the cadence starting with the next tick.
func (c *Clock) SetInterval(d time.Duration) {
	if d > 0 {
		c.interval = d
	}
}

// TickAt builds a tick of the current generation, as if the timer had fired
// at t.
func (c *Clock) TickAt(t time.Time) TickMsg {
	return TickMsg{Time: t, gen: c.gen}
}

func (c *Clock) schedule() tea.Cmd {
	gen := c.gen
	return tea.Tick(c.interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t, gen: gen}
	})
}
