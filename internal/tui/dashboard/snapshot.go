package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/Dicklesworthstone/netfall/internal/config"
	"github.com/Dicklesworthstone/netfall/internal/feed"
	"github.com/Dicklesworthstone/netfall/internal/request"
	"github.com/Dicklesworthstone/netfall/internal/tui/theme"
)

// SnapshotOptions configures Snapshot.
type SnapshotOptions struct {
	Width  int
	Height int
	// Warmup is how long the sources run before the frame is taken.
	Warmup  time.Duration
	Sources []feed.Source
	Theme   theme.Theme
}

// Snapshot runs the sources for the warmup period and renders one frame of
// the waterfall without taking over the terminal.
func Snapshot(ctx context.Context, cfg *config.Config, opts SnapshotOptions) (string, error) {
	store := request.NewStore(request.StoreConfig{Capacity: cfg.Feed.Capacity})
	if opts.Warmup > 0 && len(opts.Sources) > 0 {
		wctx, cancel := context.WithTimeout(ctx, opts.Warmup)
		err := feed.RunAll(wctx, store, opts.Sources...)
		cancel()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Render(cfg, store, opts.Width, opts.Height, opts.Theme, nil), nil
}

// Render draws a single frame of store at the given size. now defaults to
// time.Now; an empty theme resolves cfg.UI.Theme.
func Render(cfg *config.Config, store *request.Store, width, height int, t theme.Theme, now func() time.Time) string {
	if cfg == nil {
		cfg = config.Default()
	}
	var opts []Option
	if now != nil {
		opts = append(opts, WithClock(now))
	}
	if t.Name != "" {
		opts = append(opts, WithTheme(t))
	}
	bare := *cfg
	bare.UI.ShowHelp = false
	m := New(&bare, store, opts...)

	tl := m.panel.Timeline()
	tl.Start()
	m.width, m.height = width, height
	m.layout()
	m.panel.Update(tl.Clock().TickAt(tl.Clock().Now()))
	defer tl.Stop()
	return m.View()
}
