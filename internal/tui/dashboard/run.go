package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/netfall/internal/config"
	"github.com/Dicklesworthstone/netfall/internal/feed"
	"github.com/Dicklesworthstone/netfall/internal/request"
)

// RunOptions configures Run.
type RunOptions struct {
	// ConfigPath is watched for changes. Empty disables hot reload.
	ConfigPath string
	Sources    []feed.Source
}

// Run starts the interactive waterfall and blocks until the user quits or
// ctx is cancelled. Feeds and the config watcher stop with the program.
func Run(ctx context.Context, cfg *config.Config, opts RunOptions) error {
	store := request.NewStore(request.StoreConfig{Capacity: cfg.Feed.Capacity})
	model := New(cfg, store)

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.Mouse {
		progOpts = append(progOpts, tea.WithMouseAllMotion())
	}
	p := tea.NewProgram(model, progOpts...)

	g, gctx := errgroup.WithContext(ctx)
	bg, stop := context.WithCancel(gctx)

	g.Go(func() error {
		err := feed.RunAll(bg, store, opts.Sources...)
		if bg.Err() == nil && len(opts.Sources) > 0 {
			p.Send(FeedDoneMsg{Err: err})
		}
		if err != nil {
			slog.Default().Warn("feeds stopped", "error", err)
		}
		return nil
	})

	if opts.ConfigPath != "" {
		g.Go(func() error {
			err := config.Watch(bg, opts.ConfigPath, config.DefaultDebounce, func(c *config.Config, err error) {
				p.Send(ConfigReloadMsg{Config: c, Err: err})
			})
			if err != nil {
				slog.Default().Warn("config watch disabled", "path", opts.ConfigPath, "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer stop()
		started := time.Now()
		_, err := p.Run()
		slog.Default().Info("waterfall closed", "uptime", time.Since(started).Round(time.Second), "stats", store.Stats())
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	return g.Wait()
}
