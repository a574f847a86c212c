package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Dicklesworthstone/netfall/internal/config"
	"github.com/Dicklesworthstone/netfall/internal/feed"
	"github.com/Dicklesworthstone/netfall/internal/tui/dashboard"
)

// stdoutIsTerminal reports whether stdout is an interactive terminal.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// overrides are the per-invocation flags that shadow config values.
type overrides struct {
	source string
	replay string
	theme  string
}

func (o *overrides) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.source, "source", "", "feed source: simulate, replay, kafka or none")
	fs.StringVar(&o.replay, "replay", "", "replay script (implies --source replay)")
	fs.StringVar(&o.theme, "theme", "", "color theme: auto, mocha, latte or nord")
}

func (o overrides) any() bool {
	return o.source != "" || o.replay != "" || o.theme != ""
}

// apply returns a copy of cfg with the overrides applied and validated.
func (o overrides) apply(cfg *config.Config) (*config.Config, error) {
	out := *cfg
	out.Feed.KafkaBrokers = append([]string(nil), cfg.Feed.KafkaBrokers...)
	if o.replay != "" {
		out.Feed.Source = config.SourceReplay
		out.Feed.ReplayFile = o.replay
	}
	if o.source != "" {
		out.Feed.Source = strings.ToLower(o.source)
	}
	if o.theme != "" {
		out.UI.Theme = strings.ToLower(o.theme)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func newViewCmd(a *app) *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive waterfall",
		Long: `Open the interactive waterfall on the alternate screen.

When stdout is not a terminal a single frame is printed instead, as with
'netfall snapshot'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.apply(a.cfg)
			if err != nil {
				return err
			}
			if !stdoutIsTerminal() {
				slog.Default().Info("stdout is not a terminal, printing a snapshot")
				return runSnapshot(cmd, cfg, snapshotFlags{warmup: defaultWarmup})
			}

			sources, err := feed.FromConfig(cfg.Feed)
			if err != nil {
				return err
			}
			opts := dashboard.RunOptions{Sources: sources}
			if path := a.configPath(); watchable(path) && !o.any() {
				opts.ConfigPath = path
			}
			slog.Default().Info("waterfall starting", "source", cfg.Feed.Source, "theme", cfg.UI.Theme, "watch", opts.ConfigPath)
			if err := dashboard.Run(cmd.Context(), cfg, opts); err != nil {
				return fmt.Errorf("waterfall: %w", err)
			}
			return nil
		},
	}
	o.bind(cmd.Flags())
	return cmd
}

// watchable reports whether the config directory exists, which the file
// watcher needs.
func watchable(path string) bool {
	info, err := os.Stat(filepath.Dir(path))
	return err == nil && info.IsDir()
}
