package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/netfall/internal/config"
	"github.com/Dicklesworthstone/netfall/internal/feed"
	"github.com/Dicklesworthstone/netfall/internal/tui/dashboard"
)

const (
	defaultWarmup = 3 * time.Second
	// Used when stdout has no terminal size.
	fallbackWidth  = 100
	fallbackHeight = 20
)

type snapshotFlags struct {
	width  int
	height int
	warmup time.Duration
}

// terminalSize returns the size of the terminal on stdout, if any.
var terminalSize = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		o     overrides
		flags snapshotFlags
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print one frame of the waterfall and exit",
		Long: `Run the feed for the warmup period, then print a single frame of the
waterfall. Width and height default to the terminal size.

Examples:
  netfall snapshot
  netfall snapshot --replay session.yaml --warmup 5s --width 120
  netfall snapshot --no-color > frame.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.apply(a.cfg)
			if err != nil {
				return err
			}
			return runSnapshot(cmd, cfg, flags)
		},
	}
	o.bind(cmd.Flags())
	cmd.Flags().IntVar(&flags.width, "width", 0, "frame width in columns (default terminal width)")
	cmd.Flags().IntVar(&flags.height, "height", 0, "frame height in rows (default terminal height)")
	cmd.Flags().DurationVar(&flags.warmup, "warmup", defaultWarmup, "how long to collect requests before drawing")
	return cmd
}

func runSnapshot(cmd *cobra.Command, cfg *config.Config, flags snapshotFlags) error {
	if flags.width < 0 || flags.height < 0 || flags.warmup < 0 {
		return fmt.Errorf("width, height and warmup must not be negative")
	}
	w, h := flags.width, flags.height
	if w == 0 || h == 0 {
		tw, th, err := terminalSize()
		if err != nil || tw <= 0 || th <= 0 {
			tw, th = fallbackWidth, fallbackHeight
		}
		if w == 0 {
			w = tw
		}
		if h == 0 {
			h = th
		}
	}

	sources, err := feed.FromConfig(cfg.Feed)
	if err != nil {
		return err
	}
	frame, err := dashboard.Snapshot(cmd.Context(), cfg, dashboard.SnapshotOptions{
		Width:   w,
		Height:  h,
		Warmup:  flags.warmup,
		Sources: sources,
	})
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), frame)
	return err
}
