// Package cli wires the netfall commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/netfall/internal/config"
	"github.com/Dicklesworthstone/netfall/internal/logging"
	"github.com/Dicklesworthstone/netfall/internal/tui/theme"
)

// Build information - set by goreleaser via ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfgFile string
	logFile string
	noColor bool

	cfg       *config.Config
	logCloser io.Closer
}

// configPath is the file the config was (or would be) loaded from.
func (a *app) configPath() string {
	if a.cfgFile != "" {
		return config.ExpandHome(a.cfgFile)
	}
	return config.DefaultPath()
}

// setup loads the config, installs the logger and applies color settings.
// Commands marked skipSetup only get the color settings.
func (a *app) setup(cmd *cobra.Command) error {
	if a.noColor || theme.NoColorRequested() {
		applyNoColor()
	}
	if cmd.Annotations[skipSetup] == "true" {
		return nil
	}

	cfg, err := config.Load(a.configPath())
	if err != nil {
		return fmt.Errorf("loading config %s: %w", a.configPath(), err)
	}
	a.cfg = cfg
	if cfg.UI.NoColor {
		applyNoColor()
	}

	logPath := cfg.Log.File
	if a.logFile != "" {
		logPath = a.logFile
	}
	closer, err := logging.Setup(config.ExpandHome(logPath), cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logCloser = closer
	slog.Default().Debug("command started", "command", cmd.CommandPath(), "config", a.configPath())
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

func applyNoColor() {
	color.NoColor = true
	theme.DisableColor()
}

// skipSetup marks commands that run without loading the config.
const skipSetup = "netfall/skip-setup"

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netfall",
		Short: "Live waterfall timeline of network requests",
		Long: `netfall draws network requests as bars on a scrolling time axis, the way a
browser's network panel does, right in the terminal.

Quick Start:
  netfall                          # simulated traffic, interactive
  netfall view --source replay --replay session.yaml
  netfall snapshot --width 120     # print one frame and exit
  netfall config init              # write the default config file

Drag to pan, scroll to zoom, click a bar for its details.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/netfall/config.toml)")
	cmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "log file, or - for stderr (default $XDG_STATE_HOME/netfall/netfall.log)")
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colors")

	view := newViewCmd(a)
	cmd.Flags().AddFlagSet(view.Flags())
	cmd.RunE = view.RunE

	cmd.AddCommand(
		view,
		newSnapshotCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the command line and prints any error to stderr.
func Execute(ctx context.Context) error {
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		color.New(color.FgRed).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
