package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/Dicklesworthstone/netfall/internal/util"
)

// EnvPrefix prefixes every environment override, e.g. NETFALL_TIMELINE_DEFAULT_SCALE.
const EnvPrefix = "NETFALL"

// Feed source names.
const (
	SourceSimulate = "simulate"
	SourceReplay   = "replay"
	SourceKafka    = "kafka"
	SourceNone     = "none"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config represents the main configuration
type Config struct {
	Timeline TimelineConfig `toml:"timeline"`
	Feed     FeedConfig     `toml:"feed"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// TimelineConfig holds the waterfall constants. Scales are pixels per
// millisecond, where a terminal cell is CellPx pixels wide.
type TimelineConfig struct {
	MinScale         float64 `toml:"min_scale" split_words:"true"`
	MaxScale         float64 `toml:"max_scale" split_words:"true"`
	DefaultScale     float64 `toml:"default_scale" split_words:"true"`
	ScaleStep        float64 `toml:"scale_step" split_words:"true"`
	DragSensitivity  float64 `toml:"drag_sensitivity" split_words:"true"`
	FollowMargin     float64 `toml:"follow_margin" split_words:"true"`
	ClickThresholdPx float64 `toml:"click_threshold_px" split_words:"true"`
	FutureBufferMs   int     `toml:"future_buffer_ms" split_words:"true"`
	GridIntervalMs   int     `toml:"grid_interval_ms" split_words:"true"`
	MinBarPx         float64 `toml:"min_bar_px" split_words:"true"`
	TickMs           int     `toml:"tick_ms" split_words:"true"`
	AnimationMs      int     `toml:"animation_ms" split_words:"true"`
	ShimmerMs        int     `toml:"shimmer_ms" split_words:"true"`
	CellPx           int     `toml:"cell_px" split_words:"true"`
}

// FutureBuffer returns FutureBufferMs as a duration.
func (t TimelineConfig) FutureBuffer() time.Duration { return ms(t.FutureBufferMs) }

// GridInterval returns GridIntervalMs as a duration.
func (t TimelineConfig) GridInterval() time.Duration { return ms(t.GridIntervalMs) }

// Tick returns TickMs as a duration.
func (t TimelineConfig) Tick() time.Duration { return ms(t.TickMs) }

// Animation returns AnimationMs as a duration.
func (t TimelineConfig) Animation() time.Duration { return ms(t.AnimationMs) }

// Shimmer returns ShimmerMs as a duration.
func (t TimelineConfig) Shimmer() time.Duration { return ms(t.ShimmerMs) }

// FeedConfig selects and tunes the request source.
type FeedConfig struct {
	Source        string   `toml:"source" split_words:"true"`
	Capacity      int      `toml:"capacity" split_words:"true"`
	IntervalMs    int      `toml:"interval_ms" split_words:"true"`
	MinDurationMs int      `toml:"min_duration_ms" split_words:"true"`
	MaxDurationMs int      `toml:"max_duration_ms" split_words:"true"`
	ErrorRate     float64  `toml:"error_rate" split_words:"true"`
	ReplayFile    string   `toml:"replay_file" split_words:"true"`
	KafkaBrokers  []string `toml:"kafka_brokers" split_words:"true"`
	KafkaTopic    string   `toml:"kafka_topic" split_words:"true"`
	KafkaGroup    string   `toml:"kafka_group" split_words:"true"`
}

// Interval returns IntervalMs as a duration.
func (f FeedConfig) Interval() time.Duration { return ms(f.IntervalMs) }

// MinDuration returns MinDurationMs as a duration.
func (f FeedConfig) MinDuration() time.Duration { return ms(f.MinDurationMs) }

// MaxDuration returns MaxDurationMs as a duration.
func (f FeedConfig) MaxDuration() time.Duration { return ms(f.MaxDurationMs) }

// UIConfig holds presentation settings.
type UIConfig struct {
	Theme    string `toml:"theme" split_words:"true"` // auto, mocha, latte, nord
	Mouse    bool   `toml:"mouse" split_words:"true"`
	ShowHelp bool   `toml:"show_help" split_words:"true"`
	NoColor  bool   `toml:"no_color" split_words:"true"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `toml:"level" split_words:"true"` // debug, info, warn, error
	File  string `toml:"file" split_words:"true"`  // empty: $XDG_STATE_HOME/netfall/netfall.log
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Timeline: TimelineConfig{
			MinScale:         0.1,
			MaxScale:         10,
			DefaultScale:     0.1,
			ScaleStep:        0.1,
			DragSensitivity:  2,
			FollowMargin:     0.8,
			ClickThresholdPx: 4,
			FutureBufferMs:   5000,
			GridIntervalMs:   1000,
			MinBarPx:         2,
			TickMs:           16,
			AnimationMs:      300,
			ShimmerMs:        1500,
			CellPx:           8,
		},
		Feed: FeedConfig{
			Source:        SourceSimulate,
			Capacity:      50,
			IntervalMs:    2000,
			MinDurationMs: 500,
			MaxDurationMs: 3500,
			ErrorRate:     0.1,
			KafkaTopic:    "netfall.requests",
			KafkaGroup:    "netfall",
		},
		UI: UIConfig{
			Theme:    "auto",
			Mouse:    true,
			ShowHelp: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file path
func DefaultPath() string {
	if env := os.Getenv("NETFALL_CONFIG"); env != "" {
		return ExpandHome(env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "netfall", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		// Fallback to /tmp when home directory is unavailable (e.g., containers)
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "netfall", "config.toml")
}

// Load reads configuration from path, or DefaultPath when empty. A missing
// file yields the defaults. Precedence is Env > TOML > Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	sections := []struct {
		name string
		spec any
	}{
		{"TIMELINE", &cfg.Timeline},
		{"FEED", &cfg.Feed},
		{"UI", &cfg.UI},
		{"LOG", &cfg.Log},
	}
	for _, s := range sections {
		if err := envconfig.Process(EnvPrefix+"_"+s.name, s.spec); err != nil {
			return fmt.Errorf("reading %s_%s environment: %w", EnvPrefix, s.name, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Feed.Source = strings.ToLower(strings.TrimSpace(c.Feed.Source))
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Feed.ReplayFile = ExpandHome(c.Feed.ReplayFile)
	c.Log.File = ExpandHome(c.Log.File)
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	t := c.Timeline
	switch {
	case t.MinScale <= 0:
		return fmt.Errorf("%w: timeline.min_scale must be positive, got %v", ErrInvalid, t.MinScale)
	case t.DefaultScale < t.MinScale || t.DefaultScale > t.MaxScale:
		return fmt.Errorf("%w: timeline scales must satisfy min_scale <= default_scale <= max_scale (%v, %v, %v)",
			ErrInvalid, t.MinScale, t.DefaultScale, t.MaxScale)
	case t.ScaleStep <= 0:
		return fmt.Errorf("%w: timeline.scale_step must be positive", ErrInvalid)
	case t.DragSensitivity <= 0:
		return fmt.Errorf("%w: timeline.drag_sensitivity must be positive", ErrInvalid)
	case t.FollowMargin < 0 || t.FollowMargin > 1:
		return fmt.Errorf("%w: timeline.follow_margin must be within [0,1], got %v", ErrInvalid, t.FollowMargin)
	case t.ClickThresholdPx < 0:
		return fmt.Errorf("%w: timeline.click_threshold_px must not be negative", ErrInvalid)
	case t.FutureBufferMs < 0:
		return fmt.Errorf("%w: timeline.future_buffer_ms must not be negative", ErrInvalid)
	case t.GridIntervalMs <= 0:
		return fmt.Errorf("%w: timeline.grid_interval_ms must be positive", ErrInvalid)
	case t.MinBarPx <= 0:
		return fmt.Errorf("%w: timeline.min_bar_px must be positive", ErrInvalid)
	case t.TickMs <= 0:
		return fmt.Errorf("%w: timeline.tick_ms must be positive", ErrInvalid)
	case t.AnimationMs < 0:
		return fmt.Errorf("%w: timeline.animation_ms must not be negative", ErrInvalid)
	case t.ShimmerMs <= 0:
		return fmt.Errorf("%w: timeline.shimmer_ms must be positive", ErrInvalid)
	case t.CellPx < 1 || t.CellPx > 64:
		return fmt.Errorf("%w: timeline.cell_px must be within [1,64], got %d", ErrInvalid, t.CellPx)
	}

	f := c.Feed
	switch f.Source {
	case SourceSimulate, SourceNone:
	case SourceReplay:
		if f.ReplayFile == "" {
			return fmt.Errorf("%w: feed.replay_file is required for the replay source", ErrInvalid)
		}
	case SourceKafka:
		if len(f.KafkaBrokers) == 0 || f.KafkaTopic == "" {
			return fmt.Errorf("%w: feed.kafka_brokers and feed.kafka_topic are required for the kafka source", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown feed.source %q (want simulate, replay, kafka or none)", ErrInvalid, f.Source)
	}
	switch {
	case f.Capacity <= 0:
		return fmt.Errorf("%w: feed.capacity must be positive", ErrInvalid)
	case f.IntervalMs <= 0:
		return fmt.Errorf("%w: feed.interval_ms must be positive", ErrInvalid)
	case f.MinDurationMs < 0 || f.MaxDurationMs < f.MinDurationMs:
		return fmt.Errorf("%w: feed durations must satisfy 0 <= min_duration_ms <= max_duration_ms", ErrInvalid)
	case f.ErrorRate < 0 || f.ErrorRate > 1:
		return fmt.Errorf("%w: feed.error_rate must be within [0,1]", ErrInvalid)
	}

	switch c.UI.Theme {
	case "auto", "mocha", "latte", "nord":
	default:
		return fmt.Errorf("%w: unknown ui.theme %q", ErrInvalid, c.UI.Theme)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

// CreateDefault writes the default config to DefaultPath. It refuses to
// overwrite an existing file.
func CreateDefault() (string, error) {
	return CreateDefaultAt(DefaultPath())
}

// CreateDefaultAt is CreateDefault for an explicit path.
func CreateDefaultAt(path string) (string, error) {

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	var buffer strings.Builder
	if err := Print(Default(), &buffer); err != nil {
		return "", err
	}

	if err := util.AtomicWriteFile(path, []byte(buffer.String()), 0644); err != nil {
		return "", err
	}

	return path, nil
}

// Print writes cfg as a commented TOML file.
func Print(cfg *Config, w io.Writer) error {
	p := &printer{w: w}
	p.line("# netfall configuration")
	p.line("# Environment variables override this file, e.g. NETFALL_TIMELINE_DEFAULT_SCALE=0.5")
	p.line("")

	t := cfg.Timeline
	p.line("[timeline]")
	p.line("# Scales are pixels per millisecond; one terminal cell is cell_px pixels.")
	p.kv("min_scale", t.MinScale)
	p.kv("max_scale", t.MaxScale)
	p.kv("default_scale", t.DefaultScale)
	p.kv("scale_step", t.ScaleStep)
	p.line("# Scroll pixels per pointer pixel while dragging")
	p.kv("drag_sensitivity", t.DragSensitivity)
	p.line("# Keep \"now\" at this fraction of the view width while following")
	p.kv("follow_margin", t.FollowMargin)
	p.kv("click_threshold_px", t.ClickThresholdPx)
	p.kv("future_buffer_ms", t.FutureBufferMs)
	p.kv("grid_interval_ms", t.GridIntervalMs)
	p.kv("min_bar_px", t.MinBarPx)
	p.kv("tick_ms", t.TickMs)
	p.kv("animation_ms", t.AnimationMs)
	p.kv("shimmer_ms", t.ShimmerMs)
	p.kv("cell_px", t.CellPx)
	p.line("")

	f := cfg.Feed
	p.line("[feed]")
	p.line("# simulate, replay, kafka or none")
	p.kv("source", f.Source)
	p.line("# Requests kept on screen; the oldest are dropped first")
	p.kv("capacity", f.Capacity)
	p.kv("interval_ms", f.IntervalMs)
	p.kv("min_duration_ms", f.MinDurationMs)
	p.kv("max_duration_ms", f.MaxDurationMs)
	p.kv("error_rate", f.ErrorRate)
	if f.ReplayFile != "" {
		p.kv("replay_file", f.ReplayFile)
	} else {
		p.line("# replay_file = \"~/sessions/login.yaml\"")
	}
	if len(f.KafkaBrokers) > 0 {
		p.kv("kafka_brokers", f.KafkaBrokers)
	} else {
		p.line("# kafka_brokers = [\"localhost:9092\"]")
	}
	p.kv("kafka_topic", f.KafkaTopic)
	p.kv("kafka_group", f.KafkaGroup)
	p.line("")

	p.line("[ui]")
	p.line("# auto, mocha, latte or nord")
	p.kv("theme", cfg.UI.Theme)
	p.kv("mouse", cfg.UI.Mouse)
	p.kv("show_help", cfg.UI.ShowHelp)
	p.kv("no_color", cfg.UI.NoColor)
	p.line("")

	p.line("[log]")
	p.line("# debug, info, warn or error")
	p.kv("level", cfg.Log.Level)
	if cfg.Log.File != "" {
		p.kv("file", cfg.Log.File)
	} else {
		p.line("# file = \"~/.local/state/netfall/netfall.log\"")
	}
	return p.err
}

// printer keeps the first write error so Print can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) kv(key string, v any) {
	switch val := v.(type) {
	case string:
		p.line(fmt.Sprintf("%s = %q", key, val))
	case []string:
		quoted := make([]string, len(val))
		for i, s := range val {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		p.line(fmt.Sprintf("%s = [%s]", key, strings.Join(quoted, ", ")))
	case float64:
		// TOML floats need a decimal point.
		s := fmt.Sprintf("%g", val)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		p.line(fmt.Sprintf("%s = %s", key, s))
	default:
		p.line(fmt.Sprintf("%s = %v", key, val))
	}
}

// ExpandHome expands ~ to the user's home directory
func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}

	return path
}
