// Package theme holds the color palettes of the terminal UI.
package theme

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Dicklesworthstone/netfall/internal/waterfall"
)

// Auto picks Mocha or Latte from the terminal background.
const Auto = "auto"

// Theme is a Catppuccin-style palette.
type Theme struct {
	Name string

	Base     lipgloss.Color
	Mantle   lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color
	Surface2 lipgloss.Color
	Overlay  lipgloss.Color
	Text     lipgloss.Color
	Subtext  lipgloss.Color

	Red      lipgloss.Color
	Maroon   lipgloss.Color
	Peach    lipgloss.Color
	Yellow   lipgloss.Color
	Green    lipgloss.Color
	Teal     lipgloss.Color
	Blue     lipgloss.Color
	Mauve    lipgloss.Color
	Pink     lipgloss.Color
	Lavender lipgloss.Color

	Primary lipgloss.Color
	Warning lipgloss.Color
}

// Mocha is the dark Catppuccin flavour.
var Mocha = Theme{
	Name:     "mocha",
	Base:     "#1e1e2e",
	Mantle:   "#181825",
	Surface0: "#313244",
	Surface1: "#45475a",
	Surface2: "#585b70",
	Overlay:  "#6c7086",
	Text:     "#cdd6f4",
	Subtext:  "#a6adc8",
	Red:      "#f38ba8",
	Maroon:   "#eba0ac",
	Peach:    "#fab387",
	Yellow:   "#f9e2af",
	Green:    "#a6e3a1",
	Teal:     "#94e2d5",
	Blue:     "#89b4fa",
	Mauve:    "#cba6f7",
	Pink:     "#f5c2e7",
	Lavender: "#b4befe",
	Primary:  "#89b4fa",
	Warning:  "#f9e2af",
}

// Latte is the light Catppuccin flavour.
var Latte = Theme{
	Name:     "latte",
	Base:     "#eff1f5",
	Mantle:   "#e6e9ef",
	Surface0: "#ccd0da",
	Surface1: "#bcc0cc",
	Surface2: "#acb0be",
	Overlay:  "#9ca0b0",
	Text:     "#4c4f69",
	Subtext:  "#6c6f85",
	Red:      "#d20f39",
	Maroon:   "#e64553",
	Peach:    "#fe640b",
	Yellow:   "#df8e1d",
	Green:    "#40a02b",
	Teal:     "#179299",
	Blue:     "#1e66f5",
	Mauve:    "#8839ef",
	Pink:     "#ea76cb",
	Lavender: "#7287fd",
	Primary:  "#1e66f5",
	Warning:  "#df8e1d",
}

// Nord maps the Nord palette onto the same slots.
var Nord = Theme{
	Name:     "nord",
	Base:     "#2e3440",
	Mantle:   "#272c36",
	Surface0: "#3b4252",
	Surface1: "#434c5e",
	Surface2: "#4c566a",
	Overlay:  "#616e88",
	Text:     "#eceff4",
	Subtext:  "#d8dee9",
	Red:      "#bf616a",
	Maroon:   "#d08770",
	Peach:    "#d08770",
	Yellow:   "#ebcb8b",
	Green:    "#a3be8c",
	Teal:     "#8fbcbb",
	Blue:     "#81a1c1",
	Mauve:    "#b48ead",
	Pink:     "#b48ead",
	Lavender: "#88c0d0",
	Primary:  "#88c0d0",
	Warning:  "#ebcb8b",
}

var palettes = map[string]Theme{
	Mocha.Name: Mocha,
	Latte.Name: Latte,
	Nord.Name:  Nord,
}

var (
	mu      sync.RWMutex
	current = Mocha
)

// Names lists the selectable theme names, including Auto.
func Names() []string {
	names := make([]string, 0, len(palettes)+1)
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{Auto}, names...)
}

// Lookup returns a named palette. Auto is not a palette; see Resolve.
func Lookup(name string) (Theme, bool) {
	t, ok := palettes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Resolve turns a configured name into a palette. Auto and the empty name
// consult dark; a nil dark asks the terminal.
func Resolve(name string, dark func() bool) (Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == Auto {
		if dark == nil {
			dark = termenv.HasDarkBackground
		}
		if dark() {
			return Mocha, nil
		}
		return Latte, nil
	}
	if t, ok := palettes[name]; ok {
		return t, nil
	}
	return Mocha, fmt.Errorf("unknown theme %q (want one of %s)", name, strings.Join(Names(), ", "))
}

// Current returns the active palette.
func Current() Theme {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set makes t the active palette.
func Set(t Theme) {
	mu.Lock()
	current = t
	mu.Unlock()
}

// NoColorRequested reports whether the NO_COLOR convention asks for plain
// output: the variable is set to a non-empty value.
func NoColorRequested() bool {
	return os.Getenv("NO_COLOR") != ""
}

// DisableColor forces lipgloss to render without any color.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Bar returns the fill color of a bar color slot.
func (t Theme) Bar(k waterfall.ColorKey) lipgloss.Color {
	switch k {
	case waterfall.ColorGet:
		return t.Green
	case waterfall.ColorPost:
		return t.Blue
	case waterfall.ColorPut:
		return t.Peach
	case waterfall.ColorDelete:
		return t.Red
	case waterfall.ColorPending:
		return t.Overlay
	case waterfall.ColorError:
		return t.Maroon
	default:
		return t.Mauve
	}
}
