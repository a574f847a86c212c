// Package panels renders the parts of the waterfall screen: the timeline
// itself and the request details popover.
package panels

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// PanelConfig holds configuration for panel behavior and display.
type PanelConfig struct {
	// ID is a unique identifier for the panel (e.g., "waterfall")
	ID string

	// Title is the display title for the panel header
	Title string

	// MinWidth is the minimum width the panel needs to render properly
	MinWidth int

	// MinHeight is the minimum height the panel needs to render properly
	MinHeight int
}

// Panel is a screen region driven by Bubble Tea messages.
type Panel interface {
	tea.Model

	// SetSize sets the panel dimensions for rendering
	SetSize(width, height int)

	// Focus marks the panel as focused (receives keyboard input)
	Focus()

	// Blur marks the panel as unfocused
	Blur()

	// Config returns the panel's configuration
	Config() PanelConfig
}

// PanelBase provides common functionality for panel implementations.
// Embed this in concrete panel types to get default implementations.
type PanelBase struct {
	config  PanelConfig
	width   int
	height  int
	focused bool
}

// NewPanelBase creates a new PanelBase with the given config.
func NewPanelBase(cfg PanelConfig) PanelBase {
	return PanelBase{config: cfg}
}

// SetSize implements Panel.SetSize
func (b *PanelBase) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Focus implements Panel.Focus
func (b *PanelBase) Focus() {
	b.focused = true
}

// Blur implements Panel.Blur
func (b *PanelBase) Blur() {
	b.focused = false
}

// Config implements Panel.Config
func (b *PanelBase) Config() PanelConfig {
	return b.config
}

// IsFocused returns whether the panel is focused
func (b *PanelBase) IsFocused() bool {
	return b.focused
}

// Width returns the current panel width
func (b *PanelBase) Width() int {
	return b.width
}

// Height returns the current panel height
func (b *PanelBase) Height() int {
	return b.height
}

// TooSmall reports whether the panel is below its minimum size.
func (b *PanelBase) TooSmall() bool {
	return b.width < b.config.MinWidth || b.height < b.config.MinHeight
}

// FitLines ensures lines has exactly targetHeight entries, truncating if too
// long or padding with blank lines if too short.
func FitLines(lines []string, targetHeight int) []string {
	if targetHeight <= 0 {
		return nil
	}
	if len(lines) > targetHeight {
		return lines[:targetHeight]
	}
	for len(lines) < targetHeight {
		lines = append(lines, "")
	}
	return lines
}

// FitToHeight ensures content exactly fills targetHeight lines,
// truncating if too long or padding if too short.
func FitToHeight(content string, targetHeight int) string {
	if targetHeight <= 0 {
		return ""
	}
	return strings.Join(FitLines(strings.Split(content, "\n"), targetHeight), "\n")
}
