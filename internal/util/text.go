// Package util holds small formatting helpers shared by the engine and the UI.
package util

import (
	"fmt"
	"math"
	"time"

	"github.com/mattn/go-runewidth"
)

// Truncate shortens a string to maxLen with ellipsis.
// Uses three ASCII periods "..." to indicate truncation.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	// When n too small for content + ellipsis, just return first n chars
	if n <= 3 {
		// Find last rune boundary at or before n bytes
		lastValid := 0
		for i := range s {
			if i > n {
				break
			}
			lastValid = i
		}
		if lastValid == 0 && len(s) > 0 {
			return ""
		}
		return s[:lastValid]
	}
	// Find the last rune boundary that allows for "..." suffix within n bytes.
	targetLen := n - 3
	prevI := 0
	for i := range s {
		if i > targetLen {
			return s[:prevI] + "..."
		}
		prevI = i
	}
	// All rune starts are <= targetLen, but string is > n bytes.
	return s[:prevI] + "..."
}

// TruncateMiddle shortens s to maxWidth terminal cells by cutting out the
// middle, so the host and the last path segment of a URL both survive.
func TruncateMiddle(s string, maxWidth int) string {
	const ellipsis = "…"
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return runewidth.Truncate(s, 1, "")
	}

	avail := maxWidth - runewidth.StringWidth(ellipsis)
	headW := (avail + 1) / 2
	tailW := avail - headW

	runes := []rune(s)
	start, w := len(runes), 0
	for start > 0 {
		rw := runewidth.RuneWidth(runes[start-1])
		if w+rw > tailW {
			break
		}
		w += rw
		start--
	}
	return runewidth.Truncate(s, headW, "") + ellipsis + string(runes[start:])
}

// FormatBytes formats bytes in a human-readable way (e.g., "1.5 KB")
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatMillis renders a duration as whole milliseconds, e.g. "1500ms".
// Negative durations render as "0ms".
func FormatMillis(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%dms", int64(math.Round(float64(d)/float64(time.Millisecond))))
}

// FormatClock renders t as a wall-clock label with millisecond precision.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("15:04:05.000")
}
