// Package layout holds cell-width aware text helpers for the terminal UI:
// truncation, wrapping and splicing styled overlays into rendered lines.
package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// DefaultEllipsis is appended by the *Default truncation helpers.
const DefaultEllipsis = "…"

const reset = "\x1b[0m"

// TruncateWidth shortens s to at most maxWidth terminal cells, ending with
// suffix when cut. Wide runes are never split.
func TruncateWidth(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if runewidth.StringWidth(suffix) >= maxWidth {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, suffix)
}

// TruncateWidthDefault is TruncateWidth with DefaultEllipsis.
func TruncateWidthDefault(s string, maxWidth int) string {
	return TruncateWidth(s, maxWidth, DefaultEllipsis)
}

// Wrap word-wraps s at limit cells, breaking words that are longer than a
// whole line.
func Wrap(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	return wrap.String(wordwrap.String(s, limit), limit)
}

// WrapLines is Wrap split into lines.
func WrapLines(s string, limit int) []string {
	return strings.Split(Wrap(s, limit), "\n")
}

// CutANSI returns the first width cells of a styled line.
func CutANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return truncate.String(s, uint(width))
}

// SkipWidth drops the first n cells of a styled line and returns the rest.
// Escape sequences met while skipping are kept so the remainder renders with
// the style that was active at the cut. A wide rune straddling the cut is
// replaced by a space.
func SkipWidth(s string, n int) string {
	if n <= 0 {
		return s
	}
	var (
		styles strings.Builder
		inSeq  bool
		w      int
	)
	for i, r := range s {
		if r == ansi.Marker {
			inSeq = true
			styles.WriteRune(r)
			continue
		}
		if inSeq {
			styles.WriteRune(r)
			if ansi.IsTerminator(r) {
				inSeq = false
			}
			continue
		}
		if w >= n {
			return styles.String() + s[i:]
		}
		rw := runewidth.RuneWidth(r)
		w += rw
		if w > n {
			// Wide rune cut in half.
			rest := s[i+len(string(r)):]
			return styles.String() + strings.Repeat(" ", w-n) + rest
		}
	}
	return styles.String()
}

// Overlay splices the lines of box over base, with the top-left corner of
// box at column x and row y. Base lines shorter than x are padded.
func Overlay(base []string, box []string, x, y int) []string {
	out := make([]string, len(base))
	copy(out, base)
	if x < 0 {
		x = 0
	}
	for i, line := range box {
		row := y + i
		if row < 0 || row >= len(out) {
			continue
		}
		bw := ansi.PrintableRuneWidth(line)
		under := out[row]
		left := CutANSI(under, x)
		if pad := x - ansi.PrintableRuneWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := SkipWidth(under, x+bw)
		if strings.ContainsRune(under, ansi.Marker) || strings.ContainsRune(line, ansi.Marker) {
			out[row] = left + reset + line + reset + right
		} else {
			out[row] = left + line + right
		}
	}
	return out
}

// PadRight pads a styled line with spaces to width cells.
func PadRight(s string, width int) string {
	if gap := width - ansi.PrintableRuneWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
