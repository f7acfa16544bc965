// Package util provides string helpers for terminal output.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if truncated.
// ANSI escape codes and wide characters are handled, so styled cells keep their width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail in the final width
	return ansi.Truncate(s, maxWidth, ellipsis)
}

// TruncateMiddle shortens s to maxWidth visual columns by replacing its middle
// with "...". Document names differ mostly at both ends (project prefix,
// candidate suffix), so both are kept.
func TruncateMiddle(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	width := ansi.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	keep := maxWidth - len(ellipsis)
	tailWidth := keep / 2
	headWidth := keep - tailWidth

	head := ansi.Cut(s, 0, headWidth)
	tail := ansi.TruncateLeft(s, width-tailWidth, "")
	return head + ellipsis + tail
}
