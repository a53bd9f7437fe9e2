// Package util holds small text helpers shared by the terminal views.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// TruncateString shortens plain text to maxLen runes, ending it with Ellipsis
// when cut. A non-positive maxLen yields the empty string.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return Ellipsis
	}
	return string(runes[:maxLen-1]) + Ellipsis
}

// TruncateANSI shortens styled text to maxWidth terminal columns. Escape
// sequences are preserved and wide characters count by their display width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, Ellipsis)
}
