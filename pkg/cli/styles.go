package cli

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Terminal colors, adaptive to light and dark backgrounds.
var (
	ColorKeep = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorDrop = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorHead = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	KeepStyle   = lipgloss.NewStyle().Foreground(ColorKeep)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	DropStyle   = lipgloss.NewStyle().Foreground(ColorDrop)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMute)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHead)
)

const (
	IconKeep = "✓"
	IconDrop = "✗"
	IconWarn = "⚠"
)

// RenderKeep renders text for a retained item.
func RenderKeep(s string) string {
	return KeepStyle.Render(s)
}

// RenderDrop renders text for a removed item.
func RenderDrop(s string) string {
	return DropStyle.Render(s)
}

// RenderWarn renders a warning.
func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

// RenderMuted renders secondary information.
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderHeader renders a section header in upper case.
func RenderHeader(s string) string {
	return HeaderStyle.Render(strings.ToUpper(s))
}

// FormatBytes formats a file size, e.g. "4.2 MB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatCount formats a count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatAge formats t relative to now, e.g. "3 days ago".
func FormatAge(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
