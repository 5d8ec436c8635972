// Package display renders CLI output with a shared lipgloss palette.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Primary   = lipgloss.Color("#4ECDC4")
	Secondary = lipgloss.Color("#6C757D")
	Good      = lipgloss.Color("#95E1A3")
	Warn      = lipgloss.Color("#FFE66D")
	Bad       = lipgloss.Color("#FF6B6B")
	Subtle    = lipgloss.Color("#888888")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	SuccessStyle = lipgloss.NewStyle().Foreground(Good)
	WarnStyle    = lipgloss.NewStyle().Foreground(Warn)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Bad)
	MutedStyle   = lipgloss.NewStyle().Foreground(Subtle)
	LabelStyle   = lipgloss.NewStyle().Foreground(Secondary)
)

// Title renders a bold section heading.
func Title(s string) string { return TitleStyle.Render(s) }

// Success renders a success line with a check mark.
func Success(s string) string { return SuccessStyle.Render("✓ " + s) }

// Warning renders a non-fatal warning line.
func Warning(s string) string { return WarnStyle.Render("⚠ " + s) }

// Error renders an error line.
func Error(s string) string { return ErrorStyle.Render("✗ " + s) }

// Muted renders de-emphasized text.
func Muted(s string) string { return MutedStyle.Render(s) }

// Duration formats seconds as "1h 23m" / "45m" / "50s".
func Duration(sec int64) string {
	d := time.Duration(sec) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}

// Bar renders a simple progress bar, percent clamped to 0-100.
func Bar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := width * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(Primary).Render(bar)
}
