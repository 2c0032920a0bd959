// Package ui holds the terminal styling for subpilot's report commands.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	LightForeground = lipgloss.Color("#1a1a2e")
	LightPrimary    = lipgloss.Color("#ff4500") // reddit orange
	LightMuted      = lipgloss.Color("#878a8c")

	DarkForeground = lipgloss.Color("#d7dadc")
	DarkPrimary    = lipgloss.Color("#ff6a33")
	DarkMuted      = lipgloss.Color("#818384")

	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#46d160")
	Warning     = lipgloss.Color("#ffc107")
	Info        = lipgloss.Color("#0079d3")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{Foreground: LightForeground, Primary: LightPrimary, Muted: LightMuted}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{Foreground: DarkForeground, Primary: DarkPrimary, Muted: DarkMuted, IsDark: true}
}

// DetectTheme picks dark mode from COLORFGBG or SUBPILOT_DARK_MODE=1.
func DetectTheme() Theme {
	// COLORFGBG is "foreground;background"; ANSI 0-6 and 8 are dark backgrounds.
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	if os.Getenv("SUBPILOT_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the styled components.
type Styles struct {
	Theme Theme

	Title lipgloss.Style
	Label lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

// NewStyles creates a Styles instance for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Width(16),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// Field renders one "label value" line.
func (s Styles) Field(label, value string) string {
	return s.Label.Render(label) + s.Body.Render(value) + "\n"
}

// Outcome renders a success flag.
func (s Styles) Outcome(ok bool) string {
	if ok {
		return s.Success.Render("ok")
	}
	return s.Error.Render("failed")
}
