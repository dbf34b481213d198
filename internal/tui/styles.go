package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Base styles shared by the configure flow and the CLI renderers.
var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleSubtle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)

	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(1, 2)
)

var logoLines = []string{
	"           _ _ _       _                   ",
	"  ___ __ _| | | |_ _ __(_) __ _  __ _  ___ ",
	" / __/ _` | | | __| '__| |/ _` |/ _` |/ _ \\",
	"| (_| (_| | | | |_| |  | | (_| | (_| |  __/",
	" \\___\\__,_|_|_|\\__|_|  |_|\\__,_|\\__, |\\___|",
	"                                |___/      ",
}

// Logo returns the calltriage ASCII art.
func Logo() string {
	return StyleHeader.Render(strings.Join(logoLines, "\n"))
}

func LogoLines() []string {
	lines := make([]string, len(logoLines))
	copy(lines, logoLines)
	return lines
}
