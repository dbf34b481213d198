package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the calltriage terminal surfaces.
var (
	ColorPrimary   = lipgloss.Color("#E11D48") // rose, the dispatch accent
	ColorSecondary = lipgloss.Color("#0EA5E9") // sky blue

	ColorSuccess = lipgloss.Color("#22C55E")
	ColorError   = lipgloss.Color("#EF4444")
	ColorWarning = lipgloss.Color("#F59E0B")

	ColorText   = lipgloss.Color("#F8FAFC")
	ColorMuted  = lipgloss.Color("#94A3B8")
	ColorSubtle = lipgloss.Color("#64748B")
)

// severityColors ranks urgency visually, low to critical.
var severityColors = map[string]lipgloss.Color{
	"low":      ColorSubtle,
	"medium":   ColorWarning,
	"high":     lipgloss.Color("#F97316"),
	"critical": ColorError,
}

// SeverityColor returns the palette color for a severity name.
func SeverityColor(name string) lipgloss.Color {
	if c, ok := severityColors[name]; ok {
		return c
	}
	return ColorText
}
