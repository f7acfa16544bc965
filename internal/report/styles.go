package report

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	goodColor    = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#F87171") // Red
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	borderColor  = lipgloss.Color("#6B7280") // Gray

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = cellStyle.Foreground(mutedColor)
	errorStyle  = cellStyle.Foreground(errorColor)
	borderStyle = lipgloss.NewStyle().Foreground(borderColor)
)

// scoreStyle colors a metric cell by how close it is to 1.
func scoreStyle(v float64) lipgloss.Style {
	switch {
	case v >= 0.75:
		return cellStyle.Foreground(goodColor)
	case v >= 0.5:
		return cellStyle.Foreground(warningColor)
	default:
		return cellStyle.Foreground(errorColor)
	}
}
