package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primary = lipgloss.Color("#2563EB") // blue
	success = lipgloss.Color("#22C55E") // green
	warning = lipgloss.Color("#F59E0B") // amber
	errCol  = lipgloss.Color("#EF4444") // red
	muted   = lipgloss.Color("#6B7280") // gray
	text    = lipgloss.Color("#E5E7EB") // light gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1)

	statLabel = lipgloss.NewStyle().Foreground(muted).Width(12)
	statValue = lipgloss.NewStyle().Foreground(text).Bold(true)

	statsBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1).
			Width(44)

	successText = lipgloss.NewStyle().Foreground(success).Bold(true)
	warningText = lipgloss.NewStyle().Foreground(warning).Bold(true)
	errorText   = lipgloss.NewStyle().Foreground(errCol).Bold(true)
	mutedText   = lipgloss.NewStyle().Foreground(muted)

	statusBar = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)
)
