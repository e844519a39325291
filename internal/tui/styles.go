package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// TitleStyle styles the line above a table.
	TitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	// Faint is used for secondary detail such as paths.
	Faint = lipgloss.NewStyle().Faint(true)

	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleActive = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleFail   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	statusStyles = map[string]lipgloss.Style{
		"probed":     styleOK,
		"downloaded": styleOK,
		"succeeded":  styleOK,
		"ok":         styleOK,
		"rendered":   styleOK,

		"probing":     styleActive,
		"submitted":   styleActive,
		"preparing":   styleActive,
		"queued":      styleActive,
		"running":     styleActive,
		"streaming":   styleActive,
		"downloading": styleActive,
		"rendering":   styleActive,

		"skipped":    styleWarn,
		"degenerate": styleWarn,
		"missing":    styleWarn,
		"warning":    styleWarn,

		"error":     styleFail,
		"failed":    styleFail,
		"timeouted": styleFail,
		"cancelled": styleFail,

		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
