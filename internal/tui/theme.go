package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header      lipgloss.Style
	panel       lipgloss.Style
	panelFocus  lipgloss.Style
	panelTitle  lipgloss.Style
	selected    lipgloss.Style
	muted       lipgloss.Style
	online      lipgloss.Style
	offline     lipgloss.Style
	errorStatus lipgloss.Style
	status      lipgloss.Style
	author      lipgloss.Style
	human       lipgloss.Style
	blocked     lipgloss.Style
	hitl        lipgloss.Style
	inputPanel  lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("#7c3aed")
	mint := lipgloss.Color("#10b981")
	red := lipgloss.Color("#ef4444")
	amber := lipgloss.Color("#f59e0b")
	muted := lipgloss.Color("#9ca3af")

	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		panel: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted),
		panelFocus: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		panelTitle:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(accent),
		muted:       lipgloss.NewStyle().Foreground(muted),
		online:      lipgloss.NewStyle().Foreground(mint).Bold(true),
		offline:     lipgloss.NewStyle().Foreground(red).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(red).Bold(true),
		status:      lipgloss.NewStyle().Foreground(muted),
		author:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60a5fa")),
		human:       lipgloss.NewStyle().Bold(true).Foreground(mint),
		blocked:     lipgloss.NewStyle().Foreground(red).Strikethrough(true),
		hitl:        lipgloss.NewStyle().Foreground(amber).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent),
	}
}
