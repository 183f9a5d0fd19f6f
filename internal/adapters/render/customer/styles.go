package customer

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	detail   lipgloss.Style
	primary  lipgloss.Style
	warning  lipgloss.Style
	success  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
	viewer   lipgloss.Style
	editor   lipgloss.Style
	dialog   lipgloss.Style
	question lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		primary:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		success:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
		viewer:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		editor:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		dialog:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("244")).Padding(0, 1),
		question: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}
}
