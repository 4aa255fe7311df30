package tasks

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	id         lipgloss.Style
	taskTitle  lipgloss.Style
	detail     lipgloss.Style
	tag        lipgloss.Style
	empty      lipgloss.Style
	pending    lipgloss.Style
	inProgress lipgloss.Style
	done       lipgloss.Style
	high       lipgloss.Style
	medium     lipgloss.Style
	low        lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		id:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		taskTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2),
		tag:        lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		empty:      lipgloss.NewStyle().Faint(true),
		pending:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		inProgress: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		done:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		high:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		medium:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		low:        lipgloss.NewStyle().Faint(true),
	}
}
