package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	// One bar color per actor, cycling for larger rosters.
	actorColors = []lipgloss.Color{"39", "42", "220", "208", "201", "196", "244"}
)

func actorStyle(actor int) lipgloss.Style {
	c := actorColors[(actor-1)%len(actorColors)]
	return lipgloss.NewStyle().Foreground(c).Background(c)
}
