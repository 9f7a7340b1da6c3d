package review

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	seizureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	clearStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	unknownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	windowArea   = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	modalArea = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("1")).
			Padding(0, 2)

	seizureMark = "█"
	clearMark   = "·"
	unknownMark = "?"
)
