package arena

import "github.com/charmbracelet/lipgloss"

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	stylePlayerHit = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleMonsterHit = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleReward = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleDefeat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// lineKind identifies the type of a log line for styling.
type lineKind int

const (
	kindSystem lineKind = iota
	kindPlayerHit
	kindMonsterHit
	kindReward
	kindDefeat
)

func (k lineKind) style() lipgloss.Style {
	switch k {
	case kindPlayerHit:
		return stylePlayerHit
	case kindMonsterHit:
		return styleMonsterHit
	case kindReward:
		return styleReward
	case kindDefeat:
		return styleDefeat
	default:
		return styleSystem
	}
}
