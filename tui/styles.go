package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/wifi-manager/wireless"
)

var (
	colorPrimary   = lipgloss.Color("5") // Magenta
	colorSecondary = lipgloss.Color("4") // Blue
	colorSuccess   = lipgloss.Color("2") // Green
	colorError     = lipgloss.Color("1") // Red
	colorWarning   = lipgloss.Color("3") // Yellow
	colorFaint     = lipgloss.Color("8") // Gray

	appStyle          = lipgloss.NewStyle().Margin(1, 2)
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1)
	sectionStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorSecondary).MarginTop(1)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	faintStyle        = lipgloss.NewStyle().Foreground(colorFaint)
	statusStyle       = lipgloss.NewStyle().Foreground(colorFaint).MarginTop(1)
	enabledStyle      = lipgloss.NewStyle().Foreground(colorSuccess)
	disabledStyle     = lipgloss.NewStyle().Foreground(colorError)
	promptBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFaint).Padding(0, 1).MarginTop(1)
)

func signalStyle(level wireless.SignalLevel) lipgloss.Style {
	switch level {
	case wireless.SignalStrong, wireless.SignalGood:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case wireless.SignalWeak:
		return lipgloss.NewStyle().Foreground(colorWarning)
	default:
		return lipgloss.NewStyle().Foreground(colorError)
	}
}
