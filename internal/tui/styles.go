// Package tui implements the interactive watch view.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#e0af68")
	colorMuted   = lipgloss.Color("#565f89")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#ff9e64")
	colorInfo    = lipgloss.Color("#7aa2f7")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	badgeOnStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	badgeOffStyle = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorWarning)

	toastBase = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(toastWidth)
	toastInfoStyle    = toastBase.BorderForeground(colorInfo)
	toastSuccessStyle = toastBase.BorderForeground(colorSuccess)
	toastWarningStyle = toastBase.BorderForeground(colorWarning)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)
)
