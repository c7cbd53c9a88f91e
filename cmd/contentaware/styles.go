package main

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen  = lipgloss.Color("#98C379")
	colorYellow = lipgloss.Color("#E5C07B")
	colorRed    = lipgloss.Color("#E06C75")
	colorBlue   = lipgloss.Color("#61AFEF")
	colorMuted  = lipgloss.Color("#636B78")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	errStyle    = lipgloss.NewStyle().Foreground(colorRed)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

// confidenceStyle colors a confidence value by how much it can be trusted.
func confidenceStyle(conf, minConf float64) lipgloss.Style {
	switch {
	case conf >= 0.6:
		return okStyle
	case conf >= minConf:
		return warnStyle
	default:
		return errStyle
	}
}
