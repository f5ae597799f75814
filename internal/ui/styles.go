package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. A single accent color keeps the output readable in logs
// and terminals alike.
const (
	ColorLime     = "154" // changed marker
	ColorWhite    = "255" // file paths
	ColorGray     = "245" // labels
	ColorDarkGray = "238" // timestamps
)

// Styles holds the lipgloss styles used by the Reporter.
type Styles struct {
	Changed lipgloss.Style
	Path    lipgloss.Style
	Label   lipgloss.Style
	Dim     lipgloss.Style
}

// DefaultStyles returns the default style set.
func DefaultStyles() Styles {
	return Styles{
		Changed: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWhite)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}
