package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles for the picker.
type Styles struct {
	App          lipgloss.Style
	Title        lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	ItemDetail   lipgloss.Style
	Status       lipgloss.Style
	Error        lipgloss.Style
	Success      lipgloss.Style
	Help         lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	muted := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(highlight).
			Padding(0, 1).
			MarginBottom(1),

		Item: lipgloss.NewStyle(),

		ItemSelected: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		ItemDetail: lipgloss.NewStyle().
			Foreground(muted).
			PaddingLeft(4),

		Status: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginTop(1),

		Success: lipgloss.NewStyle().
			Foreground(special).
			MarginTop(1),

		Help: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),
	}
}
