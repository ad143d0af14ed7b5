package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theriverman/megaboom/internal/power"
	"github.com/theriverman/megaboom/internal/scan"
)

// Deps wires the picker to the rest of the tool.
type Deps struct {
	Scanner    scan.Scanner
	Actuator   power.Actuator
	ConfigPath string
	LocalMAC   func() (string, error)
	Timeout    time.Duration
}

// Run starts the interactive scan picker.
func Run(deps Deps) error {
	m := NewModel(deps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
