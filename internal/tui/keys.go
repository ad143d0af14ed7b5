package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the picker's key bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Remember key.Binding
	PowerOn  key.Binding
	PowerOff key.Binding
	Rescan   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Remember: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "remember as default"),
		),
		PowerOn: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "power on"),
		),
		PowerOff: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "power off"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Remember, k.PowerOn, k.PowerOff, k.Rescan, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Remember, k.PowerOn, k.PowerOff},
		{k.Rescan, k.Quit},
	}
}
