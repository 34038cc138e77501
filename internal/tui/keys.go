package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Dismiss     key.Binding
	DismissAll  key.Binding
	Subscribe   key.Binding
	Unsubscribe key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
	Yes         key.Binding
	No          key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Dismiss:     key.NewBinding(key.WithKeys("x", "d"), key.WithHelp("x", "dismiss")),
		DismissAll:  key.NewBinding(key.WithKeys("X", "D"), key.WithHelp("X", "dismiss all")),
		Subscribe:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "push on")),
		Unsubscribe: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "push off")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Yes:         key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "allow")),
		No:          key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "block")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dismiss, k.Subscribe, k.Unsubscribe, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Dismiss, k.DismissAll},
		{k.Subscribe, k.Unsubscribe, k.Refresh},
		{k.Help, k.Quit},
	}
}
