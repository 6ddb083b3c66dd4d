package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Switch  key.Binding
	Select  key.Binding
	Connect key.Binding
	Forget  key.Binding
	Refresh key.Binding
	Scan    key.Binding
	Toggle  key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Scan, k.Toggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Switch},
		{k.Select, k.Connect, k.Forget},
		{k.Refresh, k.Scan, k.Toggle},
		{k.Back, k.Help, k.Quit},
	}
}

var defaultKeys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Switch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch list")),
	Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select/confirm")),
	Connect: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect with password")),
	Forget:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "forget")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Scan:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
	Toggle:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle radio")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
