package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start       key.Binding
	Stop        key.Binding
	Clear       key.Binding
	NextPos     key.Binding
	PrevPos     key.Binding
	OpacityUp   key.Binding
	OpacityDown key.Binding
	Language    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Clear:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		NextPos:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p/P", "position")),
		PrevPos:     key.NewBinding(key.WithKeys("P")),
		OpacityUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "opacity")),
		OpacityDown: key.NewBinding(key.WithKeys("-", "_")),
		Language:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "language")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Clear, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Clear},
		{k.NextPos, k.OpacityUp, k.Language},
		{k.Help, k.Quit},
	}
}
