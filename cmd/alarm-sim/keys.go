package main

import "github.com/charmbracelet/bubbles/key"

// keyMap binds terminal keys to the front panel and the simulation.
type keyMap struct {
	Mode   key.Binding
	Set    key.Binding
	Up     key.Binding
	Down   key.Binding
	Snooze key.Binding
	Nap    key.Binding

	Finish key.Binding
	Minute key.Binding
	Hour   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mode"),
		),
		Set: key.NewBinding(
			key.WithKeys("s", "enter"),
			key.WithHelp("s", "set"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Snooze: key.NewBinding(
			key.WithKeys(" ", "z"),
			key.WithHelp("space", "snooze"),
		),
		Nap: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "hold snooze"),
		),
		Finish: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "end track"),
		),
		Minute: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "+1 min"),
		),
		Hour: key.NewBinding(
			key.WithKeys("}"),
			key.WithHelp("}", "+1 hour"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Mode, k.Set, k.Up, k.Down, k.Snooze, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Mode, k.Set, k.Up, k.Down},
		{k.Snooze, k.Nap, k.Finish},
		{k.Minute, k.Hour, k.Help, k.Quit},
	}
}
