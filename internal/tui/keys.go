package tui

import "github.com/charmbracelet/bubbles/key"

type listKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Open key.Binding
	Add  key.Binding
	Quit key.Binding
}

var listKeys = listKeyMap{
	Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Add:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add contact")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type formKeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Enter   key.Binding
	Save    key.Binding
	Primary key.Binding
	Close   key.Binding
	Quit    key.Binding
}

var formKeys = formKeyMap{
	Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
	Enter:   key.NewBinding(key.WithKeys("enter")),
	Save:    key.NewBinding(key.WithKeys("ctrl+s")),
	Primary: key.NewBinding(key.WithKeys("ctrl+e")),
	Close:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	Quit:    key.NewBinding(key.WithKeys("ctrl+c")),
}
