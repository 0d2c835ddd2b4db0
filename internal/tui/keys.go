package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Navigation
	Overview    key.Binding
	Invoices    key.Binding
	Contacts    key.Binding
	Inspections key.Binding
	Reports     key.Binding
	Settings    key.Binding
	Ledger      key.Binding

	// Actions
	Select key.Binding
	New    key.Binding
	Toggle key.Binding

	// Movement
	Up   key.Binding
	Down key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Back:        key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Overview:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overview")),
	Invoices:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invoices")),
	Contacts:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "contacts")),
	Inspections: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "begehungen")),
	Reports:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reports")),
	Settings:    key.NewBinding(key.WithKeys(","), key.WithHelp(",", "settings")),
	Ledger:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "next ledger")),
	Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
}
