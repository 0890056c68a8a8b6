package onboard

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next   key.Binding
	Toggle key.Binding
	Skip   key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Skip}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Back, k.Skip},
		{k.Toggle, k.Quit},
	}
}

// newKeyMap describes the bindings for the help views. Next, Back and Skip
// are handled by the editor and command line; only Toggle and Quit are
// matched directly.
func newKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle package"),
		),
		Skip: key.NewBinding(
			key.WithKeys(":skip"),
			key.WithHelp(":skip", "skip step"),
		),
		Back: key.NewBinding(
			key.WithKeys(":back"),
			key.WithHelp(":back", "previous step"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "abort setup"),
		),
	}
}
