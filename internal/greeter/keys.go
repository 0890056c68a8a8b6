package greeter

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings that work regardless of the editor mode.
type keyMap struct {
	Users    key.Binding
	Sessions key.Binding
	Power    key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Users, k.Sessions, k.Power}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Users, k.Sessions, k.Power, k.Quit}}
}

func newKeyMap() keyMap {
	return keyMap{
		Users: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "users"),
		),
		Sessions: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "sessions"),
		),
		Power: key.NewBinding(
			key.WithKeys("f12"),
			key.WithHelp("F12", "power"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "restart greeter"),
		),
	}
}
