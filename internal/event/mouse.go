package event

import tea "github.com/charmbracelet/bubbletea"

// Button is the mouse action carried by a Mouse event.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	WheelUp
	WheelDown
)

// Mouse is a pointer event at a terminal cell.
type Mouse struct {
	X, Y   int
	Button Button
}

// MouseFromTea translates presses and wheel motion. Releases and drags are
// dropped.
func MouseFromTea(msg tea.MouseMsg) (Mouse, bool) {
	m := Mouse{X: msg.X, Y: msg.Y}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.Button = WheelUp
	case tea.MouseButtonWheelDown:
		m.Button = WheelDown
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return Mouse{}, false
		}
		m.Button = ButtonLeft
	case tea.MouseButtonRight:
		if msg.Action != tea.MouseActionPress {
			return Mouse{}, false
		}
		m.Button = ButtonRight
	default:
		return Mouse{}, false
	}
	return m, true
}
