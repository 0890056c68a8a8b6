package event

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickInterval is the heartbeat period of the control loop.
const TickInterval = 250 * time.Millisecond

// TickMsg is delivered once per TickInterval while the tick is re-armed.
type TickMsg time.Time

// Tick schedules the next heartbeat.
func Tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Listen waits for one value on ch and delivers it as a message. A closed
// channel yields a nil message, which the program discards, so the listener
// simply stops being re-armed.
func Listen[T any](ch <-chan T) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return v
	}
}
