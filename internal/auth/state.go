package auth

import "fmt"

// StateKind enumerates the phases of a login attempt.
type StateKind int

const (
	StateIdle StateKind = iota
	StateConnecting
	StateAwaitingSecret
	StateAwaitingSessionStart
	StateAuthenticated
	StateFailed
	StateCancelled
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingSecret:
		return "awaiting-secret"
	case StateAwaitingSessionStart:
		return "awaiting-session-start"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is the current phase plus its payload.
type State struct {
	Kind StateKind
	// Prompt is the service's question while AwaitingSecret.
	Prompt string
	// Masked is set when the answer to Prompt must not be echoed.
	Masked bool
	// Reason explains a Failed state, verbatim from the service when it
	// gave one.
	Reason string
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s.Kind {
	case StateAuthenticated, StateFailed, StateCancelled:
		return true
	}
	return false
}

func (s State) String() string {
	switch s.Kind {
	case StateAwaitingSecret:
		return fmt.Sprintf("%s(%q)", s.Kind, s.Prompt)
	case StateFailed:
		return fmt.Sprintf("%s(%q)", s.Kind, s.Reason)
	default:
		return s.Kind.String()
	}
}
