package greetd

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrNoSocket is returned by DialEnv when $GREETD_SOCK is unset.
var ErrNoSocket = errors.New("GREETD_SOCK is not set")

// ErrorType represents the category of a transport failure
type ErrorType int

const (
	// ErrTypeConnection indicates the socket could not be reached or broke
	ErrTypeConnection ErrorType = iota
	// ErrTypeProtocol indicates greetd sent something we cannot understand
	ErrTypeProtocol
	// ErrTypeTimeout indicates the request deadline passed
	ErrTypeTimeout
	// ErrTypeClosed indicates the client was used after Close
	ErrTypeClosed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnection:
		return "Connection Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeClosed:
		return "Client Closed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is a failure to exchange a message with greetd. A rejected login is
// not an Error; it arrives as a Reply of kind ReplyError.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// classify wraps an I/O error from the socket.
func classify(message string, err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	if os.IsTimeout(err) {
		return &Error{Type: ErrTypeTimeout, Message: message, Err: err}
	}
	return &Error{Type: ErrTypeConnection, Message: message, Err: err}
}

// NewProtocolError creates an error for an unintelligible message
func NewProtocolError(message string, err error) *Error {
	return &Error{Type: ErrTypeProtocol, Message: message, Err: err}
}

// IsConnectionError reports whether err means greetd could not be reached.
func IsConnectionError(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Type == ErrTypeConnection
}

// IsProtocolError reports whether err is a malformed exchange.
func IsProtocolError(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Type == ErrTypeProtocol
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Type == ErrTypeTimeout
}

// IsNotListening reports whether the socket exists but nobody accepts on it,
// or does not exist at all.
func IsNotListening(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT)
}
