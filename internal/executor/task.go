package executor

import (
	"context"
	"errors"
	"fmt"
)

// Invocation performs a task. progress may be called any number of times
// with a short human-readable line.
type Invocation func(ctx context.Context, progress func(string)) error

// Task is one unit of work in a batch.
type Task struct {
	ID        string
	Label     string
	DependsOn []string
	// Command is a display form of what Invoke does.
	Command string
	Invoke  Invocation
}

// Status is a task's position in its lifecycle.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is how a task ended.
type Outcome struct {
	OK      bool
	Message string
}

// SkippedMessage is the failure text of tasks whose dependency failed.
const SkippedMessage = "skipped: dependency failed"

// Succeeded is the outcome of a task that returned no error.
func Succeeded() Outcome { return Outcome{OK: true} }

// Failed is the outcome of a task that returned an error.
func Failed(msg string) Outcome { return Outcome{Message: msg} }

// Skipped reports whether the task never ran because a dependency failed.
func (o Outcome) Skipped() bool { return !o.OK && o.Message == SkippedMessage }

func (o Outcome) String() string {
	if o.OK {
		return "ok"
	}
	return "failed: " + o.Message
}

// MessageKind discriminates Message.
type MessageKind int

const (
	MsgStarted MessageKind = iota
	MsgProgress
	MsgCompleted
	MsgAllDone
)

func (k MessageKind) String() string {
	switch k {
	case MsgStarted:
		return "started"
	case MsgProgress:
		return "progress"
	case MsgCompleted:
		return "completed"
	case MsgAllDone:
		return "all-done"
	default:
		return fmt.Sprintf("MessageKind(%d)", int(k))
	}
}

// Message is one event of a running batch.
type Message struct {
	Kind    MessageKind
	Batch   string
	TaskID  string
	Text    string
	Outcome Outcome
}

var (
	// ErrDuplicateTask is returned when a task id is enqueued twice.
	ErrDuplicateTask = errors.New("duplicate task id")
	// ErrUnknownDependency is returned for a dependency that names no task.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrCycle is returned when dependencies form a loop.
	ErrCycle = errors.New("dependency cycle")
	// ErrStarted is returned when the batch is modified or started after
	// Start.
	ErrStarted = errors.New("batch already started")
)
