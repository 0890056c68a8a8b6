package vim

import (
	"fmt"

	"github.com/hypercube-linux/hypercube-utils/internal/event"
)

// Mode is the editor's modal state.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeCommand
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeInsert:
		return "INSERT"
	case ModeCommand:
		return "COMMAND"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// FieldKind tells the editor how the focused field behaves.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldSecret
	// FieldPicker is a filter line above a selectable list. It always
	// edits in Insert mode when focused.
	FieldPicker
)

// ActionKind is what the controller should do after a key.
type ActionKind int

const (
	ActNone ActionKind = iota
	ActFocusNext
	ActFocusPrev
	ActSubmit
	ActExecute
)

func (k ActionKind) String() string {
	switch k {
	case ActNone:
		return "none"
	case ActFocusNext:
		return "focus-next"
	case ActFocusPrev:
		return "focus-prev"
	case ActSubmit:
		return "submit"
	case ActExecute:
		return "execute"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is the editor's output for one key. Command is set for ActExecute.
type Action struct {
	Kind    ActionKind
	Command Command
}

// Editor is the modal state machine. The zero value is not usable; use
// NewEditor.
type Editor struct {
	mode    Mode
	pending bool // a lone "d" is waiting for its second "d"
	cmdline *Buffer
}

// NewEditor returns an editor starting in mode.
func NewEditor(mode Mode) *Editor {
	return &Editor{mode: mode, cmdline: NewBuffer()}
}

// Mode returns the current mode.
func (e *Editor) Mode() Mode { return e.mode }

// Pending reports whether a "d" operator is waiting.
func (e *Editor) Pending() bool { return e.pending }

// CommandLine returns the text typed after ":" while in Command mode.
func (e *Editor) CommandLine() *Buffer { return e.cmdline }

// Focus is called by the controller whenever focus lands on a field. Picker
// fields switch to Insert; other fields keep the current mode. Any pending
// operator is dropped.
func (e *Editor) Focus(kind FieldKind) {
	e.pending = false
	if kind == FieldPicker && e.mode == ModeNormal {
		e.mode = ModeInsert
	}
}

// BeginInsert performs the same transition as "i" in Normal mode.
func (e *Editor) BeginInsert() {
	e.pending = false
	if e.mode == ModeNormal {
		e.mode = ModeInsert
	}
}

// Escape returns to Normal mode, discarding a partial command line.
func (e *Editor) Escape() {
	e.pending = false
	if e.mode == ModeCommand {
		e.cmdline.Clear()
	}
	e.mode = ModeNormal
}

// Handle applies one key to buf, the content of the focused field, and
// reports what the controller should do. buf may be nil when nothing
// editable has focus. Keys without a binding in the current mode do nothing.
func (e *Editor) Handle(k event.Key, buf *Buffer, kind FieldKind) Action {
	if buf == nil {
		buf = NewBuffer()
	}

	if e.mode == ModeNormal {
		if e.pending {
			e.pending = false
			if k.Is('d') {
				buf.Clear()
			}
			return Action{}
		}
		if kind == FieldPicker && k.Printable() && !pickerNormalKeys[k.Rune] {
			e.mode = ModeInsert
			buf.InsertAfterCursor(k.Rune)
			return Action{}
		}
	}

	target := buf
	if e.mode == ModeCommand {
		target = e.cmdline
	}

	if r, ok := lookup[e.mode][bindingOf(k)]; ok {
		return r.apply(e, target)
	}

	if e.mode != ModeNormal && k.Printable() {
		target.InsertAfterCursor(k.Rune)
	}
	return Action{}
}

// pickerNormalKeys keep their Normal meaning on a picker field; every other
// printable key starts filtering.
var pickerNormalKeys = map[rune]bool{'j': true, 'k': true, ':': true}
