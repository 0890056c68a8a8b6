package vim

import (
	"math/rand"
	"testing"

	"github.com/hypercube-linux/hypercube-utils/internal/event"
)

func typeKeys(e *Editor, b *Buffer, kind FieldKind, keys ...event.Key) []Action {
	var out []Action
	for _, k := range keys {
		out = append(out, e.Handle(k, b, kind))
	}
	return out
}

func runes(s string) []event.Key {
	keys := make([]event.Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, event.Rune(r))
	}
	return keys
}

func TestEditorTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     Mode
		key      event.Key
		wantMode Mode
		wantAct  ActionKind
	}{
		{"i enters insert", ModeNormal, event.Rune('i'), ModeInsert, ActNone},
		{"a enters insert", ModeNormal, event.Rune('a'), ModeInsert, ActNone},
		{"colon enters command", ModeNormal, event.Rune(':'), ModeCommand, ActNone},
		{"j focuses next", ModeNormal, event.Rune('j'), ModeNormal, ActFocusNext},
		{"k focuses previous", ModeNormal, event.Rune('k'), ModeNormal, ActFocusPrev},
		{"enter submits in normal", ModeNormal, event.Special(event.CodeEnter), ModeNormal, ActSubmit},
		{"unbound normal key is ignored", ModeNormal, event.Rune('z'), ModeNormal, ActNone},
		{"esc leaves insert", ModeInsert, event.Special(event.CodeEscape), ModeNormal, ActNone},
		{"enter submits from insert", ModeInsert, event.Special(event.CodeEnter), ModeNormal, ActSubmit},
		{"tab focuses next in insert", ModeInsert, event.Special(event.CodeTab), ModeInsert, ActFocusNext},
		{"esc leaves command", ModeCommand, event.Special(event.CodeEscape), ModeNormal, ActNone},
		{"enter runs command", ModeCommand, event.Special(event.CodeEnter), ModeNormal, ActExecute},
		{"backspace on empty command line", ModeCommand, event.Special(event.CodeBackspace), ModeNormal, ActNone},
		{"unbound ctrl key in insert", ModeInsert, event.Ctrl('g'), ModeInsert, ActNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEditor(tt.from)
			act := e.Handle(tt.key, NewBuffer(), FieldText)
			if e.Mode() != tt.wantMode {
				t.Errorf("mode = %v, want %v", e.Mode(), tt.wantMode)
			}
			if act.Kind != tt.wantAct {
				t.Errorf("action = %v, want %v", act.Kind, tt.wantAct)
			}
		})
	}
}

func TestEditorAppendMovesCursor(t *testing.T) {
	e := NewEditor(ModeNormal)
	b := bufferOf("ac", 0)
	typeKeys(e, b, FieldText, event.Rune('a'), event.Rune('b'))
	if b.String() != "abc" {
		t.Errorf("buffer = %q, want %q", b.String(), "abc")
	}
}

func TestEditorDoubleD(t *testing.T) {
	e := NewEditor(ModeNormal)
	b := bufferOf("alice", 2)

	typeKeys(e, b, FieldText, event.Rune('d'))
	if !e.Pending() {
		t.Fatal("lone d should set pending")
	}
	if b.String() != "alice" {
		t.Fatalf("lone d changed buffer to %q", b.String())
	}

	typeKeys(e, b, FieldText, event.Rune('d'))
	if !b.Empty() || b.Cursor() != 0 {
		t.Errorf("dd left %q cursor %d", b.String(), b.Cursor())
	}
	if e.Pending() || e.Mode() != ModeNormal {
		t.Errorf("after dd pending=%v mode=%v", e.Pending(), e.Mode())
	}
}

func TestEditorLoneDThenOtherKey(t *testing.T) {
	for _, k := range []event.Key{event.Rune('x'), event.Rune('i'), event.Rune(':'), event.Special(event.CodeEnter)} {
		t.Run(k.String(), func(t *testing.T) {
			e := NewEditor(ModeNormal)
			b := bufferOf("alice", 2)
			acts := typeKeys(e, b, FieldText, event.Rune('d'), k)
			if b.String() != "alice" || b.Cursor() != 2 {
				t.Errorf("buffer = %q cursor %d, want unchanged", b.String(), b.Cursor())
			}
			if e.Mode() != ModeNormal || e.Pending() {
				t.Errorf("mode=%v pending=%v, want Normal and not pending", e.Mode(), e.Pending())
			}
			if acts[1].Kind != ActNone {
				t.Errorf("action = %v, want none", acts[1].Kind)
			}
		})
	}
}

func TestEditorInsertEditing(t *testing.T) {
	e := NewEditor(ModeInsert)
	b := NewBuffer()
	typeKeys(e, b, FieldText, runes("foo bar")...)
	if b.String() != "foo bar" {
		t.Fatalf("typed %q", b.String())
	}

	typeKeys(e, b, FieldText, event.Ctrl('w'))
	if b.String() != "foo" {
		t.Errorf("ctrl+w left %q", b.String())
	}

	typeKeys(e, b, FieldText, event.Special(event.CodeBackspace))
	if b.String() != "fo" {
		t.Errorf("backspace left %q", b.String())
	}

	typeKeys(e, b, FieldText, event.Ctrl('u'))
	if !b.Empty() {
		t.Errorf("ctrl+u left %q", b.String())
	}
}

func TestEditorCommandLine(t *testing.T) {
	e := NewEditor(ModeNormal)
	field := bufferOf("alice", 5)

	keys := append([]event.Key{event.Rune(':')}, runes("session work")...)
	keys = append(keys, event.Special(event.CodeEnter))
	acts := typeKeys(e, field, FieldText, keys...)

	last := acts[len(acts)-1]
	if last.Kind != ActExecute {
		t.Fatalf("action = %v, want execute", last.Kind)
	}
	if want := (Command{Kind: CmdSession, Arg: "work"}); last.Command != want {
		t.Errorf("command = %+v, want %+v", last.Command, want)
	}
	if field.String() != "alice" {
		t.Errorf("command line typing leaked into field: %q", field.String())
	}
	if !e.CommandLine().Empty() {
		t.Errorf("command line not cleared: %q", e.CommandLine().String())
	}
}

func TestEditorCommandEscapeDiscards(t *testing.T) {
	e := NewEditor(ModeNormal)
	keys := append([]event.Key{event.Rune(':')}, runes("reboot")...)
	keys = append(keys, event.Special(event.CodeEscape))
	acts := typeKeys(e, NewBuffer(), FieldText, keys...)
	for _, a := range acts {
		if a.Kind != ActNone {
			t.Fatalf("unexpected action %v", a.Kind)
		}
	}
	if !e.CommandLine().Empty() || e.Mode() != ModeNormal {
		t.Errorf("mode=%v cmdline=%q", e.Mode(), e.CommandLine().String())
	}
}

func TestEditorPickerField(t *testing.T) {
	t.Run("focus forces insert", func(t *testing.T) {
		e := NewEditor(ModeNormal)
		e.Focus(FieldPicker)
		if e.Mode() != ModeInsert {
			t.Errorf("mode = %v, want insert", e.Mode())
		}
	})

	t.Run("printable in normal is not dropped", func(t *testing.T) {
		e := NewEditor(ModeNormal)
		b := NewBuffer()
		e.Handle(event.Rune('x'), b, FieldPicker)
		if e.Mode() != ModeInsert {
			t.Errorf("mode = %v, want insert", e.Mode())
		}
		if b.String() != "x" {
			t.Errorf("filter = %q, want %q", b.String(), "x")
		}
	})

	t.Run("j still navigates", func(t *testing.T) {
		e := NewEditor(ModeNormal)
		b := NewBuffer()
		act := e.Handle(event.Rune('j'), b, FieldPicker)
		if act.Kind != ActFocusNext || !b.Empty() {
			t.Errorf("action = %v filter = %q", act.Kind, b.String())
		}
	})

	t.Run("text field keeps mode on focus", func(t *testing.T) {
		e := NewEditor(ModeNormal)
		e.Focus(FieldText)
		if e.Mode() != ModeNormal {
			t.Errorf("mode = %v, want normal", e.Mode())
		}
	})
}

func TestEditorRandomKeysNeverPanic(t *testing.T) {
	pool := []event.Key{
		event.Rune('i'), event.Rune('a'), event.Rune('d'), event.Rune('x'),
		event.Rune('h'), event.Rune('l'), event.Rune(':'), event.Rune('q'),
		event.Rune(' '), event.Rune('$'), event.Rune('0'), event.Rune('A'),
		event.Ctrl('u'), event.Ctrl('w'), event.Ctrl('a'), event.Ctrl('e'),
		event.Special(event.CodeEnter), event.Special(event.CodeEscape),
		event.Special(event.CodeBackspace), event.Special(event.CodeDelete),
		event.Special(event.CodeLeft), event.Special(event.CodeRight),
		event.Special(event.CodeTab), event.Special(event.CodeF2),
	}
	kinds := []FieldKind{FieldText, FieldSecret, FieldPicker}
	rng := rand.New(rand.NewSource(42))

	e := NewEditor(ModeInsert)
	b := NewBuffer()
	for i := 0; i < 20000; i++ {
		e.Handle(pool[rng.Intn(len(pool))], b, kinds[rng.Intn(len(kinds))])
		for _, buf := range []*Buffer{b, e.CommandLine()} {
			if buf.Cursor() < 0 || buf.Cursor() > buf.Len() {
				t.Fatalf("step %d: cursor %d out of [0, %d]", i, buf.Cursor(), buf.Len())
			}
		}
	}
}

func TestBindingsListsTable(t *testing.T) {
	got := Bindings(ModeNormal)
	if len(got) != len(normalRules) {
		t.Fatalf("Bindings(Normal) has %d rows, want %d", len(got), len(normalRules))
	}
	if got[0].Keys != "i" || got[0].Help != "insert" {
		t.Errorf("first row = %+v", got[0])
	}
}
