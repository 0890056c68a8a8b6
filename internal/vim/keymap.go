package vim

import (
	"strings"

	"github.com/hypercube-linux/hypercube-utils/internal/event"
)

type binding struct {
	code event.Code
	r    rune
	mods event.Mod
}

func bindingOf(k event.Key) binding {
	if k.Code != event.CodeRune {
		return binding{code: k.Code, mods: k.Mods}
	}
	return binding{code: k.Code, r: k.Rune, mods: k.Mods}
}

type rule struct {
	keys  []event.Key
	help  string
	apply func(e *Editor, buf *Buffer) Action
}

var (
	none       = Action{}
	focusNext  = Action{Kind: ActFocusNext}
	focusPrev  = Action{Kind: ActFocusPrev}
	submit     = Action{Kind: ActSubmit}
	keyEnter   = event.Special(event.CodeEnter)
	keyEsc     = event.Special(event.CodeEscape)
	keyBS      = event.Special(event.CodeBackspace)
	keyDel     = event.Special(event.CodeDelete)
	keyLeft    = event.Special(event.CodeLeft)
	keyRight   = event.Special(event.CodeRight)
	keyUp      = event.Special(event.CodeUp)
	keyDown    = event.Special(event.CodeDown)
	keyHome    = event.Special(event.CodeHome)
	keyEnd     = event.Special(event.CodeEnd)
	keyTab     = event.Special(event.CodeTab)
	keyBackTab = event.Special(event.CodeBackTab)
)

func to(m Mode, then func(*Buffer)) func(*Editor, *Buffer) Action {
	return func(e *Editor, b *Buffer) Action {
		if then != nil {
			then(b)
		}
		e.mode = m
		return none
	}
}

func edit(f func(*Buffer)) func(*Editor, *Buffer) Action {
	return func(_ *Editor, b *Buffer) Action {
		f(b)
		return none
	}
}

func emit(a Action) func(*Editor, *Buffer) Action {
	return func(*Editor, *Buffer) Action { return a }
}

var (
	moveLeft   = edit((*Buffer).MoveLeft)
	moveRight  = edit((*Buffer).MoveRight)
	moveStart  = edit((*Buffer).MoveStart)
	moveEnd    = edit((*Buffer).MoveEnd)
	clearLine  = edit((*Buffer).Clear)
	deleteChar = edit(func(b *Buffer) { b.DeleteAtCursor() })
	deleteBack = edit(func(b *Buffer) { b.DeleteBackward() })
	deleteWord = edit(func(b *Buffer) { b.DeleteWordBackward() })
)

var normalRules = []rule{
	{[]event.Key{event.Rune('i')}, "insert", to(ModeInsert, nil)},
	{[]event.Key{event.Rune('a')}, "append", to(ModeInsert, (*Buffer).MoveRight)},
	{[]event.Key{event.Rune('I')}, "insert at start", to(ModeInsert, (*Buffer).MoveStart)},
	{[]event.Key{event.Rune('A')}, "append at end", to(ModeInsert, (*Buffer).MoveEnd)},
	{[]event.Key{event.Rune(':')}, "command line", to(ModeCommand, nil)},
	{[]event.Key{event.Rune('h'), keyLeft, keyBS}, "cursor left", moveLeft},
	{[]event.Key{event.Rune('l'), keyRight}, "cursor right", moveRight},
	{[]event.Key{event.Rune('0'), keyHome}, "line start", moveStart},
	{[]event.Key{event.Rune('$'), keyEnd}, "line end", moveEnd},
	{[]event.Key{event.Rune('j'), keyDown, keyTab}, "next field", emit(focusNext)},
	{[]event.Key{event.Rune('k'), keyUp, keyBackTab}, "previous field", emit(focusPrev)},
	{[]event.Key{event.Rune('x'), keyDel}, "delete char", deleteChar},
	{[]event.Key{event.Rune('d')}, "dd clears the field", func(e *Editor, _ *Buffer) Action {
		e.pending = true
		return none
	}},
	{[]event.Key{keyEnter}, "submit", emit(submit)},
}

var insertRules = []rule{
	{[]event.Key{keyEsc}, "normal mode", to(ModeNormal, nil)},
	{[]event.Key{keyEnter}, "submit", func(e *Editor, _ *Buffer) Action {
		e.mode = ModeNormal
		return submit
	}},
	{[]event.Key{event.Ctrl('u')}, "clear field", clearLine},
	{[]event.Key{event.Ctrl('w')}, "delete word", deleteWord},
	{[]event.Key{event.Ctrl('a'), keyHome}, "line start", moveStart},
	{[]event.Key{event.Ctrl('e'), keyEnd}, "line end", moveEnd},
	{[]event.Key{keyBS}, "delete backward", deleteBack},
	{[]event.Key{keyDel}, "delete char", deleteChar},
	{[]event.Key{keyLeft}, "cursor left", moveLeft},
	{[]event.Key{keyRight}, "cursor right", moveRight},
	{[]event.Key{keyDown, keyTab}, "next field", emit(focusNext)},
	{[]event.Key{keyUp, keyBackTab}, "previous field", emit(focusPrev)},
}

// Command mode rules receive the command line, not the focused field.
var commandRules = []rule{
	{[]event.Key{keyEsc}, "cancel", func(e *Editor, b *Buffer) Action {
		b.Clear()
		e.mode = ModeNormal
		return none
	}},
	{[]event.Key{keyEnter}, "run command", func(e *Editor, b *Buffer) Action {
		cmd := ParseCommand(b.String())
		b.Clear()
		e.mode = ModeNormal
		return Action{Kind: ActExecute, Command: cmd}
	}},
	{[]event.Key{keyBS}, "delete backward", func(e *Editor, b *Buffer) Action {
		if b.Empty() {
			e.mode = ModeNormal
			return none
		}
		b.DeleteBackward()
		return none
	}},
	{[]event.Key{event.Ctrl('u')}, "clear", clearLine},
	{[]event.Key{event.Ctrl('w')}, "delete word", deleteWord},
	{[]event.Key{event.Ctrl('a'), keyHome}, "line start", moveStart},
	{[]event.Key{event.Ctrl('e'), keyEnd}, "line end", moveEnd},
	{[]event.Key{keyDel}, "delete char", deleteChar},
	{[]event.Key{keyLeft}, "cursor left", moveLeft},
	{[]event.Key{keyRight}, "cursor right", moveRight},
}

var rules = map[Mode][]rule{
	ModeNormal:  normalRules,
	ModeInsert:  insertRules,
	ModeCommand: commandRules,
}

var lookup = func() map[Mode]map[binding]rule {
	out := make(map[Mode]map[binding]rule, len(rules))
	for mode, rs := range rules {
		m := make(map[binding]rule)
		for _, r := range rs {
			for _, k := range r.keys {
				m[bindingOf(k)] = r
			}
		}
		out[mode] = m
	}
	return out
}()

// Binding describes one row of the key table, for help screens.
type Binding struct {
	Keys string
	Help string
}

// Bindings lists the keys handled in mode, in table order.
func Bindings(mode Mode) []Binding {
	out := make([]Binding, 0, len(rules[mode]))
	for _, r := range rules[mode] {
		names := make([]string, len(r.keys))
		for i, k := range r.keys {
			names[i] = k.String()
		}
		out = append(out, Binding{Keys: strings.Join(names, "/"), Help: r.help})
	}
	return out
}
