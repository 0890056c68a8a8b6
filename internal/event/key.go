package event

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Code identifies a non-printable key. Printable input uses CodeRune.
type Code int

const (
	CodeNone Code = iota
	CodeRune
	CodeEnter
	CodeEscape
	CodeBackspace
	CodeDelete
	CodeTab
	CodeBackTab
	CodeLeft
	CodeRight
	CodeUp
	CodeDown
	CodeHome
	CodeEnd
	CodePageUp
	CodePageDown
	CodeF1
	CodeF2
	CodeF3
	CodeF4
	CodeF5
	CodeF6
	CodeF7
	CodeF8
	CodeF9
	CodeF10
	CodeF11
	CodeF12
)

var codeNames = map[Code]string{
	CodeNone:      "none",
	CodeRune:      "rune",
	CodeEnter:     "enter",
	CodeEscape:    "esc",
	CodeBackspace: "backspace",
	CodeDelete:    "delete",
	CodeTab:       "tab",
	CodeBackTab:   "shift+tab",
	CodeLeft:      "left",
	CodeRight:     "right",
	CodeUp:        "up",
	CodeDown:      "down",
	CodeHome:      "home",
	CodeEnd:       "end",
	CodePageUp:    "pgup",
	CodePageDown:  "pgdown",
}

func (c Code) String() string {
	if c >= CodeF1 && c <= CodeF12 {
		return fmt.Sprintf("f%d", int(c-CodeF1)+1)
	}
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Mod is a bit set of modifier keys.
type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModAlt
)

// Key is a single normalized key press.
type Key struct {
	Code Code
	Rune rune
	Mods Mod
}

// Rune returns a printable key.
func Rune(r rune) Key { return Key{Code: CodeRune, Rune: r} }

// Ctrl returns a control chord such as Ctrl+U.
func Ctrl(r rune) Key { return Key{Code: CodeRune, Rune: r, Mods: ModCtrl} }

// Special returns a key without a rune.
func Special(c Code) Key { return Key{Code: c} }

// Printable reports whether the key inserts text.
func (k Key) Printable() bool {
	return k.Code == CodeRune && k.Mods == 0 && k.Rune >= ' ' && k.Rune != 0x7f
}

// Is reports whether k is the plain rune r.
func (k Key) Is(r rune) bool {
	return k.Code == CodeRune && k.Mods == 0 && k.Rune == r
}

func (k Key) String() string {
	var b strings.Builder
	if k.Mods&ModCtrl != 0 {
		b.WriteString("ctrl+")
	}
	if k.Mods&ModAlt != 0 {
		b.WriteString("alt+")
	}
	if k.Code == CodeRune {
		if k.Rune == ' ' {
			b.WriteString("space")
		} else {
			b.WriteRune(k.Rune)
		}
		return b.String()
	}
	b.WriteString(k.Code.String())
	return b.String()
}

var teaCodes = map[tea.KeyType]Code{
	tea.KeyEnter:     CodeEnter,
	tea.KeyEsc:       CodeEscape,
	tea.KeyBackspace: CodeBackspace,
	tea.KeyCtrlH:     CodeBackspace,
	tea.KeyDelete:    CodeDelete,
	tea.KeyTab:       CodeTab,
	tea.KeyShiftTab:  CodeBackTab,
	tea.KeyLeft:      CodeLeft,
	tea.KeyRight:     CodeRight,
	tea.KeyUp:        CodeUp,
	tea.KeyDown:      CodeDown,
	tea.KeyHome:      CodeHome,
	tea.KeyEnd:       CodeEnd,
	tea.KeyPgUp:      CodePageUp,
	tea.KeyPgDown:    CodePageDown,
	tea.KeyF1:        CodeF1,
	tea.KeyF2:        CodeF2,
	tea.KeyF3:        CodeF3,
	tea.KeyF4:        CodeF4,
	tea.KeyF5:        CodeF5,
	tea.KeyF6:        CodeF6,
	tea.KeyF7:        CodeF7,
	tea.KeyF8:        CodeF8,
	tea.KeyF9:        CodeF9,
	tea.KeyF10:       CodeF10,
	tea.KeyF11:       CodeF11,
	tea.KeyF12:       CodeF12,
}

// FromTea translates a Bubble Tea key message. Pasted or buffered input can
// arrive as several runes in one message; each becomes its own Key so no
// keystroke is lost. Unknown keys translate to nothing.
func FromTea(msg tea.KeyMsg) []Key {
	var mods Mod
	if msg.Alt {
		mods |= ModAlt
	}

	switch msg.Type {
	case tea.KeyRunes:
		keys := make([]Key, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if r == '\n' || r == '\r' {
				keys = append(keys, Key{Code: CodeEnter, Mods: mods})
				continue
			}
			keys = append(keys, Key{Code: CodeRune, Rune: r, Mods: mods})
		}
		return keys
	case tea.KeySpace:
		return []Key{{Code: CodeRune, Rune: ' ', Mods: mods}}
	}

	if code, ok := teaCodes[msg.Type]; ok {
		return []Key{{Code: code, Mods: mods}}
	}

	// Remaining C0 control codes are Ctrl+letter chords.
	if msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ {
		r := rune('a' + int(msg.Type-tea.KeyCtrlA))
		return []Key{{Code: CodeRune, Rune: r, Mods: mods | ModCtrl}}
	}
	return nil
}
