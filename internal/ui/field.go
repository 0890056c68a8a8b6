package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

// Field is a labelled single-line input bound to a buffer.
type Field struct {
	Label   string
	Buffer  *vim.Buffer
	Focused bool
	// Placeholder is shown in an empty, unfocused field.
	Placeholder string
}

// Render draws the field with its value clipped to width cells. When
// focused, the cursor cell is highlighted and kept in view.
func (f Field) Render(width int) string {
	label := LabelStyle.Render(f.Label)
	if f.Focused {
		label = FocusedLabelStyle.Render(f.Label)
	}

	avail := max(width-LabelStyle.GetWidth()-2, 4)
	if f.Buffer == nil || (f.Buffer.Empty() && !f.Focused) {
		return label + "  " + MutedStyle.Render(runewidth.Truncate(f.Placeholder, avail, "…"))
	}

	if !f.Focused {
		return label + "  " + TextStyle.Render(runewidth.Truncate(f.Buffer.Display(), avail, "…"))
	}

	before, at, after := SplitAtCursor(f.Buffer)
	before, after = VisibleWindow(before, at, after, avail)
	return label + "  " + TextStyle.Render(before) + CursorStyle.Render(at) + TextStyle.Render(after)
}

// SplitAtCursor splits the displayed text of b around its cursor. at is
// the character under the cursor, or a space at the end of the line.
func SplitAtCursor(b *vim.Buffer) (before, at, after string) {
	display := []rune(b.Display())
	pos := b.Cursor()
	if pos >= len(display) {
		return string(display), " ", ""
	}
	return string(display[:pos]), string(display[pos]), string(display[pos+1:])
}

// VisibleWindow trims before and after so that before+at+after fits in
// width cells with the cursor cell always visible.
func VisibleWindow(before, at, after string, width int) (string, string) {
	room := width - runewidth.StringWidth(at)
	if room <= 0 {
		return "", ""
	}
	if w := runewidth.StringWidth(before); w > room {
		before = trimLeft(before, w-room)
	}
	rest := room - runewidth.StringWidth(before)
	return before, runewidth.Truncate(after, rest, "")
}

// trimLeft drops leading runes until at least cells columns are removed.
func trimLeft(s string, cells int) string {
	var dropped int
	for i, r := range s {
		if dropped >= cells {
			return s[i:]
		}
		dropped += runewidth.RuneWidth(r)
	}
	return ""
}

// CommandLine renders the ":" prompt with its cursor.
func CommandLine(b *vim.Buffer, width int) string {
	before, at, after := SplitAtCursor(b)
	before, after = VisibleWindow(before, at, after, max(width-1, 1))
	var sb strings.Builder
	sb.WriteString(":")
	sb.WriteString(before)
	sb.WriteString(CursorStyle.Render(at))
	sb.WriteString(after)
	return sb.String()
}
