package vim

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaskRune replaces every character of a masked buffer in Display.
const MaskRune = '•'

// Buffer is an editable single line of text with a cursor. The cursor is a
// rune offset in [0, Len()].
type Buffer struct {
	runes  []rune
	cursor int
	masked bool
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewSecretBuffer returns an empty buffer whose Display is masked.
func NewSecretBuffer() *Buffer {
	return &Buffer{masked: true}
}

// Masked reports whether Display hides the contents.
func (b *Buffer) Masked() bool { return b.masked }

// SetMasked toggles display masking.
func (b *Buffer) SetMasked(m bool) { b.masked = m }

// Len returns the number of runes held.
func (b *Buffer) Len() int { return len(b.runes) }

// Cursor returns the cursor offset.
func (b *Buffer) Cursor() int { return b.cursor }

// Empty reports whether the buffer holds no text.
func (b *Buffer) Empty() bool { return len(b.runes) == 0 }

// String returns the contents. Do not call it on secret buffers; use
// TakeBytes instead.
func (b *Buffer) String() string { return string(b.runes) }

// Display returns the text to draw: the contents, or one MaskRune per
// character when the buffer is masked.
func (b *Buffer) Display() string {
	if b.masked {
		return strings.Repeat(string(MaskRune), len(b.runes))
	}
	return string(b.runes)
}

// BeforeCursor returns the displayed text left of the cursor.
func (b *Buffer) BeforeCursor() string {
	if b.masked {
		return strings.Repeat(string(MaskRune), b.cursor)
	}
	return string(b.runes[:b.cursor])
}

// insertable rejects line breaks; the buffer is strictly single-line.
func insertable(r rune) bool {
	return r != '\n' && r != '\r' && r != utf8.RuneError && unicode.IsPrint(r)
}

// InsertAfterCursor inserts r at the cursor and advances past it. This is
// ordinary typing.
func (b *Buffer) InsertAfterCursor(r rune) bool {
	if !b.insertAt(r) {
		return false
	}
	b.cursor++
	return true
}

// InsertBeforeCursor inserts r at the cursor and leaves the cursor on the
// inserted character. No key binds it; typing uses InsertAfterCursor.
func (b *Buffer) InsertBeforeCursor(r rune) bool {
	return b.insertAt(r)
}

func (b *Buffer) insertAt(r rune) bool {
	if !insertable(r) {
		return false
	}
	b.runes = append(b.runes, 0)
	copy(b.runes[b.cursor+1:], b.runes[b.cursor:])
	b.runes[b.cursor] = r
	return true
}

// DeleteAtCursor removes the character under the cursor. At the end of the
// buffer it does nothing.
func (b *Buffer) DeleteAtCursor() bool {
	if b.cursor >= len(b.runes) {
		return false
	}
	b.removeRange(b.cursor, b.cursor+1)
	b.clamp()
	return true
}

// DeleteBackward removes the character left of the cursor.
func (b *Buffer) DeleteBackward() bool {
	if b.cursor == 0 {
		return false
	}
	b.removeRange(b.cursor-1, b.cursor)
	b.cursor--
	return true
}

// DeleteWordBackward removes the run of non-space characters left of the
// cursor, then the spaces immediately before that run. With spaces directly
// left of the cursor the run is empty and only those spaces go.
func (b *Buffer) DeleteWordBackward() bool {
	if b.cursor == 0 {
		return false
	}
	start := b.cursor
	for start > 0 && !unicode.IsSpace(b.runes[start-1]) {
		start--
	}
	for start > 0 && unicode.IsSpace(b.runes[start-1]) {
		start--
	}
	b.removeRange(start, b.cursor)
	b.cursor = start
	return true
}

// removeRange drops runes [from, to) and zeroes the vacated tail.
func (b *Buffer) removeRange(from, to int) {
	n := copy(b.runes[from:], b.runes[to:])
	tail := b.runes[from+n:]
	for i := range tail {
		tail[i] = 0
	}
	b.runes = b.runes[:from+n]
}

// Clear overwrites and empties the buffer.
func (b *Buffer) Clear() {
	for i := range b.runes {
		b.runes[i] = 0
	}
	b.runes = b.runes[:0]
	b.cursor = 0
}

// Set replaces the contents and moves the cursor to the end. Characters that
// cannot be inserted are skipped.
func (b *Buffer) Set(s string) {
	b.Clear()
	for _, r := range s {
		if insertable(r) {
			b.runes = append(b.runes, r)
		}
	}
	b.cursor = len(b.runes)
}

// MoveLeft moves the cursor one character left, stopping at 0.
func (b *Buffer) MoveLeft() {
	if b.cursor > 0 {
		b.cursor--
	}
}

// MoveRight moves the cursor one character right, stopping at Len().
func (b *Buffer) MoveRight() {
	if b.cursor < len(b.runes) {
		b.cursor++
	}
}

// MoveStart puts the cursor at 0.
func (b *Buffer) MoveStart() { b.cursor = 0 }

// MoveEnd puts the cursor at Len().
func (b *Buffer) MoveEnd() { b.cursor = len(b.runes) }

// SetCursor moves the cursor to pos, clamped into [0, Len()].
func (b *Buffer) SetCursor(pos int) {
	b.cursor = pos
	b.clamp()
}

func (b *Buffer) clamp() {
	if b.cursor < 0 {
		b.cursor = 0
	}
	if b.cursor > len(b.runes) {
		b.cursor = len(b.runes)
	}
}

// TakeBytes returns the contents as UTF-8 and clears the buffer. The caller
// owns the returned slice and is responsible for wiping it.
func (b *Buffer) TakeBytes() []byte {
	n := 0
	for _, r := range b.runes {
		n += utf8.RuneLen(r)
	}
	out := make([]byte, 0, n)
	for _, r := range b.runes {
		out = utf8.AppendRune(out, r)
	}
	b.Clear()
	return out
}
