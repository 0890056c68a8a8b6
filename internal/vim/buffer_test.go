package vim

import (
	"math/rand"
	"testing"
)

func bufferOf(s string, cursor int) *Buffer {
	b := NewBuffer()
	b.Set(s)
	b.SetCursor(cursor)
	return b
}

func TestBufferInsert(t *testing.T) {
	tests := []struct {
		name       string
		start      string
		cursor     int
		after      bool
		r          rune
		want       string
		wantCursor int
	}{
		{"after at end", "ab", 2, true, 'c', "abc", 3},
		{"after in middle", "ac", 1, true, 'b', "abc", 2},
		{"before in middle", "ac", 1, false, 'b', "abc", 1},
		{"before at start", "bc", 0, false, 'a', "abc", 0},
		{"multibyte", "ab", 1, true, 'é', "aéb", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bufferOf(tt.start, tt.cursor)
			if tt.after {
				b.InsertAfterCursor(tt.r)
			} else {
				b.InsertBeforeCursor(tt.r)
			}
			if b.String() != tt.want {
				t.Errorf("String() = %q, want %q", b.String(), tt.want)
			}
			if b.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", b.Cursor(), tt.wantCursor)
			}
		})
	}
}

func TestBufferRejectsLineBreaks(t *testing.T) {
	b := NewBuffer()
	for _, r := range []rune{'\n', '\r'} {
		if b.InsertAfterCursor(r) {
			t.Errorf("InsertAfterCursor(%q) = true, want false", r)
		}
	}
	b.Set("a\nb")
	if b.String() != "ab" {
		t.Errorf("Set() kept a line break: %q", b.String())
	}
}

func TestBufferDelete(t *testing.T) {
	tests := []struct {
		name       string
		start      string
		cursor     int
		op         func(*Buffer) bool
		want       string
		wantCursor int
		wantOK     bool
	}{
		{"at cursor", "abc", 1, (*Buffer).DeleteAtCursor, "ac", 1, true},
		{"at cursor last char", "abc", 2, (*Buffer).DeleteAtCursor, "ab", 2, true},
		{"at cursor end is noop", "abc", 3, (*Buffer).DeleteAtCursor, "abc", 3, false},
		{"backward", "abc", 2, (*Buffer).DeleteBackward, "ac", 1, true},
		{"backward at start is noop", "abc", 0, (*Buffer).DeleteBackward, "abc", 0, false},
		{"word", "foo bar", 7, (*Buffer).DeleteWordBackward, "foo", 3, true},
		{"word after trailing spaces", "foo bar  ", 9, (*Buffer).DeleteWordBackward, "foo bar", 7, true},
		{"word mid line", "foo bar baz", 7, (*Buffer).DeleteWordBackward, "foo baz", 3, true},
		{"word after leading spaces", "  foo", 5, (*Buffer).DeleteWordBackward, "", 0, true},
		{"word only spaces", "   ", 3, (*Buffer).DeleteWordBackward, "", 0, true},
		{"word single", "foo", 3, (*Buffer).DeleteWordBackward, "", 0, true},
		{"word at start is noop", "foo", 0, (*Buffer).DeleteWordBackward, "foo", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bufferOf(tt.start, tt.cursor)
			ok := tt.op(b)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if b.String() != tt.want {
				t.Errorf("String() = %q, want %q", b.String(), tt.want)
			}
			if b.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", b.Cursor(), tt.wantCursor)
			}
		})
	}
}

func TestBufferMovesAreClamped(t *testing.T) {
	b := bufferOf("abc", 0)
	b.MoveLeft()
	if b.Cursor() != 0 {
		t.Errorf("MoveLeft at 0: cursor = %d", b.Cursor())
	}
	b.MoveEnd()
	b.MoveRight()
	if b.Cursor() != 3 {
		t.Errorf("MoveRight at end: cursor = %d", b.Cursor())
	}
	b.SetCursor(-5)
	if b.Cursor() != 0 {
		t.Errorf("SetCursor(-5): cursor = %d", b.Cursor())
	}
	b.SetCursor(99)
	if b.Cursor() != 3 {
		t.Errorf("SetCursor(99): cursor = %d", b.Cursor())
	}
}

func TestBufferClearWipes(t *testing.T) {
	b := bufferOf("hunter2", 3)
	backing := b.runes[:cap(b.runes)]
	b.Clear()
	if b.Len() != 0 || b.Cursor() != 0 {
		t.Fatalf("Clear() left len=%d cursor=%d", b.Len(), b.Cursor())
	}
	for i, r := range backing {
		if r != 0 {
			t.Fatalf("backing[%d] = %q after Clear", i, r)
		}
	}
}

func TestBufferTakeBytes(t *testing.T) {
	b := NewSecretBuffer()
	b.Set("pä55")
	backing := b.runes[:cap(b.runes)]

	got := b.TakeBytes()
	if string(got) != "pä55" {
		t.Errorf("TakeBytes() = %q", got)
	}
	if !b.Empty() {
		t.Error("buffer not empty after TakeBytes")
	}
	for i, r := range backing {
		if r != 0 {
			t.Fatalf("backing[%d] = %q after TakeBytes", i, r)
		}
	}
}

func TestBufferDisplayMasked(t *testing.T) {
	b := NewSecretBuffer()
	b.Set("abc")
	b.SetCursor(2)
	if got := b.Display(); got != "•••" {
		t.Errorf("Display() = %q", got)
	}
	if got := b.BeforeCursor(); got != "••" {
		t.Errorf("BeforeCursor() = %q", got)
	}
}

func TestBufferRandomOpsKeepCursorInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := NewBuffer()
	ops := []func(){
		func() { b.InsertAfterCursor(rune('a' + rng.Intn(26))) },
		func() { b.InsertBeforeCursor(' ') },
		func() { b.DeleteAtCursor() },
		func() { b.DeleteBackward() },
		func() { b.DeleteWordBackward() },
		func() { b.MoveLeft() },
		func() { b.MoveRight() },
		func() { b.SetCursor(rng.Intn(40) - 20) },
		func() {
			if rng.Intn(20) == 0 {
				b.Clear()
			}
		},
	}
	for i := 0; i < 5000; i++ {
		ops[rng.Intn(len(ops))]()
		if b.Cursor() < 0 || b.Cursor() > b.Len() {
			t.Fatalf("step %d: cursor %d out of [0, %d]", i, b.Cursor(), b.Len())
		}
	}
}
