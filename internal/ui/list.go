package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

// List is a selectable list narrowed by a fuzzy filter. Indices returned
// by Selected refer to the unfiltered items.
type List struct {
	items    []string
	filter   string
	matches  []fuzzy.Match
	selected int
}

// NewList returns a list over items with the first one selected.
func NewList(items []string) *List {
	l := &List{items: items}
	l.SetFilter("")
	return l
}

// Items returns the unfiltered items.
func (l *List) Items() []string { return l.items }

// Filter returns the current filter text.
func (l *List) Filter() string { return l.filter }

// SetFilter narrows the list to items matching q, best match first. The
// selection moves to the top match unless the filter is unchanged.
func (l *List) SetFilter(q string) {
	if q == l.filter && l.matches != nil {
		return
	}
	l.filter = q
	l.selected = 0

	if strings.TrimSpace(q) == "" {
		l.matches = make([]fuzzy.Match, len(l.items))
		for i, it := range l.items {
			l.matches[i] = fuzzy.Match{Str: it, Index: i}
		}
		return
	}
	l.matches = fuzzy.Find(q, l.items)
	if l.matches == nil {
		l.matches = []fuzzy.Match{}
	}
}

// Len returns the number of visible items.
func (l *List) Len() int { return len(l.matches) }

// Next moves the selection down, wrapping at the end.
func (l *List) Next() {
	if len(l.matches) > 0 {
		l.selected = (l.selected + 1) % len(l.matches)
	}
}

// Prev moves the selection up, wrapping at the start.
func (l *List) Prev() {
	if len(l.matches) > 0 {
		l.selected = (l.selected - 1 + len(l.matches)) % len(l.matches)
	}
}

// Selected returns the index of the selected item in the unfiltered list.
func (l *List) Selected() (int, bool) {
	if l.selected >= len(l.matches) {
		return -1, false
	}
	return l.matches[l.selected].Index, true
}

// SelectedItem returns the selected item text.
func (l *List) SelectedItem() (string, bool) {
	i, ok := l.Selected()
	if !ok {
		return "", false
	}
	return l.items[i], true
}

// Select moves the selection to the unfiltered index i if it is visible.
func (l *List) Select(i int) bool {
	for pos, m := range l.matches {
		if m.Index == i {
			l.selected = pos
			return true
		}
	}
	return false
}

// Render draws up to height rows around the selection, highlighting the
// characters matched by the filter.
func (l *List) Render(width, height int, focused bool) string {
	if len(l.matches) == 0 {
		return MutedStyle.Render("  no matches")
	}
	height = max(height, 1)

	start := 0
	if l.selected >= height {
		start = l.selected - height + 1
	}
	end := min(start+height, len(l.matches))

	rows := make([]string, 0, end-start)
	for pos := start; pos < end; pos++ {
		m := l.matches[pos]
		text := runewidth.Truncate(m.Str, max(width-2, 1), "…")
		if pos == l.selected {
			marker := " "
			if focused {
				marker = MarkerFocus
			}
			rows = append(rows, SelectedItemStyle.Render(marker+" "+text))
			continue
		}
		rows = append(rows, ItemStyle.Render(highlight(text, m.MatchedIndexes)))
	}
	if end < len(l.matches) {
		rows = append(rows, MutedStyle.Render("  …"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// highlight styles the runes of s whose byte offsets appear in idx.
func highlight(s string, idx []int) string {
	if len(idx) == 0 {
		return s
	}
	hit := make(map[int]bool, len(idx))
	for _, i := range idx {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(MatchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
