package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DialogKind selects the accent color of a dialog.
type DialogKind int

const (
	DialogInfo DialogKind = iota
	DialogWarning
	DialogError
)

// Dialog is a centered modal box drawn over a screen body.
type Dialog struct {
	Kind  DialogKind
	Title string
	Lines []string
	// Hint is the muted last line, usually the keys that close the dialog.
	Hint string
}

// Render draws the dialog no wider than width.
func (d Dialog) Render(width int) string {
	color := PrimaryColor
	switch d.Kind {
	case DialogWarning:
		color = WarningColor
	case DialogError:
		color = ErrorColor
	}

	inner := max(min(width-8, 64), 20)
	body := []string{
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(d.Title),
		"",
	}
	text := lipgloss.NewStyle().Foreground(TextColor).Width(inner)
	for _, l := range d.Lines {
		body = append(body, text.Render(l))
	}
	if d.Hint != "" {
		body = append(body, "", MutedStyle.Render(d.Hint))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2).
		Render(strings.Join(body, "\n"))
}

// Menu renders a vertical choice list for a dialog. selected is
// highlighted.
func Menu(options []string, selected int) []string {
	out := make([]string, len(options))
	for i, o := range options {
		if i == selected {
			out[i] = SelectedItemStyle.Render(MarkerFocus + " " + o)
		} else {
			out[i] = ItemStyle.Render(o)
		}
	}
	return out
}
