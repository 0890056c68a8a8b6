package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

var (
	modeStyles = map[vim.Mode]lipgloss.Style{
		vim.ModeNormal:  lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#1C1C1C")).Background(PrimaryColor),
		vim.ModeInsert:  lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#1C1C1C")).Background(SuccessColor),
		vim.ModeCommand: lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#1C1C1C")).Background(WarningColor),
	}

	barStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(BarColor)
)

// StatusBar is the bottom line: mode badge, then the command line while
// typing one, otherwise the transient message, with a hint on the right.
type StatusBar struct {
	Mode        vim.Mode
	Pending     bool
	CommandLine *vim.Buffer
	Message     string
	IsError     bool
	Hint        string
}

// Render draws the bar across width cells.
func (s StatusBar) Render(width int) string {
	mode := s.Mode.String()
	if s.Pending {
		mode += " d"
	}
	badge := modeStyles[s.Mode].Render(mode)

	right := MutedStyle.Render(s.Hint)
	room := max(width-lipgloss.Width(badge)-lipgloss.Width(right)-2, 1)

	var middle string
	switch {
	case s.Mode == vim.ModeCommand && s.CommandLine != nil:
		middle = CommandLine(s.CommandLine, room)
	case s.Message != "" && s.IsError:
		middle = ErrorTextStyle.Render(runewidth.Truncate(s.Message, room, "…"))
	case s.Message != "":
		middle = TextStyle.Render(runewidth.Truncate(s.Message, room, "…"))
	}

	gap := max(room-lipgloss.Width(middle), 0)
	return barStyle.Width(width).Render(badge + " " + middle + spaces(gap) + " " + right)
}
