package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Header is the top line of a screen: a title on the left and a short
// right-aligned note such as the clock.
type Header struct {
	Title    string
	Subtitle string
	Right    string
}

// Render lays the header out across width cells.
func (h Header) Render(width int) string {
	left := TitleStyle.Render(h.Title)
	if h.Subtitle != "" {
		left += "  " + SubtitleStyle.Render(h.Subtitle)
	}
	right := MutedStyle.Render(h.Right)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		// Drop the subtitle before anything else.
		left = TitleStyle.Render(runewidth.Truncate(h.Title, max(width-lipgloss.Width(right)-3, 1), "…"))
		gap = max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(PrimaryColor).
		Width(width).
		Padding(0, 1).
		Render(left + spaces(gap) + right)
}

// Screen is a full-terminal frame: header, body and footer lines.
type Screen struct {
	Header Header
	Body   string
	Footer string
}

// Render places the frame in a width x height terminal. The body is
// centered horizontally and the footer pinned to the last lines.
func (s Screen) Render(width, height int) string {
	width = ClampWidth(width)
	height = max(height, MinTerminalHeight)

	header := s.Header.Render(width)
	footer := lipgloss.NewStyle().Width(width).Render(s.Footer)

	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, s.Body)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return runewidth.FillRight("", n)
}
