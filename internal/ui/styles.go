package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette shared by the greeter and the wizard
var (
	PrimaryColor = lipgloss.Color("#5FAFD7") // Cyan - titles, borders, focus
	SuccessColor = lipgloss.Color("#43BF6D") // Green - done, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - failures
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings, running
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#E4E4E4") // Off-white - main content
	BarColor     = lipgloss.Color("#262626") // Status bar background
)

// Layout constants
const (
	MinTerminalWidth  = 60
	MinTerminalHeight = 16
	MaxContentWidth   = 100
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(12)

	FocusedLabelStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				Width(12)

	CursorStyle = lipgloss.NewStyle().
			Reverse(true)

	ItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(TextColor)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	MatchStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Underline(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningTextStyle = lipgloss.NewStyle().
				Foreground(WarningColor)

	SuccessTextStyle = lipgloss.NewStyle().
				Foreground(SuccessColor)

	NoteStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)
)

// Status markers
const (
	MarkerDone    = "✓"
	MarkerRunning = "●"
	MarkerPending = "·"
	MarkerFailed  = "✗"
	MarkerSkipped = "⊘"
	MarkerFocus   = "›"
)

// spinnerFrames drives the busy indicator off the control loop tick
// instead of a dedicated spinner timer.
var spinnerFrames = spinner.MiniDot.Frames

// SpinnerFrame returns the busy indicator for the nth tick.
func SpinnerFrame(n int) string {
	if n < 0 {
		n = -n
	}
	return spinnerFrames[n%len(spinnerFrames)]
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// GetTerminalSize returns the terminal size of f, clamped to the supported
// minimum.
func GetTerminalSize(f *os.File) (int, int) {
	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return MinTerminalWidth, MinTerminalHeight
	}
	return ClampWidth(width), max(height, MinTerminalHeight)
}

// ClampWidth bounds a terminal width to the supported range.
func ClampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// ContentWidth returns the width used for centered content on a terminal
// of the given width.
func ContentWidth(width int) int {
	return min(ClampWidth(width)-4, MaxContentWidth)
}

// RenderDivider draws a horizontal rule.
func RenderDivider(width int) string {
	if width < 1 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat("─", width))
}
