package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Detail is one key/value line of a result box.
type Detail struct {
	Key   string
	Value string
}

// Result is a boxed outcome printed by the command-line tools.
type Result struct {
	Type    ResultType
	Title   string
	Details []Detail
	Error   error
	// Hints are printed under the error of a failure.
	Hints []string
	Width int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Detail) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: MinTerminalWidth}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, hints ...string) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err, Hints: hints, Width: MinTerminalWidth}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Detail) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: MinTerminalWidth}
}

// SetWidth sets the rendering width
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := min(ClampWidth(r.Width), MaxContentWidth)

	var color lipgloss.Color
	var heading string
	switch r.Type {
	case ResultFailure:
		color, heading = ErrorColor, MarkerFailed+"  FAILED"
	case ResultWarning:
		color, heading = WarningColor, "⚠  WARNING"
	default:
		color, heading = SuccessColor, MarkerDone+"  OK"
	}

	title := lipgloss.NewStyle().Foreground(color).Bold(true).
		Render(fmt.Sprintf("%s  ─  %s", heading, r.Title))
	lines := []string{"", title, ""}

	keyStyle := MutedStyle.Width(r.keyWidth())
	for _, d := range r.Details {
		lines = append(lines, keyStyle.Render(d.Key+":")+" "+TextStyle.Render(d.Value))
	}

	if r.Error != nil {
		lines = append(lines, ErrorTextStyle.UnsetBold().Render("Error: "+r.Error.Error()))
	}
	if len(r.Hints) > 0 {
		lines = append(lines, "")
		for _, h := range r.Hints {
			lines = append(lines, MutedStyle.Render("• "+h))
		}
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

func (r *Result) keyWidth() int {
	w := 0
	for _, d := range r.Details {
		w = max(w, lipgloss.Width(d.Key)+1)
	}
	return w
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
