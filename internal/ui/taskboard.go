package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TaskStatus is the display state of one task row.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskDone
	TaskFailed
	TaskSkipped
)

// TaskRow is one line of a TaskBoard.
type TaskRow struct {
	ID      string
	Label   string
	Command string
	Status  TaskStatus
	// Message is the latest progress line, or the failure reason.
	Message string
}

// TaskBoard shows a batch of tasks with a progress bar.
type TaskBoard struct {
	Rows  []TaskRow
	index map[string]int
	bar   progress.Model
}

// NewTaskBoard returns an empty board.
func NewTaskBoard() *TaskBoard {
	return &TaskBoard{
		index: make(map[string]int),
		bar: progress.New(
			progress.WithSolidFill(string(PrimaryColor)),
			progress.WithoutPercentage(),
			progress.WithWidth(40),
		),
	}
}

// Add appends a pending row.
func (b *TaskBoard) Add(id, label, command string) {
	b.index[id] = len(b.Rows)
	b.Rows = append(b.Rows, TaskRow{ID: id, Label: label, Command: command})
}

// Row returns the row for id.
func (b *TaskBoard) Row(id string) (TaskRow, bool) {
	i, ok := b.index[id]
	if !ok {
		return TaskRow{}, false
	}
	return b.Rows[i], true
}

// Update sets the status and message of id. Unknown ids are ignored.
func (b *TaskBoard) Update(id string, status TaskStatus, message string) {
	i, ok := b.index[id]
	if !ok {
		return
	}
	b.Rows[i].Status = status
	b.Rows[i].Message = message
}

// Count returns the number of rows in status.
func (b *TaskBoard) Count(status TaskStatus) int {
	n := 0
	for _, r := range b.Rows {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Finished returns the number of rows that reached a terminal status.
func (b *TaskBoard) Finished() int {
	return b.Count(TaskDone) + b.Count(TaskFailed) + b.Count(TaskSkipped)
}

// Percent is the finished fraction of the batch.
func (b *TaskBoard) Percent() float64 {
	if len(b.Rows) == 0 {
		return 0
	}
	return float64(b.Finished()) / float64(len(b.Rows))
}

// Render draws the bar and one line per task. frame is the busy
// indicator shown next to running tasks.
func (b *TaskBoard) Render(width int, frame string) string {
	barWidth := min(max(width-16, 10), 50)
	b.bar.Width = barWidth

	lines := []string{
		fmt.Sprintf("%s  %3.0f%%  [%d/%d]", b.bar.ViewAs(b.Percent()), b.Percent()*100, b.Finished(), len(b.Rows)),
		"",
	}
	for _, r := range b.Rows {
		lines = append(lines, b.renderRow(r, width, frame))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (b *TaskBoard) renderRow(r TaskRow, width int, frame string) string {
	var marker string
	var style lipgloss.Style

	switch r.Status {
	case TaskDone:
		marker, style = MarkerDone, SuccessTextStyle
	case TaskRunning:
		marker, style = frame, WarningTextStyle
	case TaskFailed:
		marker, style = MarkerFailed, ErrorTextStyle
	case TaskSkipped:
		marker, style = MarkerSkipped, MutedStyle
	default:
		marker, style = MarkerPending, MutedStyle
	}
	if marker == "" {
		marker = MarkerRunning
	}

	var sb strings.Builder
	sb.WriteString(style.Render(marker))
	sb.WriteString(" ")
	col := max(width/2, 12)
	label := runewidth.Truncate(r.Label, col, "…")
	sb.WriteString(style.Render(runewidth.FillRight(label, col)))

	if r.Message != "" {
		room := width - col - 6
		if room > 8 {
			sb.WriteString("  ")
			sb.WriteString(NoteStyle.Render(runewidth.Truncate(r.Message, room, "…")))
		}
	}
	return sb.String()
}
