package onboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/ui"
	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

const sidebarWidth = 24

var (
	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Padding(1, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(ui.MutedColor)

	contentStyle = lipgloss.NewStyle().Padding(1, 2)
)

// View renders the current phase.
func (m *Model) View() string {
	width := ui.ClampWidth(m.width)

	var body string
	switch {
	case m.showHelp:
		body = m.viewHelp(width)
	case m.phase == PhaseWelcome:
		body = m.viewWelcome()
	default:
		contentWidth := max(width-sidebarWidth-8, 20)
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			sidebarStyle.Render(m.viewSidebar()),
			contentStyle.Width(contentWidth+4).Render(m.viewContent(contentWidth)),
		)
	}

	return ui.Screen{
		Header: ui.Header{
			Title:    m.cfg.General.Title,
			Subtitle: m.phaseLabel(),
			Right:    m.now.Format("15:04"),
		},
		Body:   body,
		Footer: m.viewFooter(width),
	}.Render(width, m.height)
}

func (m *Model) phaseLabel() string {
	label := ""
	switch m.phase {
	case PhaseStep:
		label = fmt.Sprintf("step %d of %d", m.current+1, len(m.steps))
	case PhaseReview:
		label = "review"
	case PhaseExecuting:
		label = "applying"
	case PhaseDone:
		label = "finished"
	}
	if m.demo {
		if label != "" {
			label += " · "
		}
		label += "dry run"
	}
	return label
}

func (m *Model) viewWelcome() string {
	lines := []string{
		ui.TitleStyle.Render(m.cfg.General.Title),
		ui.SubtitleStyle.Render(m.cfg.General.Subtitle),
		"",
		ui.TextStyle.Render("This wizard creates your account and configures the system."),
		ui.TextStyle.Render("Nothing is changed until you confirm on the review screen."),
		"",
	}
	for i, st := range m.steps {
		req := ""
		if st.Required {
			req = ui.MutedStyle.Render(" (required)")
		}
		lines = append(lines, fmt.Sprintf("  %d. %s%s", i+1, st.Title, req))
	}
	lines = append(lines, "", ui.NoteStyle.Render("Press enter to begin · :help for keys"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) viewSidebar() string {
	lines := []string{ui.LabelStyle.Render("Steps"), ""}
	for i, st := range m.steps {
		res := m.results[st.Kind]
		marker, style := ui.MarkerPending, ui.MutedStyle
		switch res.Status {
		case StepDone:
			marker, style = ui.MarkerDone, ui.SuccessTextStyle
		case StepSkipped:
			marker, style = ui.MarkerSkipped, ui.MutedStyle
		}
		title := runewidth.Truncate(st.Title, sidebarWidth-6, "…")
		if m.phase == PhaseStep && i == m.current {
			lines = append(lines, ui.SelectedItemStyle.Render(ui.MarkerFocus+" "+title))
			continue
		}
		lines = append(lines, style.Render(marker)+" "+ui.TextStyle.Render(title))
	}

	lines = append(lines, "")
	for _, p := range []struct {
		phase Phase
		title string
	}{{PhaseReview, "Review"}, {PhaseExecuting, "Apply"}} {
		if m.phase == p.phase {
			lines = append(lines, ui.SelectedItemStyle.Render(ui.MarkerFocus+" "+p.title))
		} else {
			lines = append(lines, ui.MutedStyle.Render("  "+p.title))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) viewContent(width int) string {
	switch m.phase {
	case PhaseReview:
		return m.viewReview(width)
	case PhaseExecuting:
		return lipgloss.JoinVertical(lipgloss.Left,
			ui.TitleStyle.Render("Applying configuration"),
			"",
			m.board.Render(width, ui.SpinnerFrame(m.ticks)),
		)
	case PhaseDone:
		return m.viewDone(width)
	}

	st := m.steps[m.current]
	title := ui.TitleStyle.Render(st.Title)
	switch st.Kind {
	case config.StepUser:
		return lipgloss.JoinVertical(lipgloss.Left, title, "", m.viewUserForm(width))
	case config.StepLocale, config.StepKeyboard, config.StepTimezone:
		filter := ui.Field{
			Label:       "Filter",
			Buffer:      m.filter,
			Focused:     m.editor.Mode() == vim.ModeInsert,
			Placeholder: "type to filter",
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			title, "",
			filter.Render(width), "",
			m.lists[st.Kind].Render(width, max(m.height-16, 3), true),
		)
	case config.StepNetwork:
		return lipgloss.JoinVertical(lipgloss.Left, title, "", m.viewNetwork())
	case config.StepPackages:
		return lipgloss.JoinVertical(lipgloss.Left, title, "", m.viewPackages(width))
	}
	return title
}

func (m *Model) viewUserForm(width int) string {
	var rows []string
	for i, buf := range m.form.fields {
		f := ui.Field{Label: fieldLabels[i], Buffer: buf, Focused: m.form.focus == i}
		rows = append(rows, f.Render(width), "")
	}
	rows = append(rows,
		ui.MutedStyle.Render(fmt.Sprintf("Shell %s · groups %s · at least %d characters",
			m.cfg.User.Shell, strings.Join(m.cfg.User.Groups, ","), m.cfg.User.MinPasswordLength)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) viewNetwork() string {
	state := ui.ErrorTextStyle.Render("not connected")
	hint := "Press enter to run " + m.cfg.Network.Program + ", or :skip."
	if m.networkUp {
		state = ui.SuccessTextStyle.Render("connected")
		hint = "Press enter to continue."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		ui.LabelStyle.Render("Status")+"  "+state,
		"",
		ui.NoteStyle.Render(hint),
	)
}

func (m *Model) viewPackages(width int) string {
	var rows []string
	for i, row := range m.packages {
		if row.first {
			if len(rows) > 0 {
				rows = append(rows, "")
			}
			rows = append(rows, ui.LabelStyle.Render(row.category))
		}
		box := "[ ]"
		if row.selected {
			box = "[x]"
		}
		text := box + " " + row.item.Title
		if row.item.Required {
			text += " (required)"
		}
		if row.item.Description != "" {
			text += " · " + row.item.Description
		}
		text = runewidth.Truncate(text, max(width-2, 8), "…")
		if i == m.pkgCursor {
			rows = append(rows, ui.SelectedItemStyle.Render(ui.MarkerFocus+" "+text))
		} else {
			rows = append(rows, ui.ItemStyle.Render(text))
		}
	}
	rows = append(rows, "", ui.MutedStyle.Render("space toggles · enter continues"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) viewReview(width int) string {
	lines := []string{ui.TitleStyle.Render("Review"), ""}
	for _, st := range m.steps {
		res := m.results[st.Kind]
		value := res.Note
		switch res.Status {
		case StepSkipped:
			value = ui.MutedStyle.Render("skipped")
		case StepPending:
			value = ui.MutedStyle.Render("not set")
		}
		lines = append(lines, ui.LabelStyle.Render(st.Title)+"  "+value)
	}
	lines = append(lines, "", ui.LabelStyle.Render("Tasks"))
	for _, t := range m.planned {
		lines = append(lines, "  "+runewidth.Truncate(t.Label, max(width-4, 8), "…"))
	}
	lines = append(lines, "", ui.NoteStyle.Render("Press enter or :apply to start · :back to change"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) viewDone(width int) string {
	var res *ui.Result
	if m.failed == 0 {
		res = ui.NewSuccessResult("Setup complete",
			ui.Detail{Key: "User", Value: m.form.username()},
			ui.Detail{Key: "Tasks", Value: fmt.Sprintf("%d", len(m.board.Rows))},
		)
	} else {
		details := []ui.Detail{{Key: "Failed", Value: fmt.Sprintf("%d of %d", m.failed, len(m.board.Rows))}}
		for _, r := range m.board.Rows {
			if r.Status == ui.TaskFailed || r.Status == ui.TaskSkipped {
				details = append(details, ui.Detail{Key: r.Label, Value: r.Message})
			}
		}
		res = ui.NewWarningResult("Setup finished with errors", details...)
	}

	next := "Press enter to reboot."
	if m.cfg.Completion.Action == config.ActionExit {
		next = "Press enter to continue to the login screen."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		res.SetWidth(width).Render(),
		"",
		ui.NoteStyle.Render(next),
	)
}

func (m *Model) viewHelp(width int) string {
	var lines []string
	for _, mode := range []vim.Mode{vim.ModeNormal, vim.ModeInsert} {
		lines = append(lines, ui.LabelStyle.Render(mode.String()))
		for _, b := range vim.Bindings(mode) {
			lines = append(lines, fmt.Sprintf("  %-18s %s", b.Keys, b.Help))
		}
	}
	lines = append(lines, "")
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("  %-18s %s", h.Key, h.Desc))
		}
	}
	lines = append(lines, "",
		":next  :back  :skip  :apply  :finish",
		":reboot  :poweroff  :help  :quit",
	)
	return ui.Dialog{
		Kind:  ui.DialogInfo,
		Title: "Keys",
		Lines: lines,
		Hint:  "esc to close",
	}.Render(width)
}

func (m *Model) viewFooter(width int) string {
	bar := ui.StatusBar{
		Mode:        m.editor.Mode(),
		Pending:     m.editor.Pending(),
		CommandLine: m.editor.CommandLine(),
		Message:     m.status.text,
		IsError:     m.status.isError,
		Hint:        ":help",
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.help.ShortHelpView(m.keys.ShortHelp()),
		bar.Render(width),
	)
}
