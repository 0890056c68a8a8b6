package greeter

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/hypercube-linux/hypercube-utils/internal/system"
	"github.com/hypercube-linux/hypercube-utils/internal/ui"
	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

const formWidth = 56

// View renders the current screen.
func (m *Model) View() string {
	width := ui.ClampWidth(m.width)

	var body string
	switch m.screen {
	case ScreenUserPicker:
		body = m.viewPicker("Select user", m.users)
	case ScreenSessionPicker:
		body = m.viewPicker("Select session", m.sessions)
	case ScreenPowerMenu:
		body = m.viewPower(width)
	case ScreenAuthenticating:
		body = m.viewAuthenticating()
	case ScreenError:
		body = ui.Dialog{
			Kind:  ui.DialogError,
			Title: "Login failed",
			Lines: []string{m.errText},
			Hint:  "enter/esc to try again",
		}.Render(width)
	case ScreenHelp:
		body = m.viewHelp(width)
	default:
		body = m.viewCredentials()
	}

	return ui.Screen{
		Header: ui.Header{
			Title:    "hypercube",
			Subtitle: m.opts.Hostname,
			Right:    m.now.Format("Mon 2 Jan 15:04"),
		},
		Body:   body,
		Footer: m.viewFooter(width),
	}.Render(width, m.height)
}

func (m *Model) viewCredentials() string {
	secretLabel := "Password"
	if m.prompt != "" {
		secretLabel = "Response"
	}

	userField := ui.Field{
		Label:       "Username",
		Buffer:      m.username,
		Focused:     m.focus == fieldUser,
		Placeholder: "F2 to pick",
	}
	secretField := ui.Field{
		Label:   secretLabel,
		Buffer:  m.secret,
		Focused: m.focus == fieldSecret,
	}

	session := ui.MutedStyle.Render("none")
	if s, ok := m.SelectedSession(); ok {
		session = ui.TextStyle.Render(s.Label) + ui.MutedStyle.Render(" ("+string(s.Type)+")")
	}

	rows := []string{userField.Render(formWidth), ""}
	if m.prompt != "" {
		rows = append(rows, ui.NoteStyle.Render(m.prompt))
	}
	rows = append(rows,
		secretField.Render(formWidth),
		"",
		ui.LabelStyle.Render("Session")+"  "+session,
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.PrimaryColor).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) viewPicker(title string, list *ui.List) string {
	filter := ui.Field{
		Label:       "Filter",
		Buffer:      m.filter,
		Focused:     m.editor.Mode() == vim.ModeInsert,
		Placeholder: "type to filter",
	}
	rows := []string{
		ui.TitleStyle.Render(title),
		"",
		filter.Render(formWidth),
		"",
		list.Render(formWidth, max(m.height-14, 3), true),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.PrimaryColor).
		Padding(1, 2).
		Width(formWidth + 6).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) viewPower(width int) string {
	options := make([]string, 0, len(powerChoices)+1)
	for _, a := range powerChoices {
		switch a {
		case system.Reboot:
			options = append(options, "Reboot")
		default:
			options = append(options, "Power off")
		}
	}
	options = append(options, "Cancel")

	return ui.Dialog{
		Kind:  ui.DialogWarning,
		Title: "Power",
		Lines: ui.Menu(options, m.powerChoice),
		Hint:  "j/k move · enter confirm · r reboot · p power off · esc back",
	}.Render(width)
}

func (m *Model) viewAuthenticating() string {
	user := ""
	if m.session != nil {
		user = m.session.Username()
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		ui.TitleStyle.Render(ui.SpinnerFrame(m.ticks)+" Authenticating "+user),
		"",
		ui.MutedStyle.Render("esc or :cancel to abort"),
	)
}

func (m *Model) viewHelp(width int) string {
	var lines []string
	for _, mode := range []vim.Mode{vim.ModeNormal, vim.ModeInsert, vim.ModeCommand} {
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
		":session [name]  :user [name]  :login (:q)  :cancel",
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
