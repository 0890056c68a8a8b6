package onboard

import (
	"fmt"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/discovery"
	"github.com/hypercube-linux/hypercube-utils/internal/event"
	"github.com/hypercube-linux/hypercube-utils/internal/logging"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

const (
	fieldUsername = iota
	fieldPassword
	fieldConfirm
	fieldCount
)

var fieldLabels = [fieldCount]string{"Username", "Password", "Confirm"}

// userForm holds the account step's three fields.
type userForm struct {
	fields [fieldCount]*vim.Buffer
	focus  int
}

func newUserForm() userForm {
	return userForm{fields: [fieldCount]*vim.Buffer{
		vim.NewBuffer(),
		vim.NewSecretBuffer(),
		vim.NewSecretBuffer(),
	}}
}

func (f *userForm) username() string {
	return strings.TrimSpace(f.fields[fieldUsername].String())
}

func (f *userForm) focused() (*vim.Buffer, vim.FieldKind) {
	if f.focus == fieldUsername {
		return f.fields[fieldUsername], vim.FieldText
	}
	return f.fields[f.focus], vim.FieldSecret
}

// validate returns the field holding the first problem and a message for
// it, or an empty message when the form is complete.
func (f *userForm) validate(minLen int) (int, string) {
	name := f.username()
	switch {
	case name == "":
		return fieldUsername, "Username is required"
	case !system.ValidUsername(name):
		return fieldUsername, fmt.Sprintf("Invalid username %q: use lowercase letters, digits, - and _", name)
	case f.fields[fieldPassword].Len() < minLen:
		return fieldPassword, fmt.Sprintf("Password must be at least %d characters", minLen)
	case f.fields[fieldPassword].String() != f.fields[fieldConfirm].String():
		return fieldConfirm, "Passwords do not match"
	}
	return 0, ""
}

// takePassword moves the password out of the form and clears both secret
// fields.
func (f *userForm) takePassword() []byte {
	f.fields[fieldConfirm].Clear()
	return f.fields[fieldPassword].TakeBytes()
}

// packageRow is one toggleable package with its category.
type packageRow struct {
	category string
	// first marks the first package of its category, where the view prints
	// the category header.
	first    bool
	item     config.PackageItem
	selected bool
}

func packageRows(cats []config.UpdateCategory) []packageRow {
	var rows []packageRow
	for _, cat := range cats {
		for i, pkg := range cat.Packages {
			rows = append(rows, packageRow{
				category: cat.Name,
				first:    i == 0,
				item:     pkg,
				selected: pkg.DefaultEnabled(cat.EnabledByDefault),
			})
		}
	}
	return rows
}

// enter shows step i.
func (m *Model) enter(i int) {
	m.phase = PhaseStep
	m.current = i
	st := m.steps[i]

	switch st.Kind {
	case config.StepUser:
		m.editor.Escape()
		m.editor.BeginInsert()
		_, kind := m.form.focused()
		m.editor.Focus(kind)
	case config.StepLocale, config.StepKeyboard, config.StepTimezone:
		m.filter.Clear()
		list := m.lists[st.Kind]
		list.SetFilter("")
		if i := discovery.Find(m.catalogs[st.Kind], m.pickerDefault(st.Kind)); i >= 0 {
			list.Select(i)
		}
		m.editor.Escape()
		m.editor.Focus(vim.FieldPicker)
	default:
		m.editor.Escape()
	}
}

// pickerDefault is the previous choice, or the configured default.
func (m *Model) pickerDefault(kind config.StepKind) string {
	if v, ok := m.choices[kind]; ok {
		return v
	}
	switch kind {
	case config.StepLocale:
		return m.cfg.Locale.Default
	case config.StepKeyboard:
		return m.cfg.Keyboard.Default
	case config.StepTimezone:
		return m.cfg.Preferences.DefaultTimezone
	}
	return ""
}

func (m *Model) handleStepKey(k event.Key) tea.Cmd {
	st := m.steps[m.current]

	switch st.Kind {
	case config.StepUser:
		buf, kind := m.form.focused()
		return m.act(m.editor.Handle(k, buf, kind))

	case config.StepLocale, config.StepKeyboard, config.StepTimezone:
		act := m.editor.Handle(k, m.filter, vim.FieldPicker)
		m.lists[st.Kind].SetFilter(m.filter.String())
		return m.act(act)

	case config.StepPackages:
		if k.Is(' ') && m.editor.Mode() != vim.ModeCommand {
			m.toggle()
			return nil
		}
	}
	return m.act(m.editor.Handle(k, nil, vim.FieldText))
}

func (m *Model) act(a vim.Action) tea.Cmd {
	switch a.Kind {
	case vim.ActFocusNext:
		m.move(1)
	case vim.ActFocusPrev:
		m.move(-1)
	case vim.ActSubmit:
		if m.steps[m.current].Kind == config.StepUser && m.form.focus < fieldConfirm {
			m.move(1)
			m.editor.BeginInsert()
			return nil
		}
		return m.complete()
	case vim.ActExecute:
		return m.execute(a.Command)
	}
	return nil
}

// move shifts focus within the step: form field, picker row or package.
func (m *Model) move(delta int) {
	st := m.steps[m.current]
	switch st.Kind {
	case config.StepUser:
		m.form.focus = (m.form.focus + delta + fieldCount) % fieldCount
		_, kind := m.form.focused()
		m.editor.Focus(kind)
	case config.StepLocale, config.StepKeyboard, config.StepTimezone:
		if delta > 0 {
			m.lists[st.Kind].Next()
		} else {
			m.lists[st.Kind].Prev()
		}
	case config.StepPackages:
		if n := len(m.packages); n > 0 {
			m.pkgCursor = (m.pkgCursor + delta + n) % n
		}
	}
}

func (m *Model) toggle() {
	if m.pkgCursor >= len(m.packages) {
		return
	}
	row := &m.packages[m.pkgCursor]
	if row.item.Required {
		m.setError(row.item.Title + " is required")
		return
	}
	row.selected = !row.selected
}

// complete confirms the current step with what is on screen and moves on.
func (m *Model) complete() tea.Cmd {
	st := m.steps[m.current]

	switch st.Kind {
	case config.StepUser:
		field, problem := m.form.validate(m.cfg.User.MinPasswordLength)
		if problem != "" {
			m.form.focus = field
			_, kind := m.form.focused()
			m.editor.BeginInsert()
			m.editor.Focus(kind)
			m.setError(problem)
			return nil
		}
		m.results[st.Kind] = StepResult{Status: StepDone, Note: m.form.username()}

	case config.StepLocale, config.StepKeyboard, config.StepTimezone:
		i, ok := m.lists[st.Kind].Selected()
		if !ok {
			m.setError("No match for " + m.filter.String())
			m.editor.BeginInsert()
			return nil
		}
		v := m.catalogs[st.Kind][i].ID
		m.choices[st.Kind] = v
		m.results[st.Kind] = StepResult{Status: StepDone, Note: v}

	case config.StepNetwork:
		if !m.networkUp {
			return m.launchNetwork()
		}
		m.results[st.Kind] = StepResult{Status: StepDone, Note: "Connected"}

	case config.StepPackages:
		n := 0
		for _, row := range m.packages {
			if row.selected {
				n++
			}
		}
		m.results[st.Kind] = StepResult{Status: StepDone, Note: fmt.Sprintf("%d selected", n)}
	}

	m.advance()
	return nil
}

// launchNetwork hands the terminal to the configured network program.
func (m *Model) launchNetwork() tea.Cmd {
	prog := m.cfg.Network.Program
	if m.demo {
		m.results[config.StepNetwork] = StepResult{Status: StepDone, Note: "Simulated"}
		m.setStatus("Demo mode: would run "+prog, false)
		m.advance()
		return nil
	}

	logging.LogCommand(prog, m.cfg.Network.Args)
	c := exec.Command(prog, m.cfg.Network.Args...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return networkDoneMsg{err: err}
	})
}

func (m *Model) networkDone(err error) tea.Cmd {
	if err != nil {
		logging.Warn("Network program failed", zap.String("program", m.cfg.Network.Program), zap.Error(err))
		m.setError(fmt.Sprintf("%s: %v", m.cfg.Network.Program, err))
		return m.checkNetwork()
	}
	m.results[config.StepNetwork] = StepResult{Status: StepDone, Note: "Configured"}
	if st, ok := m.Step(); ok && st.Kind == config.StepNetwork {
		m.advance()
	}
	return m.checkNetwork()
}

// networkStatus records a connectivity probe. An already connected machine
// has the step marked done when the configuration allows it.
func (m *Model) networkStatus(up bool) {
	m.networkUp = up
	if !up || !m.cfg.Network.SkipIfConnected {
		return
	}
	if m.results[config.StepNetwork].Status == StepPending {
		m.results[config.StepNetwork] = StepResult{Status: StepDone, Note: "Already connected"}
	}
}
