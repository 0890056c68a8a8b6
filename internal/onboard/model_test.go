package onboard

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/discovery"
	"github.com/hypercube-linux/hypercube-utils/internal/executor"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
	"github.com/hypercube-linux/hypercube-utils/internal/ui"
	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

var t0 = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func yes() *bool { b := true; return &b }

func testConfig() *config.Onboard {
	cfg := config.DefaultOnboard()
	cfg.General.DryRun = true
	cfg.Updates = []config.UpdateCategory{
		{
			Name:             "Essentials",
			EnabledByDefault: true,
			Packages: []config.PackageItem{
				{Title: "Base tools", Required: true, Commands: []config.CommandConfig{
					{Command: []string{"pacman", "-S", "--noconfirm", "base-devel"}, Sudo: true},
				}},
				{Title: "Editor", Commands: []config.CommandConfig{
					{Name: "install", Command: []string{"pacman", "-S", "--noconfirm", "helix"}, Sudo: true},
				}},
			},
		},
		{
			Name: "Extras",
			Packages: []config.PackageItem{
				{Title: "Games", Commands: []config.CommandConfig{
					{Command: []string{"flatpak", "install", "--user", "-y", "supertux"}},
				}},
				{Title: "Fonts", EnabledByDefault: yes(), Commands: []config.CommandConfig{
					{Command: []string{"pacman", "-S", "--noconfirm", "noto-fonts"}, Sudo: true},
				}},
			},
		},
	}
	return cfg
}

func newTestModel(t *testing.T, cfg *config.Onboard) *Model {
	t.Helper()
	return New(Options{
		Config:  cfg,
		Scanner: discovery.NewScanner(true),
		Ops: &system.Ops{
			Runner:       system.NewRunner(),
			GreetdConfig: filepath.Join(t.TempDir(), "config.toml"),
		},
		Exec: executor.Options{SimulateStep: time.Millisecond, SimulateSteps: 1},
		Now:  func() time.Time { return t0 },
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func special(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

var (
	enter = special(tea.KeyEnter)
	esc   = special(tea.KeyEsc)
)

func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

// command runs a command line from any mode.
func command(m *Model, line string) tea.Cmd {
	if m.Mode() == vim.ModeInsert {
		send(m, esc)
	}
	return send(m, runes(":"+line), enter)
}

// settle feeds every message produced by cmd back into the model until
// nothing is left. It reports whether tea.Quit was produced.
func settle(t *testing.T, m *Model, cmd tea.Cmd) bool {
	t.Helper()
	for cmd != nil {
		done := make(chan tea.Msg, 1)
		go func(c tea.Cmd) { done <- c() }(cmd)

		var msg tea.Msg
		select {
		case msg = <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("command did not complete")
		}

		switch msg := msg.(type) {
		case nil:
			return false
		case tea.QuitMsg:
			return true
		default:
			_, cmd = m.Update(msg)
		}
	}
	return false
}

func currentStep(t *testing.T, m *Model) config.StepKind {
	t.Helper()
	st, ok := m.Step()
	require.True(t, ok, "phase is %s", m.Phase())
	return st.Kind
}

// fillUser types a complete account form starting from the welcome screen.
func fillUser(t *testing.T, m *Model, name, password, confirm string) {
	t.Helper()
	send(m, enter)
	require.Equal(t, config.StepUser, currentStep(t, m))
	send(m, runes(name), enter, runes(password), enter, runes(confirm), enter)
}

func TestWizardDryRun(t *testing.T) {
	m := newTestModel(t, testConfig())
	require.Equal(t, PhaseWelcome, m.Phase())
	assert.Contains(t, m.View(), "Create user")

	fillUser(t, m, "alice", "hunter22", "hunter22")
	assert.Equal(t, StepDone, m.Result(config.StepUser).Status)

	// Accept the preselected defaults.
	for _, want := range []config.StepKind{config.StepLocale, config.StepKeyboard, config.StepNetwork, config.StepTimezone, config.StepPackages} {
		require.Equal(t, want, currentStep(t, m))
		send(m, enter)
		assert.NotEqual(t, StepPending, m.Result(want).Status, want.String())
	}

	require.Equal(t, PhaseReview, m.Phase())
	locale, _ := m.Choice(config.StepLocale)
	keymap, _ := m.Choice(config.StepKeyboard)
	tz, _ := m.Choice(config.StepTimezone)
	assert.Equal(t, "en_US.UTF-8", locale)
	assert.Equal(t, "us", keymap)
	assert.Equal(t, "UTC", tz)
	assert.Contains(t, m.View(), "Create user alice")

	cmd := send(m, enter)
	require.Equal(t, PhaseExecuting, m.Phase())
	require.NotNil(t, cmd)
	board := m.Board()
	require.NotNil(t, board)
	assert.Equal(t, 9, len(board.Rows))

	// The control loop keeps serving keys while tasks run.
	command(m, "help")
	assert.True(t, m.HelpVisible())
	send(m, esc)
	assert.False(t, m.HelpVisible())
	command(m, "quit")
	text, isErr := m.Status()
	assert.Equal(t, "Setup is running; wait for it to finish", text)
	assert.True(t, isErr)
	command(m, "back")
	text, _ = m.Status()
	assert.Equal(t, "Cannot go back once setup has started", text)

	assert.False(t, settle(t, m, cmd))
	require.Equal(t, PhaseDone, m.Phase())
	assert.Zero(t, m.Failed())
	assert.Equal(t, len(board.Rows), board.Count(ui.TaskDone))
	assert.Contains(t, m.View(), "Setup complete")

	assert.True(t, settle(t, m, send(m, enter)))
	assert.Equal(t, "demo: would reboot", m.Outcome())
}

func TestCompletionExit(t *testing.T) {
	cfg := testConfig()
	cfg.Completion.Action = config.ActionExit
	cfg.Updates = nil
	cfg.Locale.Enabled = false
	cfg.Keyboard.Enabled = false
	cfg.Network.Enabled = false
	cfg.Preferences.TimezoneEnabled = false
	m := newTestModel(t, cfg)

	fillUser(t, m, "alice", "hunter22", "hunter22")
	require.Equal(t, PhaseReview, m.Phase())
	settle(t, m, send(m, enter))
	require.Equal(t, PhaseDone, m.Phase())

	command(m, "next")
	assert.Equal(t, PhaseDone, m.Phase())
	text, _ := m.Status()
	assert.Equal(t, "Press enter or :finish to continue", text)
	assert.True(t, settle(t, m, command(m, "finish")))
	assert.Equal(t, "exit", m.Outcome())
}

func TestRequiredStepCannotBeSkipped(t *testing.T) {
	m := newTestModel(t, testConfig())
	send(m, enter)

	command(m, "skip")

	assert.Equal(t, config.StepUser, currentStep(t, m))
	text, isErr := m.Status()
	assert.Equal(t, "Create user is required and cannot be skipped", text)
	assert.True(t, isErr)
	assert.Equal(t, StepPending, m.Result(config.StepUser).Status)
}

func TestOptionalStepSkip(t *testing.T) {
	m := newTestModel(t, testConfig())
	fillUser(t, m, "alice", "hunter22", "hunter22")
	require.Equal(t, config.StepLocale, currentStep(t, m))

	command(m, "skip")

	assert.Equal(t, StepSkipped, m.Result(config.StepLocale).Status)
	assert.Equal(t, config.StepKeyboard, currentStep(t, m))
	_, ok := m.Choice(config.StepLocale)
	assert.False(t, ok)

	command(m, "apply")
	require.Equal(t, PhaseReview, m.Phase())
	for _, task := range m.Planned() {
		assert.NotEqual(t, system.TaskSetLocale, task.ID)
	}
}

func TestInvalidUserFormBlocksReview(t *testing.T) {
	tests := []struct {
		name              string
		user, pass, again string
		want              string
		field             int
	}{
		{"empty name", "", "hunter22", "hunter22", "Username is required", fieldUsername},
		{"bad name", "Bad Name", "hunter22", "hunter22", `Invalid username "Bad Name": use lowercase letters, digits, - and _`, fieldUsername},
		{"short password", "alice", "short", "short", "Password must be at least 8 characters", fieldPassword},
		{"mismatch", "alice", "hunter22", "hunter23", "Passwords do not match", fieldConfirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, testConfig())
			fillUser(t, m, tt.user, tt.pass, tt.again)

			assert.Equal(t, config.StepUser, currentStep(t, m))
			assert.Equal(t, tt.field, m.form.focus)
			text, isErr := m.Status()
			assert.Equal(t, tt.want, text)
			assert.True(t, isErr)

			command(m, "apply")
			assert.Equal(t, PhaseStep, m.Phase())
			assert.Equal(t, config.StepUser, currentStep(t, m))
			text, _ = m.Status()
			assert.Equal(t, "Create user must be completed first", text)
		})
	}
}

func TestApplyFromWelcomeJumpsToUser(t *testing.T) {
	m := newTestModel(t, testConfig())

	command(m, "apply")

	assert.Equal(t, config.StepUser, currentStep(t, m))
	assert.Equal(t, vim.ModeInsert, m.Mode())
}

func TestReselectingPickerYieldsOneTask(t *testing.T) {
	m := newTestModel(t, testConfig())
	fillUser(t, m, "alice", "hunter22", "hunter22")

	send(m, enter)
	require.Equal(t, config.StepKeyboard, currentStep(t, m))

	command(m, "back")
	require.Equal(t, config.StepLocale, currentStep(t, m))
	assert.Equal(t, vim.ModeInsert, m.Mode())
	send(m, runes("de_DE"), enter)

	command(m, "apply")
	require.Equal(t, PhaseReview, m.Phase())

	var locales []executor.Task
	for _, task := range m.Planned() {
		if task.ID == system.TaskSetLocale {
			locales = append(locales, task)
		}
		assert.NotEqual(t, system.TaskSetKeymap, task.ID, "keyboard step was never confirmed")
	}
	require.Len(t, locales, 1)
	assert.Contains(t, locales[0].Command, "LANG=de_DE.UTF-8")
}

func TestPackageToggles(t *testing.T) {
	cfg := testConfig()
	cfg.Locale.Enabled = false
	cfg.Keyboard.Enabled = false
	cfg.Network.Enabled = false
	cfg.Preferences.TimezoneEnabled = false
	m := newTestModel(t, cfg)

	fillUser(t, m, "alice", "hunter22", "hunter22")
	require.Equal(t, config.StepPackages, currentStep(t, m))
	assert.Equal(t, vim.ModeNormal, m.Mode())

	// Base tools is required.
	send(m, runes(" "))
	text, _ := m.Status()
	assert.Equal(t, "Base tools is required", text)
	assert.True(t, m.packages[0].selected)

	send(m, runes("j "))
	assert.False(t, m.packages[1].selected, "editor toggled off")
	send(m, runes("j "))
	assert.True(t, m.packages[2].selected, "games toggled on")
	assert.True(t, m.packages[3].selected, "fonts default on")

	send(m, enter)
	require.Equal(t, PhaseReview, m.Phase())

	var ids []string
	for _, task := range m.Planned() {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{
		system.TaskCreateUser,
		system.TaskSetNTP,
		"pkg-01-essentials-base-tools",
		"pkg-02-extras-games",
		"pkg-03-extras-fonts",
		system.TaskFinalize,
	}, ids)
}

func TestNetworkAlreadyConnected(t *testing.T) {
	m := newTestModel(t, testConfig())

	send(m, networkStatusMsg{up: true})

	res := m.Result(config.StepNetwork)
	assert.Equal(t, StepDone, res.Status)
	assert.Equal(t, "Already connected", res.Note)
}

func TestNetworkStepInDryRun(t *testing.T) {
	cfg := testConfig()
	cfg.Locale.Enabled = false
	cfg.Keyboard.Enabled = false
	m := newTestModel(t, cfg)

	fillUser(t, m, "alice", "hunter22", "hunter22")
	require.Equal(t, config.StepNetwork, currentStep(t, m))

	cmd := send(m, enter)
	assert.Nil(t, cmd)
	assert.Equal(t, "Simulated", m.Result(config.StepNetwork).Note)
	text, _ := m.Status()
	assert.Equal(t, "Demo mode: would run wifitui", text)
	assert.Equal(t, config.StepTimezone, currentStep(t, m))
}

func TestBackToWelcome(t *testing.T) {
	m := newTestModel(t, testConfig())
	send(m, enter)

	command(m, "back")
	assert.Equal(t, PhaseWelcome, m.Phase())
	command(m, "back")
	text, _ := m.Status()
	assert.Equal(t, "Already at the first screen", text)
}

func TestUnavailableCommands(t *testing.T) {
	m := newTestModel(t, testConfig())

	command(m, "session sway")
	text, isErr := m.Status()
	assert.Equal(t, ":session is not available in setup", text)
	assert.True(t, isErr)

	command(m, "wat")
	text, _ = m.Status()
	assert.Equal(t, "Unknown command: wat", text)
}

func TestCtrlCAborts(t *testing.T) {
	m := newTestModel(t, testConfig())
	cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.Equal(t, "aborted", m.Outcome())
}

func TestViewFitsTerminal(t *testing.T) {
	m := newTestModel(t, testConfig())
	send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	send(m, enter)

	view := m.View()
	assert.Equal(t, 30, len(strings.Split(view, "\n")))
	assert.Contains(t, view, "System Setup")
	assert.Contains(t, view, "Username")
}
