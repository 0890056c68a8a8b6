package greeter

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypercube-linux/hypercube-utils/internal/auth"
	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/discovery"
	"github.com/hypercube-linux/hypercube-utils/internal/event"
	"github.com/hypercube-linux/hypercube-utils/internal/greetd"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

var t0 = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var testUsers = []discovery.Entry{
	{ID: "alice", Label: "Alice Liddell (alice)"},
	{ID: "bob", Label: "bob"},
}

var testSessions = []discovery.Session{
	{Entry: discovery.Entry{ID: "hyprland", Label: "Hyprland"}, Exec: "Hyprland", Type: discovery.Wayland},
	{Entry: discovery.Entry{ID: "sway", Label: "Sway"}, Exec: "sway --unsupported-gpu", Type: discovery.Wayland},
}

func newTestModel(t *testing.T, demo *greetd.Demo, mutate func(*Options)) *Model {
	t.Helper()
	opts := Options{
		Dial: func(context.Context) (greetd.Transport, error) {
			return demo, nil
		},
		Users:     testUsers,
		Sessions:  testSessions,
		State:     config.NewState(),
		StatePath: filepath.Join(t.TempDir(), "greeter.yaml"),
		Hostname:  "testbox",
		Now:       func() time.Time { return t0 },
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts)
}

func instantDemo() *greetd.Demo {
	return &greetd.Demo{}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func special(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// send delivers msgs in order and returns the command produced by the last.
func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

// settle runs cmd and feeds every resulting message back into the model
// until nothing is left to do. It reports whether tea.Quit was produced.
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
		case tea.BatchMsg:
			quit := false
			for _, c := range msg {
				quit = settle(t, m, c) || quit
			}
			return quit
		default:
			_, cmd = m.Update(msg)
		}
	}
	return false
}

// pump is settle that stops as soon as stop reports true, returning the
// command still outstanding.
func pump(t *testing.T, m *Model, cmd tea.Cmd, stop func() bool) tea.Cmd {
	t.Helper()
	for cmd != nil && !stop() {
		done := make(chan tea.Msg, 1)
		go func(c tea.Cmd) { done <- c() }(cmd)
		select {
		case msg := <-done:
			if msg == nil {
				t.Fatal("listener closed before the condition held")
			}
			_, cmd = m.Update(msg)
		case <-time.After(5 * time.Second):
			t.Fatal("command did not complete")
		}
	}
	require.True(t, stop())
	return cmd
}

func login(t *testing.T, m *Model, user, password string) tea.Cmd {
	t.Helper()
	send(m, runes(user), special(tea.KeyEnter))
	require.Equal(t, ScreenCredentials, m.Screen())
	send(m, runes(password))
	cmd := send(m, special(tea.KeyEnter))
	require.Equal(t, ScreenAuthenticating, m.Screen())
	return cmd
}

func TestLoginStartsSelectedSession(t *testing.T) {
	demo := instantDemo()
	m := newTestModel(t, demo, nil)

	// Pick the second session from the command line.
	send(m, special(tea.KeyEsc), runes(":session sway"), special(tea.KeyEnter))
	sess, ok := m.SelectedSession()
	require.True(t, ok)
	assert.Equal(t, "sway", sess.ID)
	send(m, runes("i"))
	require.Equal(t, vim.ModeInsert, m.Mode())

	quit := settle(t, m, login(t, m, "alice", greetd.DemoPassword))

	assert.True(t, quit)
	assert.True(t, m.Done())
	assert.Equal(t, auth.StateAuthenticated, m.AuthState().Kind)
	assert.Equal(t, []string{"sway", "--unsupported-gpu"}, demo.Started)

	st, err := config.LoadState(m.opts.StatePath)
	require.NoError(t, err)
	assert.Equal(t, "alice", st.LastUser)
	assert.Equal(t, "sway", st.LastSession)
}

func TestLoginFailureShowsError(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)

	quit := settle(t, m, login(t, m, "alice", "wrong"))

	assert.False(t, quit)
	assert.False(t, m.Done())
	assert.Equal(t, ScreenError, m.Screen())
	assert.Equal(t, "Authentication failed", m.ErrorText())
	assert.Contains(t, m.View(), "Authentication failed")

	send(m, special(tea.KeyEnter))
	assert.Equal(t, ScreenCredentials, m.Screen())
	assert.Equal(t, "alice", m.Username())
	assert.Equal(t, fieldSecret, m.focus)
	assert.True(t, m.secret.Empty())
}

func TestRetryAfterFailure(t *testing.T) {
	demo := instantDemo()
	m := newTestModel(t, demo, nil)

	settle(t, m, login(t, m, "alice", "wrong"))
	require.Equal(t, ScreenError, m.Screen())
	send(m, special(tea.KeyEsc))

	send(m, runes(greetd.DemoPassword))
	quit := settle(t, m, send(m, special(tea.KeyEnter)))
	assert.True(t, quit)
	assert.Equal(t, []string{"Hyprland"}, demo.Started)
}

func TestFollowUpPrompt(t *testing.T) {
	demo := instantDemo()
	m := newTestModel(t, demo, nil)

	cmd := login(t, m, greetd.DemoMFAUser, greetd.DemoPassword)
	listener := pump(t, m, cmd, func() bool { return m.Screen() == ScreenCredentials })

	assert.Equal(t, auth.StateAwaitingSecret, m.AuthState().Kind)
	assert.Equal(t, "Verification code:", m.prompt)
	assert.False(t, m.secret.Masked(), "code prompt is visible")
	assert.Equal(t, vim.ModeInsert, m.Mode())
	assert.Contains(t, m.View(), "Verification code:")

	// Focus stays on the answer while the conversation is open.
	send(m, special(tea.KeyTab))
	assert.Equal(t, fieldSecret, m.focus)

	send(m, runes(greetd.DemoCode))
	assert.Nil(t, send(m, special(tea.KeyEnter)), "the existing listener delivers the reply")
	assert.Equal(t, ScreenAuthenticating, m.Screen())

	assert.True(t, settle(t, m, listener))
	assert.True(t, m.Done())
	assert.Equal(t, []string{"Hyprland"}, demo.Started)
}

func TestUserFixedDuringFollowUpPrompt(t *testing.T) {
	demo := instantDemo()
	state := config.NewState()
	m := newTestModel(t, demo, func(o *Options) { o.State = state })

	cmd := login(t, m, greetd.DemoMFAUser, greetd.DemoPassword)
	listener := pump(t, m, cmd, func() bool { return m.Screen() == ScreenCredentials })
	require.Equal(t, auth.StateAwaitingSecret, m.AuthState().Kind)

	send(m, runes(greetd.DemoCode), special(tea.KeyEsc))
	require.Equal(t, vim.ModeNormal, m.Mode())

	send(m, runes(":user bob"), special(tea.KeyEnter))
	text, isErr := m.Status()
	assert.Equal(t, "Finish or :cancel the current login first", text)
	assert.True(t, isErr)
	assert.Equal(t, greetd.DemoMFAUser, m.Username())

	send(m, special(tea.KeyF2))
	assert.Equal(t, ScreenCredentials, m.Screen(), "user picker stays closed")
	assert.Equal(t, greetd.DemoMFAUser, m.Username())

	// Enter in normal mode answers the prompt for the original user.
	send(m, special(tea.KeyEnter))
	assert.True(t, settle(t, m, listener))
	assert.True(t, m.Done())
	assert.Equal(t, greetd.DemoMFAUser, m.Username())
	assert.Equal(t, greetd.DemoMFAUser, state.LastUser)
}

func TestCancelDuringAuthentication(t *testing.T) {
	demo := &greetd.Demo{Delay: 50 * time.Millisecond}
	m := newTestModel(t, demo, nil)

	cmd := login(t, m, "alice", greetd.DemoPassword)
	send(m, special(tea.KeyEsc))

	assert.Equal(t, ScreenCredentials, m.Screen())
	assert.Equal(t, auth.StateCancelled, m.AuthState().Kind)
	text, isErr := m.Status()
	assert.Equal(t, "Login cancelled", text)
	assert.False(t, isErr)

	// The in-flight reply arrives and is dropped.
	assert.False(t, settle(t, m, cmd))
	assert.Equal(t, ScreenCredentials, m.Screen())
	assert.False(t, m.Done())
	assert.Empty(t, demo.Started)
}

func TestCommandsWhileAuthenticating(t *testing.T) {
	demo := &greetd.Demo{Delay: 50 * time.Millisecond}
	m := newTestModel(t, demo, nil)

	cmd := login(t, m, "alice", greetd.DemoPassword)
	send(m, runes(":user bob"), special(tea.KeyEnter))

	text, _ := m.Status()
	assert.Equal(t, "Login in progress; :cancel to abort", text)
	assert.Equal(t, "alice", m.Username())
	assert.Equal(t, ScreenAuthenticating, m.Screen())

	send(m, runes(":cancel"), special(tea.KeyEnter))
	assert.Equal(t, ScreenCredentials, m.Screen())
	settle(t, m, cmd)
	assert.False(t, m.Done())
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    string
		wantErr bool
	}{
		{"unknown verb", ":frobnicate now", "Unknown command: frobnicate", true},
		{"missing session", ":session gnome", "Session not found: gnome", true},
		{"missing user", ":user mallory", "User not found: mallory", true},
		{"wizard verb", ":next", ":next is not available on the login screen", true},
		{"nothing to cancel", ":cancel", "Nothing to cancel", false},
		{"demo power", ":reboot", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, instantDemo(), nil)
			send(m, special(tea.KeyEsc), runes(tt.line), special(tea.KeyEnter))

			text, isErr := m.Status()
			assert.Equal(t, tt.want, text)
			assert.Equal(t, tt.wantErr, isErr)
		})
	}
}

func TestUserCommandFocusesPassword(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)

	send(m, special(tea.KeyEsc), runes(":u BOB"), special(tea.KeyEnter))

	assert.Equal(t, "bob", m.Username())
	assert.Equal(t, fieldSecret, m.focus)
}

func TestLoginRequiresUsername(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)

	cmd := send(m, special(tea.KeyEnter))

	assert.Nil(t, cmd)
	text, isErr := m.Status()
	assert.Equal(t, "Username is required", text)
	assert.True(t, isErr)
	assert.Equal(t, ScreenCredentials, m.Screen())
}

func TestUserPicker(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)

	send(m, special(tea.KeyF2))
	require.Equal(t, ScreenUserPicker, m.Screen())
	assert.Equal(t, vim.ModeInsert, m.Mode())

	send(m, runes("bo"), special(tea.KeyEnter))

	assert.Equal(t, ScreenCredentials, m.Screen())
	assert.Equal(t, "bob", m.Username())
	assert.Equal(t, fieldSecret, m.focus)
	assert.Equal(t, vim.ModeInsert, m.Mode())
}

func TestSessionPickerWheelAndEscape(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)

	send(m, special(tea.KeyF3))
	require.Equal(t, ScreenSessionPicker, m.Screen())
	send(m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	send(m, special(tea.KeyEnter))

	sess, _ := m.SelectedSession()
	assert.Equal(t, "sway", sess.ID)

	// Escape leaves the choice untouched.
	send(m, special(tea.KeyF3), tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	send(m, special(tea.KeyEsc))
	assert.Equal(t, ScreenCredentials, m.Screen())
	sess, _ = m.SelectedSession()
	assert.Equal(t, "sway", sess.ID)
}

func TestPickerNoMatch(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)

	send(m, special(tea.KeyF2), runes("zzz"), special(tea.KeyEnter))

	assert.Equal(t, ScreenUserPicker, m.Screen())
	text, isErr := m.Status()
	assert.Equal(t, "No match for zzz", text)
	assert.True(t, isErr)
	assert.Empty(t, m.Username())
}

func TestRememberedState(t *testing.T) {
	m := newTestModel(t, instantDemo(), func(o *Options) {
		o.State = &config.State{Version: 1, LastUser: "bob", LastSession: "sway"}
	})

	assert.Equal(t, "bob", m.Username())
	assert.Equal(t, fieldSecret, m.focus)
	sess, _ := m.SelectedSession()
	assert.Equal(t, "sway", sess.ID)
}

func TestPowerMenu(t *testing.T) {
	var got []system.PowerAction
	m := newTestModel(t, instantDemo(), func(o *Options) {
		o.Power = func(_ context.Context, a system.PowerAction) error {
			got = append(got, a)
			return nil
		}
	})

	send(m, special(tea.KeyF12))
	require.Equal(t, ScreenPowerMenu, m.Screen())
	assert.Contains(t, m.View(), "Power off")

	// Moving past the last action lands on Cancel.
	send(m, runes("j"), special(tea.KeyEnter))
	assert.Equal(t, ScreenCredentials, m.Screen())
	assert.Empty(t, got)

	send(m, special(tea.KeyF12))
	settle(t, m, send(m, special(tea.KeyEnter)))
	send(m, special(tea.KeyF12))
	settle(t, m, send(m, runes("r")))
	assert.Equal(t, []system.PowerAction{system.Poweroff, system.Reboot}, got)
}

func TestPowerMenuDemo(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)

	send(m, special(tea.KeyF12), runes("p"))

	text, _ := m.Status()
	assert.Equal(t, "Demo mode: would poweroff", text)
	assert.Equal(t, ScreenCredentials, m.Screen())
}

func TestStatusExpires(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)
	send(m, special(tea.KeyEsc), runes(":bogus"), special(tea.KeyEnter))
	text, _ := m.Status()
	require.NotEmpty(t, text)

	cmd := send(m, event.TickMsg(t0.Add(time.Second)))
	assert.NotNil(t, cmd, "tick re-arms itself")
	text, _ = m.Status()
	assert.NotEmpty(t, text)

	send(m, event.TickMsg(t0.Add(StatusTimeout)))
	text, _ = m.Status()
	assert.Empty(t, text)
}

func TestHelpScreen(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)

	send(m, special(tea.KeyEsc), runes(":help"), special(tea.KeyEnter))
	require.Equal(t, ScreenHelp, m.Screen())
	view := m.View()
	assert.Contains(t, view, "dd clears the field")
	assert.Contains(t, view, "restart greeter")

	send(m, special(tea.KeyEsc))
	assert.Equal(t, ScreenCredentials, m.Screen())
}

func TestViewSizes(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)
	send(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()
	assert.Equal(t, 40, len(strings.Split(view, "\n")))
	assert.Contains(t, view, "testbox")
	assert.Contains(t, view, "Hyprland")
}

func TestCtrlCQuits(t *testing.T) {
	m := newTestModel(t, instantDemo(), nil)
	cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
