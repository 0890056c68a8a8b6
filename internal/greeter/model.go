package greeter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/auth"
	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/discovery"
	"github.com/hypercube-linux/hypercube-utils/internal/event"
	"github.com/hypercube-linux/hypercube-utils/internal/logging"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
	"github.com/hypercube-linux/hypercube-utils/internal/ui"
	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

// Screen is the greeter's top-level state.
type Screen int

const (
	ScreenCredentials Screen = iota
	ScreenUserPicker
	ScreenSessionPicker
	ScreenPowerMenu
	ScreenAuthenticating
	ScreenError
	ScreenHelp
)

func (s Screen) String() string {
	switch s {
	case ScreenCredentials:
		return "credentials"
	case ScreenUserPicker:
		return "user-picker"
	case ScreenSessionPicker:
		return "session-picker"
	case ScreenPowerMenu:
		return "power-menu"
	case ScreenAuthenticating:
		return "authenticating"
	case ScreenError:
		return "error"
	case ScreenHelp:
		return "help"
	default:
		return fmt.Sprintf("Screen(%d)", int(s))
	}
}

// StatusTimeout is how long a transient status message stays visible.
const StatusTimeout = 4 * time.Second

// PowerFunc reboots or powers off the machine.
type PowerFunc func(ctx context.Context, a system.PowerAction) error

// Options configure a Model.
type Options struct {
	// Dial opens the greetd conversation for each login attempt.
	Dial     auth.Dialer
	Users    []discovery.Entry
	Sessions []discovery.Session
	// State preselects the last user and session. It is updated and saved
	// to StatePath after a successful login when StatePath is set.
	State     *config.State
	StatePath string
	// Power is nil in demo mode; power actions are then only announced.
	Power    PowerFunc
	Hostname string
	Now      func() time.Time
}

type field int

const (
	fieldUser field = iota
	fieldSecret
)

type status struct {
	text    string
	isError bool
	until   time.Time
}

type powerDoneMsg struct {
	action system.PowerAction
	err    error
}

var powerChoices = []system.PowerAction{system.Reboot, system.Poweroff}

// Model is the greeter controller. It owns every piece of UI state and is
// driven only through Update.
type Model struct {
	opts Options
	keys keyMap
	help help.Model

	screen   Screen
	editor   *vim.Editor
	focus    field
	username *vim.Buffer
	secret   *vim.Buffer
	// prompt labels the secret field during a follow-up prompt.
	prompt string

	users      *ui.List
	sessions   *ui.List
	sessionIdx int
	filter     *vim.Buffer

	powerChoice int

	session *auth.Session
	// pendingSecret is the password typed before the conversation started,
	// held until greetd asks for it.
	pendingSecret *auth.Secret
	errText       string

	status        status
	now           time.Time
	ticks         int
	width, height int
	done          bool
}

// New builds the greeter, preselecting the remembered user and session.
func New(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	userLabels := make([]string, len(opts.Users))
	for i, u := range opts.Users {
		userLabels[i] = u.Label
	}
	sessionLabels := make([]string, len(opts.Sessions))
	for i, s := range opts.Sessions {
		sessionLabels[i] = s.Label + " (" + string(s.Type) + ")"
	}

	m := &Model{
		opts:     opts,
		keys:     newKeyMap(),
		help:     help.New(),
		editor:   vim.NewEditor(vim.ModeInsert),
		username: vim.NewBuffer(),
		secret:   vim.NewSecretBuffer(),
		users:    ui.NewList(userLabels),
		sessions: ui.NewList(sessionLabels),
		filter:   vim.NewBuffer(),
		now:      opts.Now(),
		width:    ui.MinTerminalWidth,
		height:   24,
	}

	if st := opts.State; st != nil {
		if i := discovery.Find(m.sessionEntries(), st.LastSession); i >= 0 {
			m.sessionIdx = i
		}
		if st.LastUser != "" {
			m.username.Set(st.LastUser)
			m.focus = fieldSecret
		}
	}
	return m
}

// Init starts the heartbeat.
func (m *Model) Init() tea.Cmd {
	return event.Tick()
}

// Update handles one event to completion.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case event.TickMsg:
		return m, m.tick(time.Time(msg))

	case auth.Reply:
		return m, m.handleReply(msg)

	case powerDoneMsg:
		if msg.err != nil {
			logging.Error("Power action failed", zap.Stringer("action", msg.action), zap.Error(msg.err))
			m.showError(fmt.Sprintf("%s failed: %v", msg.action, msg.err))
		}
		return m, nil

	case tea.MouseMsg:
		if mouse, ok := event.MouseFromTea(msg); ok {
			m.handleMouse(mouse)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}
	return m, nil
}

// Screen returns the current top-level state.
func (m *Model) Screen() Screen { return m.screen }

// Done reports whether a session was started.
func (m *Model) Done() bool { return m.done }

// Mode returns the editor mode.
func (m *Model) Mode() vim.Mode { return m.editor.Mode() }

// Username returns the typed user name.
func (m *Model) Username() string { return m.username.String() }

// ErrorText returns the message shown on the error screen.
func (m *Model) ErrorText() string { return m.errText }

// Status returns the transient status line.
func (m *Model) Status() (string, bool) { return m.status.text, m.status.isError }

// SelectedSession returns the session that will be started.
func (m *Model) SelectedSession() (discovery.Session, bool) {
	if m.sessionIdx < 0 || m.sessionIdx >= len(m.opts.Sessions) {
		return discovery.Session{}, false
	}
	return m.opts.Sessions[m.sessionIdx], true
}

// AuthState returns the state of the current attempt.
func (m *Model) AuthState() auth.State {
	if m.session == nil {
		return auth.State{}
	}
	return m.session.State()
}

func (m *Model) tick(t time.Time) tea.Cmd {
	m.now = t
	m.ticks++
	if m.status.text != "" && !t.Before(m.status.until) {
		m.status = status{}
	}
	return event.Tick()
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = status{text: text, isError: isError, until: m.now.Add(StatusTimeout)}
}

func (m *Model) setError(text string) { m.setStatus(text, true) }

func (m *Model) showError(text string) {
	if text == "" {
		text = auth.DefaultFailure
	}
	m.errText = text
	m.screen = ScreenError
	m.secret.Clear()
	m.resetPrompt()
}

func (m *Model) dismissError() {
	m.screen = ScreenCredentials
	m.errText = ""
	if m.username.Empty() {
		m.focusField(fieldUser)
	} else {
		m.focusField(fieldSecret)
	}
	m.editor.BeginInsert()
}

func (m *Model) resetPrompt() {
	m.prompt = ""
	m.secret.SetMasked(true)
}

func (m *Model) focused() *vim.Buffer {
	if m.focus == fieldSecret {
		return m.secret
	}
	return m.username
}

func kindOf(f field) vim.FieldKind {
	if f == fieldSecret {
		return vim.FieldSecret
	}
	return vim.FieldText
}

func (m *Model) focusField(f field) {
	m.focus = f
	m.editor.Focus(kindOf(f))
}

// conversing reports whether greetd is waiting on a follow-up prompt the
// user is answering in the secret field.
func (m *Model) conversing() bool {
	return m.session != nil && m.session.State().Kind == auth.StateAwaitingSecret && !m.session.Pending()
}

// userLocked refuses a user change while greetd is mid-conversation for
// the current one.
func (m *Model) userLocked() bool {
	if !m.conversing() {
		return false
	}
	m.setError("Finish or :cancel the current login first")
	return true
}

func (m *Model) busy() bool {
	if m.session == nil {
		return false
	}
	st := m.session.State()
	return st.Kind != auth.StateIdle && !st.Terminal()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		logging.Info("Greeter interrupted")
		m.cancelAttempt()
		return tea.Quit
	}

	if m.screen == ScreenCredentials {
		switch {
		case key.Matches(msg, m.keys.Users):
			if m.userLocked() {
				return nil
			}
			m.openPicker(ScreenUserPicker)
			return nil
		case key.Matches(msg, m.keys.Sessions):
			m.openPicker(ScreenSessionPicker)
			return nil
		case key.Matches(msg, m.keys.Power):
			m.openPower(system.Poweroff)
			return nil
		}
	}

	var cmds []tea.Cmd
	for _, k := range event.FromTea(msg) {
		cmds = append(cmds, m.handleKey(k))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(k event.Key) tea.Cmd {
	switch m.screen {
	case ScreenHelp:
		if k.Code == event.CodeEscape || k.Code == event.CodeEnter || k.Is('q') {
			m.screen = ScreenCredentials
		}
		return nil
	case ScreenError:
		if k.Code == event.CodeEscape || k.Code == event.CodeEnter || k.Is('q') {
			m.dismissError()
		}
		return nil
	case ScreenPowerMenu:
		return m.handlePowerKey(k)
	case ScreenUserPicker, ScreenSessionPicker:
		return m.handlePickerKey(k)
	case ScreenAuthenticating:
		return m.handleBusyKey(k)
	default:
		return m.handleCredentialKey(k)
	}
}

func (m *Model) handleCredentialKey(k event.Key) tea.Cmd {
	act := m.editor.Handle(k, m.focused(), kindOf(m.focus))
	switch act.Kind {
	case vim.ActFocusNext, vim.ActFocusPrev:
		// The user name is fixed once greetd has asked a follow-up question.
		if !m.conversing() {
			m.focusField(1 - m.focus)
		}
	case vim.ActSubmit:
		return m.submit()
	case vim.ActExecute:
		return m.execute(act.Command)
	}
	return nil
}

// handleBusyKey runs while greetd is working: Esc cancels and the command
// line stays available.
func (m *Model) handleBusyKey(k event.Key) tea.Cmd {
	if k.Code == event.CodeEscape && m.editor.Mode() != vim.ModeCommand {
		m.cancelAttempt()
		return nil
	}
	if act := m.editor.Handle(k, nil, vim.FieldText); act.Kind == vim.ActExecute {
		return m.execute(act.Command)
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	if m.conversing() {
		return m.answer()
	}
	if m.focus == fieldUser {
		if strings.TrimSpace(m.username.String()) == "" {
			m.setError("Username is required")
			return nil
		}
		m.focusField(fieldSecret)
		m.editor.BeginInsert()
		return nil
	}
	return m.login()
}

// login starts a fresh attempt for the typed user. The typed password is
// moved out of the field immediately and held until greetd prompts for it.
func (m *Model) login() tea.Cmd {
	if m.busy() {
		m.setStatus("Login already in progress", false)
		return nil
	}
	name := strings.TrimSpace(m.username.String())
	if name == "" {
		m.setError("Username is required")
		m.focusField(fieldUser)
		return nil
	}

	m.pendingSecret.Wipe()
	m.pendingSecret = auth.NewSecret(m.secret.TakeBytes())

	s := auth.NewSession(m.opts.Dial)
	if err := s.Submit(name); err != nil {
		m.pendingSecret.Wipe()
		m.pendingSecret = nil
		m.setError(err.Error())
		return nil
	}
	m.session = s
	m.screen = ScreenAuthenticating
	return event.Listen(s.Replies())
}

// answer sends the secret field in reply to a follow-up prompt.
func (m *Model) answer() tea.Cmd {
	if err := m.session.Answer(auth.NewSecret(m.secret.TakeBytes())); err != nil {
		m.setError(err.Error())
		return nil
	}
	m.screen = ScreenAuthenticating
	return nil
}

// handleReply applies a worker reply. Replies of replaced attempts are
// dropped without re-arming their listener.
func (m *Model) handleReply(r auth.Reply) tea.Cmd {
	if m.session == nil || r.Attempt != m.session.ID() {
		return nil
	}
	next := event.Listen(m.session.Replies())

	up := m.session.Handle(r)
	if !up.Applied {
		return next
	}
	if up.Notice != "" {
		m.setStatus(up.Notice, up.Warning)
	}
	if m.session.Pending() {
		// An informational message was acknowledged; nothing else changed.
		return next
	}

	switch st := up.State; st.Kind {
	case auth.StateAwaitingSecret:
		if m.pendingSecret != nil {
			secret := m.pendingSecret
			m.pendingSecret = nil
			if err := m.session.Answer(secret); err != nil {
				m.session.Cancel()
				m.showError(err.Error())
			}
			return next
		}
		m.prompt = strings.TrimSpace(st.Prompt)
		m.secret.Clear()
		m.secret.SetMasked(st.Masked)
		m.screen = ScreenCredentials
		m.focusField(fieldSecret)
		m.editor.BeginInsert()

	case auth.StateAwaitingSessionStart:
		m.pendingSecret.Wipe()
		m.pendingSecret = nil
		sess, ok := m.SelectedSession()
		if !ok {
			m.session.Cancel()
			m.showError("No session selected")
			return next
		}
		if err := m.session.StartSession(sess.Command(), sess.Env()); err != nil {
			m.session.Cancel()
			m.showError(err.Error())
		}

	case auth.StateAuthenticated:
		m.remember()
		m.done = true
		return tea.Quit

	case auth.StateFailed:
		m.pendingSecret.Wipe()
		m.pendingSecret = nil
		m.showError(st.Reason)
	}
	return next
}

func (m *Model) cancelAttempt() {
	m.pendingSecret.Wipe()
	m.pendingSecret = nil
	if !m.busy() {
		return
	}
	m.session.Cancel()
	m.resetPrompt()
	m.secret.Clear()
	m.screen = ScreenCredentials
	m.focusField(fieldSecret)
	m.editor.BeginInsert()
	m.setStatus("Login cancelled", false)
}

func (m *Model) remember() {
	st, path := m.opts.State, m.opts.StatePath
	if st == nil || path == "" {
		return
	}
	var sessionID string
	if sess, ok := m.SelectedSession(); ok {
		sessionID = sess.ID
	}
	st.Remember(m.session.Username(), sessionID)
	if err := st.Save(path); err != nil {
		logging.Warn("Failed to save greeter state", zap.String("path", path), zap.Error(err))
	}
}

// busyCommands may run while an attempt is in flight.
var busyCommands = map[vim.CommandKind]bool{
	vim.CmdNoOp:     true,
	vim.CmdUnknown:  true,
	vim.CmdCancel:   true,
	vim.CmdQuit:     true,
	vim.CmdReboot:   true,
	vim.CmdPoweroff: true,
}

func (m *Model) execute(cmd vim.Command) tea.Cmd {
	if m.screen == ScreenAuthenticating && !busyCommands[cmd.Kind] {
		m.setStatus("Login in progress; :cancel to abort", false)
		return nil
	}

	switch cmd.Kind {
	case vim.CmdNoOp:
	case vim.CmdUnknown:
		m.setError("Unknown command: " + cmd.Arg)
	case vim.CmdSession:
		if cmd.Arg == "" {
			m.openPicker(ScreenSessionPicker)
			return nil
		}
		i := discovery.Find(m.sessionEntries(), cmd.Arg)
		if i < 0 {
			m.setError("Session not found: " + cmd.Arg)
			return nil
		}
		m.sessionIdx = i
		m.setStatus("Session: "+m.opts.Sessions[i].Label, false)
	case vim.CmdUser:
		if m.userLocked() {
			return nil
		}
		if cmd.Arg == "" {
			m.openPicker(ScreenUserPicker)
			return nil
		}
		i := discovery.Find(m.opts.Users, cmd.Arg)
		if i < 0 {
			m.setError("User not found: " + cmd.Arg)
			return nil
		}
		m.chooseUser(i)
	case vim.CmdReboot:
		m.openPower(system.Reboot)
	case vim.CmdPoweroff:
		m.openPower(system.Poweroff)
	case vim.CmdHelp:
		m.screen = ScreenHelp
	case vim.CmdLogin:
		if m.conversing() {
			return m.answer()
		}
		return m.login()
	case vim.CmdCancel:
		if !m.busy() {
			m.setStatus("Nothing to cancel", false)
			return nil
		}
		m.cancelAttempt()
	case vim.CmdQuit:
		m.cancelAttempt()
		return tea.Quit
	default:
		m.setError(":" + cmd.Kind.String() + " is not available on the login screen")
	}
	return nil
}

func (m *Model) sessionEntries() []discovery.Entry {
	out := make([]discovery.Entry, len(m.opts.Sessions))
	for i, s := range m.opts.Sessions {
		out[i] = s.Entry
	}
	return out
}

func (m *Model) chooseUser(i int) {
	m.username.Set(m.opts.Users[i].ID)
	m.secret.Clear()
	m.focusField(fieldSecret)
}

func (m *Model) pickerList() *ui.List {
	if m.screen == ScreenSessionPicker {
		return m.sessions
	}
	return m.users
}

func (m *Model) openPicker(s Screen) {
	m.screen = s
	m.filter.Clear()
	list := m.pickerList()
	list.SetFilter("")
	if s == ScreenSessionPicker {
		list.Select(m.sessionIdx)
	} else if i := discovery.Find(m.opts.Users, m.username.String()); i >= 0 {
		list.Select(i)
	}
	m.editor.Escape()
	m.editor.Focus(vim.FieldPicker)
}

func (m *Model) closePicker() {
	m.screen = ScreenCredentials
	m.filter.Clear()
	m.editor.Escape()
	m.focusField(m.focus)
	m.editor.BeginInsert()
}

func (m *Model) handlePickerKey(k event.Key) tea.Cmd {
	if k.Code == event.CodeEscape && m.editor.Mode() != vim.ModeCommand {
		m.closePicker()
		return nil
	}

	list := m.pickerList()
	act := m.editor.Handle(k, m.filter, vim.FieldPicker)
	list.SetFilter(m.filter.String())

	switch act.Kind {
	case vim.ActFocusNext:
		list.Next()
	case vim.ActFocusPrev:
		list.Prev()
	case vim.ActSubmit:
		m.pick()
	case vim.ActExecute:
		m.closePicker()
		return m.execute(act.Command)
	}
	return nil
}

func (m *Model) pick() {
	list := m.pickerList()
	i, ok := list.Selected()
	if !ok {
		m.setError("No match for " + m.filter.String())
		m.editor.BeginInsert()
		return
	}
	if m.screen == ScreenSessionPicker {
		m.sessionIdx = i
		m.setStatus("Session: "+m.opts.Sessions[i].Label, false)
	} else {
		m.chooseUser(i)
	}
	m.closePicker()
}

func (m *Model) handleMouse(ev event.Mouse) {
	var delta int
	switch ev.Button {
	case event.WheelDown:
		delta = 1
	case event.WheelUp:
		delta = -1
	default:
		return
	}

	switch m.screen {
	case ScreenUserPicker, ScreenSessionPicker:
		if delta > 0 {
			m.pickerList().Next()
		} else {
			m.pickerList().Prev()
		}
	case ScreenPowerMenu:
		m.movePower(delta)
	}
}

func (m *Model) openPower(preselect system.PowerAction) {
	m.screen = ScreenPowerMenu
	m.powerChoice = 0
	for i, a := range powerChoices {
		if a == preselect {
			m.powerChoice = i
		}
	}
}

// closePower returns to the screen the menu was opened from. :reboot and
// :poweroff stay available while an attempt is in flight.
func (m *Model) closePower() {
	if m.busy() && !m.conversing() {
		m.screen = ScreenAuthenticating
		return
	}
	m.screen = ScreenCredentials
}

// movePower cycles through the power actions plus the trailing Cancel row.
func (m *Model) movePower(delta int) {
	n := len(powerChoices) + 1
	m.powerChoice = (m.powerChoice + delta + n) % n
}

func (m *Model) handlePowerKey(k event.Key) tea.Cmd {
	switch {
	case k.Code == event.CodeEscape || k.Is('n') || k.Is('q'):
		m.closePower()
	case k.Is('j') || k.Code == event.CodeDown || k.Code == event.CodeTab:
		m.movePower(1)
	case k.Is('k') || k.Code == event.CodeUp || k.Code == event.CodeBackTab:
		m.movePower(-1)
	case k.Is('r'):
		return m.power(system.Reboot)
	case k.Is('p'):
		return m.power(system.Poweroff)
	case k.Code == event.CodeEnter || k.Is('y'):
		if m.powerChoice >= len(powerChoices) {
			m.closePower()
			return nil
		}
		return m.power(powerChoices[m.powerChoice])
	}
	return nil
}

func (m *Model) power(a system.PowerAction) tea.Cmd {
	m.closePower()
	if m.opts.Power == nil {
		m.setStatus("Demo mode: would "+a.String(), false)
		return nil
	}
	m.cancelAttempt()
	logging.Info("Power action requested", zap.Stringer("action", a))
	m.setStatus("Requesting "+a.String()+"…", false)

	power := m.opts.Power
	return func() tea.Msg {
		return powerDoneMsg{action: a, err: power(context.Background(), a)}
	}
}
