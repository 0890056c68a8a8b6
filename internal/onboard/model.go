package onboard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/auth"
	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/discovery"
	"github.com/hypercube-linux/hypercube-utils/internal/event"
	"github.com/hypercube-linux/hypercube-utils/internal/executor"
	"github.com/hypercube-linux/hypercube-utils/internal/logging"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
	"github.com/hypercube-linux/hypercube-utils/internal/ui"
	"github.com/hypercube-linux/hypercube-utils/internal/vim"
)

// Phase is the wizard's top-level state.
type Phase int

const (
	PhaseWelcome Phase = iota
	PhaseStep
	PhaseReview
	PhaseExecuting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseWelcome:
		return "welcome"
	case PhaseStep:
		return "step"
	case PhaseReview:
		return "review"
	case PhaseExecuting:
		return "executing"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// StepStatus is shown next to each step in the sidebar.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepDone
	StepSkipped
)

// StepResult records how a step was left.
type StepResult struct {
	Status StepStatus
	Note   string
}

// StatusTimeout is how long a transient status message stays visible.
const StatusTimeout = 4 * time.Second

// PowerFunc reboots or powers off the machine.
type PowerFunc func(ctx context.Context, a system.PowerAction) error

// Options configure a Model.
type Options struct {
	Config  *config.Onboard
	Scanner *discovery.Scanner
	Ops     *system.Ops
	// Power is nil in dry-run mode; the completion action is then only
	// announced.
	Power PowerFunc
	// Exec tunes the coordinator. Simulate is forced on in dry-run mode.
	Exec executor.Options
	Now  func() time.Time
}

type status struct {
	text    string
	isError bool
	until   time.Time
}

type networkStatusMsg struct{ up bool }

type networkDoneMsg struct{ err error }

type powerDoneMsg struct {
	action system.PowerAction
	err    error
}

// Model is the onboarding wizard controller.
type Model struct {
	opts  Options
	cfg   *config.Onboard
	keys  keyMap
	help  help.Model
	demo  bool
	ctx   context.Context
	abort context.CancelFunc

	steps   []config.Step
	results map[config.StepKind]StepResult
	phase   Phase
	current int

	editor *vim.Editor
	form   userForm

	catalogs map[config.StepKind][]discovery.Entry
	lists    map[config.StepKind]*ui.List
	filter   *vim.Buffer
	choices  map[config.StepKind]string

	packages  []packageRow
	pkgCursor int

	networkUp bool

	board   *ui.TaskBoard
	batch   string
	stream  <-chan executor.Message
	planned []executor.Task
	failed  int

	showHelp bool
	status   status
	now      time.Time
	ticks    int
	width    int
	height   int
	outcome  string
}

// New builds the wizard. Picker catalogs come from the configuration when
// it lists values, otherwise from the scanner.
func New(opts Options) *Model {
	if opts.Config == nil {
		opts.Config = config.DefaultOnboard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cfg := opts.Config
	if opts.Scanner == nil {
		opts.Scanner = discovery.NewScanner(cfg.General.DryRun)
	}
	if opts.Ops == nil {
		opts.Ops = system.NewOps()
	}
	if cfg.General.DryRun {
		opts.Exec.Simulate = true
	}

	ctx, abort := context.WithCancel(context.Background())
	m := &Model{
		opts:     opts,
		cfg:      cfg,
		keys:     newKeyMap(),
		help:     help.New(),
		demo:     cfg.General.DryRun,
		ctx:      ctx,
		abort:    abort,
		steps:    cfg.Steps(),
		results:  make(map[config.StepKind]StepResult),
		editor:   vim.NewEditor(vim.ModeNormal),
		form:     newUserForm(),
		catalogs: make(map[config.StepKind][]discovery.Entry),
		lists:    make(map[config.StepKind]*ui.List),
		filter:   vim.NewBuffer(),
		choices:  make(map[config.StepKind]string),
		now:      opts.Now(),
		width:    ui.MinTerminalWidth,
		height:   24,
	}
	m.loadCatalogs()
	m.packages = packageRows(cfg.Updates)
	return m
}

func (m *Model) loadCatalogs() {
	ctx := context.Background()
	sc := m.opts.Scanner
	for _, st := range m.steps {
		var entries []discovery.Entry
		switch st.Kind {
		case config.StepLocale:
			entries = configured(m.cfg.Locale.Available, func() []discovery.Entry { return sc.Locales(ctx) })
		case config.StepKeyboard:
			entries = configured(m.cfg.Keyboard.Available, func() []discovery.Entry { return sc.Keymaps(ctx) })
		case config.StepTimezone:
			entries = sc.Timezones(ctx)
		default:
			continue
		}
		labels := make([]string, len(entries))
		for i, e := range entries {
			labels[i] = e.String()
		}
		m.catalogs[st.Kind] = entries
		m.lists[st.Kind] = ui.NewList(labels)
	}
}

func configured(values []string, scan func() []discovery.Entry) []discovery.Entry {
	if len(values) == 0 {
		return scan()
	}
	out := make([]discovery.Entry, len(values))
	for i, v := range values {
		out[i] = discovery.Entry{ID: v, Label: v}
	}
	return out
}

// Init starts the heartbeat and, when the network step is configured,
// probes connectivity.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{event.Tick()}
	if m.cfg.Network.Enabled {
		cmds = append(cmds, m.checkNetwork())
	}
	return tea.Batch(cmds...)
}

func (m *Model) checkNetwork() tea.Cmd {
	sc := m.opts.Scanner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), discovery.DefaultTimeout)
		defer cancel()
		return networkStatusMsg{up: sc.NetworkUp(ctx)}
	}
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

	case executor.Message:
		return m, m.handleTask(msg)

	case networkStatusMsg:
		m.networkStatus(msg.up)
		return m, nil

	case networkDoneMsg:
		return m, m.networkDone(msg.err)

	case powerDoneMsg:
		if msg.err != nil {
			logging.Error("Completion action failed", zap.Stringer("action", msg.action), zap.Error(msg.err))
			m.setError(fmt.Sprintf("%s failed: %v", msg.action, msg.err))
			return m, nil
		}
		return m, tea.Quit

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

// Phase returns the current top-level state.
func (m *Model) Phase() Phase { return m.phase }

// Step returns the step being shown while in PhaseStep.
func (m *Model) Step() (config.Step, bool) {
	if m.phase != PhaseStep || m.current < 0 || m.current >= len(m.steps) {
		return config.Step{}, false
	}
	return m.steps[m.current], true
}

// Result returns how step kind was left.
func (m *Model) Result(kind config.StepKind) StepResult { return m.results[kind] }

// Choice returns the value picked for kind.
func (m *Model) Choice(kind config.StepKind) (string, bool) {
	v, ok := m.choices[kind]
	return v, ok
}

// Mode returns the editor mode.
func (m *Model) Mode() vim.Mode { return m.editor.Mode() }

// Status returns the transient status line.
func (m *Model) Status() (string, bool) { return m.status.text, m.status.isError }

// Board returns the execution progress, nil before execution starts.
func (m *Model) Board() *ui.TaskBoard { return m.board }

// Planned returns the tasks shown on the review screen.
func (m *Model) Planned() []executor.Task { return m.planned }

// Failed returns the number of tasks that did not succeed.
func (m *Model) Failed() int { return m.failed }

// Outcome describes how the wizard ended, for the caller to report after
// the program exits.
func (m *Model) Outcome() string { return m.outcome }

// HelpVisible reports whether the help overlay is open.
func (m *Model) HelpVisible() bool { return m.showHelp }

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

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		logging.Warn("Setup aborted", zap.Stringer("phase", m.phase))
		m.abort()
		m.outcome = "aborted"
		return tea.Quit
	}

	var cmds []tea.Cmd
	for _, k := range event.FromTea(msg) {
		cmds = append(cmds, m.handleKey(k))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(k event.Key) tea.Cmd {
	if m.showHelp {
		if k.Code == event.CodeEscape || k.Code == event.CodeEnter || k.Is('q') {
			m.showHelp = false
		}
		return nil
	}

	switch m.phase {
	case PhaseStep:
		return m.handleStepKey(k)
	default:
		act := m.editor.Handle(k, nil, vim.FieldText)
		switch act.Kind {
		case vim.ActSubmit:
			return m.submit()
		case vim.ActExecute:
			return m.execute(act.Command)
		}
	}
	return nil
}

func (m *Model) handleMouse(ev event.Mouse) {
	if m.phase != PhaseStep || m.showHelp {
		return
	}
	var delta int
	switch ev.Button {
	case event.WheelDown:
		delta = 1
	case event.WheelUp:
		delta = -1
	default:
		return
	}
	m.move(delta)
}

// submit is Enter outside of a step: begin, apply or finish.
func (m *Model) submit() tea.Cmd {
	switch m.phase {
	case PhaseWelcome:
		m.begin()
	case PhaseReview:
		return m.apply()
	case PhaseDone:
		return m.finish()
	case PhaseExecuting:
		m.setStatus("Setup is running", false)
	}
	return nil
}

func (m *Model) begin() {
	if len(m.steps) == 0 {
		m.review()
		return
	}
	m.enter(0)
}

// review moves to the summary, or back to the first required step that
// is not done.
func (m *Model) review() bool {
	for i, st := range m.steps {
		if st.Required && m.results[st.Kind].Status != StepDone {
			m.enter(i)
			m.setError(st.Title + " must be completed first")
			return false
		}
	}
	m.phase = PhaseReview
	m.editor.Escape()
	m.planned = m.plan("").Tasks(m.opts.Ops)
	return true
}

func (m *Model) plan(hash string) Plan {
	p := Plan{
		User: system.User{
			Name:   m.form.username(),
			Shell:  m.cfg.User.Shell,
			Groups: m.cfg.User.Groups,
			Hash:   hash,
		},
		Choices:  make(map[config.StepKind]string, len(m.choices)),
		NTP:      m.cfg.Preferences.NTPEnabled,
		Finalize: m.cfg.Completion.RemoveInitialSession,
	}
	for k, v := range m.choices {
		p.Choices[k] = v
	}
	if m.results[config.StepPackages].Status == StepDone {
		for _, row := range m.packages {
			if row.selected {
				p.Packages = append(p.Packages, SelectedPackage{Category: row.category, Item: row.item})
			}
		}
	}
	return p
}

// apply shows the review first. From the review it hashes the password,
// builds every task and starts them as one batch.
func (m *Model) apply() tea.Cmd {
	if m.phase != PhaseReview {
		m.review()
		return nil
	}

	hash, err := system.HashPassword(auth.NewSecret(m.form.takePassword()))
	if err != nil {
		m.results[config.StepUser] = StepResult{}
		m.review()
		m.setError(err.Error())
		return nil
	}

	tasks := m.plan(hash).Tasks(m.opts.Ops)
	coord := executor.New(m.opts.Exec)
	if err := coord.Enqueue(tasks...); err != nil {
		logging.Error("Failed to build setup batch", zap.Error(err))
		m.results[config.StepUser] = StepResult{}
		m.review()
		m.setError("Cannot start setup: " + err.Error())
		return nil
	}
	ch, err := coord.Start(m.ctx)
	if err != nil {
		m.setError("Cannot start setup: " + err.Error())
		return nil
	}

	m.board = ui.NewTaskBoard()
	for _, t := range tasks {
		m.board.Add(t.ID, t.Label, t.Command)
	}
	m.batch = coord.Batch()
	m.stream = ch
	m.phase = PhaseExecuting
	logging.Info("Setup started",
		zap.String("batch", m.batch),
		zap.Int("tasks", len(tasks)),
		zap.Bool("simulated", coord.Simulated()))
	return event.Listen(ch)
}

func (m *Model) handleTask(msg executor.Message) tea.Cmd {
	if msg.Batch != m.batch || m.board == nil {
		return nil
	}

	switch msg.Kind {
	case executor.MsgStarted:
		m.board.Update(msg.TaskID, ui.TaskRunning, "")
	case executor.MsgProgress:
		m.board.Update(msg.TaskID, ui.TaskRunning, msg.Text)
	case executor.MsgCompleted:
		switch {
		case msg.Outcome.OK:
			m.board.Update(msg.TaskID, ui.TaskDone, "")
		case msg.Outcome.Skipped():
			m.failed++
			m.board.Update(msg.TaskID, ui.TaskSkipped, msg.Outcome.Message)
		default:
			m.failed++
			m.board.Update(msg.TaskID, ui.TaskFailed, msg.Outcome.Message)
		}
	case executor.MsgAllDone:
		m.phase = PhaseDone
		m.editor.Escape()
		logging.Info("Setup finished", zap.String("batch", m.batch), zap.Int("failed", m.failed))
		return nil
	}
	return event.Listen(m.stream)
}

// finish runs the configured completion action.
func (m *Model) finish() tea.Cmd {
	if m.phase != PhaseDone {
		m.setStatus("Setup is not finished", false)
		return nil
	}
	if m.cfg.Completion.Action == config.ActionExit {
		m.outcome = "exit"
		return tea.Quit
	}
	return m.power(system.Reboot)
}

func (m *Model) power(a system.PowerAction) tea.Cmd {
	if m.opts.Power == nil {
		m.outcome = "demo: would " + a.String()
		return tea.Quit
	}
	m.outcome = a.String()
	logging.Info("Power action requested", zap.Stringer("action", a))
	m.setStatus("Requesting "+a.String()+"…", false)
	power := m.opts.Power
	return func() tea.Msg {
		return powerDoneMsg{action: a, err: power(context.Background(), a)}
	}
}

func (m *Model) execute(cmd vim.Command) tea.Cmd {
	busy := m.phase == PhaseExecuting

	switch cmd.Kind {
	case vim.CmdNoOp:
	case vim.CmdUnknown:
		m.setError("Unknown command: " + cmd.Arg)
	case vim.CmdHelp:
		m.showHelp = true
	case vim.CmdStart:
		if m.phase != PhaseWelcome {
			m.setStatus("Setup already started", false)
			return nil
		}
		m.begin()
	case vim.CmdNext:
		switch m.phase {
		case PhaseWelcome:
			m.begin()
		case PhaseStep:
			return m.complete()
		case PhaseReview:
			m.setStatus("Use :apply to start setup", false)
		case PhaseDone:
			m.setStatus("Press enter or :finish to continue", false)
		default:
			m.setStatus("Setup is running", false)
		}
	case vim.CmdBack:
		m.back()
	case vim.CmdSkip:
		m.skip()
	case vim.CmdApply:
		switch m.phase {
		case PhaseWelcome, PhaseStep, PhaseReview:
			return m.apply()
		default:
			m.setStatus("Setup already applied", false)
		}
	case vim.CmdFinish:
		return m.finish()
	case vim.CmdQuit:
		if busy {
			m.setError("Setup is running; wait for it to finish")
			return nil
		}
		m.outcome = "quit"
		m.abort()
		return tea.Quit
	case vim.CmdReboot, vim.CmdPoweroff:
		if busy {
			m.setError("Setup is running; wait for it to finish")
			return nil
		}
		if cmd.Kind == vim.CmdReboot {
			return m.power(system.Reboot)
		}
		return m.power(system.Poweroff)
	default:
		m.setError(":" + cmd.Kind.String() + " is not available in setup")
	}
	return nil
}

func (m *Model) back() {
	switch m.phase {
	case PhaseStep:
		if m.current == 0 {
			m.phase = PhaseWelcome
			m.editor.Escape()
			return
		}
		m.enter(m.current - 1)
	case PhaseReview:
		if len(m.steps) == 0 {
			m.phase = PhaseWelcome
			return
		}
		m.enter(len(m.steps) - 1)
	case PhaseWelcome:
		m.setStatus("Already at the first screen", false)
	default:
		m.setError("Cannot go back once setup has started")
	}
}

func (m *Model) skip() {
	st, ok := m.Step()
	if !ok {
		m.setError("Nothing to skip")
		return
	}
	if st.Required {
		m.setError(st.Title + " is required and cannot be skipped")
		return
	}
	delete(m.choices, st.Kind)
	m.results[st.Kind] = StepResult{Status: StepSkipped}
	m.advance()
}

// advance moves past the current step, to the review after the last one.
func (m *Model) advance() {
	if m.current+1 >= len(m.steps) {
		m.review()
		return
	}
	m.enter(m.current + 1)
}

// Shutdown abandons a running batch. Real commands in flight are left to
// finish.
func (m *Model) Shutdown() {
	m.abort()
}
