package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hypercube-linux/hypercube-utils/internal/logging"
)

// Defaults for Options.
const (
	DefaultConcurrency  = 2
	DefaultSimulateStep = 400 * time.Millisecond
	DefaultSimulateN    = 3
)

// Options configure a Coordinator.
type Options struct {
	// Simulate fabricates progress instead of calling Task.Invoke.
	Simulate bool
	// SimulateStep is the interval between fabricated progress lines.
	SimulateStep time.Duration
	// SimulateSteps is the number of fabricated progress lines per task.
	SimulateSteps int
	// Concurrency bounds the number of tasks running at once.
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.SimulateStep <= 0 {
		o.SimulateStep = DefaultSimulateStep
	}
	if o.SimulateSteps <= 0 {
		o.SimulateSteps = DefaultSimulateN
	}
	return o
}

// Coordinator schedules one batch of tasks. Enqueue and Start must be
// called from the same goroutine.
type Coordinator struct {
	opts    Options
	batch   string
	tasks   []Task
	index   map[string]int
	started bool
}

// New returns an empty coordinator.
func New(opts Options) *Coordinator {
	return &Coordinator{
		opts:  opts.withDefaults(),
		batch: uuid.NewString(),
		index: make(map[string]int),
	}
}

// Batch identifies this coordinator's messages.
func (c *Coordinator) Batch() string { return c.batch }

// Simulated reports whether invocations are replaced by fabricated progress.
func (c *Coordinator) Simulated() bool { return c.opts.Simulate }

// Tasks returns the enqueued tasks in order.
func (c *Coordinator) Tasks() []Task {
	return append([]Task(nil), c.tasks...)
}

// Enqueue adds tasks to the batch. Either all tasks are accepted or none
// are. An empty call does nothing.
func (c *Coordinator) Enqueue(tasks ...Task) error {
	if c.started {
		return ErrStarted
	}
	if len(tasks) == 0 {
		return nil
	}

	combined := append(append([]Task(nil), c.tasks...), tasks...)
	index := make(map[string]int, len(combined))
	for i, t := range combined {
		if t.ID == "" {
			return fmt.Errorf("task %d has an empty id", i)
		}
		if _, dup := index[t.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
		}
		index[t.ID] = i
	}
	for _, t := range combined {
		for _, dep := range t.DependsOn {
			if _, ok := index[dep]; !ok {
				return fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, t.ID, dep)
			}
		}
	}
	if id, ok := findCycle(combined, index); ok {
		return fmt.Errorf("%w involving %s", ErrCycle, id)
	}

	c.tasks = combined
	c.index = index
	return nil
}

// findCycle runs Kahn's algorithm and returns a task left over when the
// graph is not acyclic.
func findCycle(tasks []Task, index map[string]int) (string, bool) {
	indegree := make([]int, len(tasks))
	dependents := make([][]int, len(tasks))
	for i, t := range tasks {
		for _, dep := range t.DependsOn {
			indegree[i]++
			j := index[dep]
			dependents[j] = append(dependents[j], i)
		}
	}

	queue := make([]int, 0, len(tasks))
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	seen := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		seen++
		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if seen == len(tasks) {
		return "", false
	}
	for i, d := range indegree {
		if d > 0 {
			return tasks[i].ID, true
		}
	}
	return "", true
}

// Start launches the batch and returns its message stream. Cancelling ctx
// abandons simulated tasks and stops new tasks from starting; real
// invocations already running are allowed to finish.
func (c *Coordinator) Start(ctx context.Context) (<-chan Message, error) {
	if c.started {
		return nil, ErrStarted
	}
	c.started = true

	out := make(chan Message, 16)
	s := newScheduler(c.batch, c.opts, c.tasks, c.index, out)
	go s.run(ctx)
	return out, nil
}

type update struct {
	task     int
	progress string
	done     bool
	err      error
}

type scheduler struct {
	batch      string
	opts       Options
	tasks      []Task
	status     []Status
	waiting    []int   // unfinished dependencies per task
	dependents [][]int // reverse edges
	out        chan<- Message
	updates    chan update
}

func newScheduler(batch string, opts Options, tasks []Task, index map[string]int, out chan<- Message) *scheduler {
	s := &scheduler{
		batch:      batch,
		opts:       opts,
		tasks:      tasks,
		status:     make([]Status, len(tasks)),
		waiting:    make([]int, len(tasks)),
		dependents: make([][]int, len(tasks)),
		out:        out,
		updates:    make(chan update),
	}
	for i, t := range tasks {
		for _, dep := range t.DependsOn {
			s.waiting[i]++
			j := index[dep]
			s.dependents[j] = append(s.dependents[j], i)
		}
	}
	return s
}

func (s *scheduler) emit(ctx context.Context, m Message) {
	m.Batch = s.batch
	select {
	case s.out <- m:
	case <-ctx.Done():
	}
}

func (s *scheduler) run(ctx context.Context) {
	defer close(s.out)

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)

	var ready []int
	for i := range s.tasks {
		if s.waiting[i] == 0 {
			ready = append(ready, i)
		}
	}

	finished, running := 0, 0
	for finished < len(s.tasks) {
		for len(ready) > 0 && running < s.opts.Concurrency && ctx.Err() == nil {
			i := ready[0]
			ready = ready[1:]
			s.status[i] = StatusRunning
			running++
			logging.LogTaskEvent(s.tasks[i].ID, "started", zap.Bool("simulated", s.opts.Simulate))
			s.emit(ctx, Message{Kind: MsgStarted, TaskID: s.tasks[i].ID})
			s.launch(ctx, &g, i)
		}

		if running == 0 {
			// Only reachable after ctx was cancelled with work left.
			for i, st := range s.status {
				if st == StatusPending {
					s.status[i] = StatusFailed
					finished++
					s.emit(ctx, Message{Kind: MsgCompleted, TaskID: s.tasks[i].ID, Outcome: Failed("cancelled")})
				}
			}
			break
		}

		u := <-s.updates
		id := s.tasks[u.task].ID
		if !u.done {
			s.emit(ctx, Message{Kind: MsgProgress, TaskID: id, Text: u.progress})
			continue
		}

		running--
		finished++
		if u.err != nil {
			s.status[u.task] = StatusFailed
			logging.LogTaskEvent(id, "failed", zap.Error(u.err))
			s.emit(ctx, Message{Kind: MsgCompleted, TaskID: id, Outcome: Failed(u.err.Error())})
			finished += s.skipDependents(ctx, u.task)
			continue
		}

		s.status[u.task] = StatusSucceeded
		logging.LogTaskEvent(id, "succeeded")
		s.emit(ctx, Message{Kind: MsgCompleted, TaskID: id, Outcome: Succeeded()})
		for _, d := range s.dependents[u.task] {
			s.waiting[d]--
			if s.waiting[d] == 0 && s.status[d] == StatusPending {
				ready = append(ready, d)
			}
		}
	}

	_ = g.Wait()
	s.emit(ctx, Message{Kind: MsgAllDone})
}

// skipDependents fails everything downstream of task that has not run and
// returns how many tasks it completed.
func (s *scheduler) skipDependents(ctx context.Context, task int) int {
	n := 0
	queue := append([]int(nil), s.dependents[task]...)
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		if s.status[d] != StatusPending {
			continue
		}
		s.status[d] = StatusFailed
		n++
		logging.LogTaskEvent(s.tasks[d].ID, "skipped")
		s.emit(ctx, Message{Kind: MsgCompleted, TaskID: s.tasks[d].ID, Outcome: Failed(SkippedMessage)})
		queue = append(queue, s.dependents[d]...)
	}
	return n
}

func (s *scheduler) launch(ctx context.Context, g *errgroup.Group, i int) {
	t := s.tasks[i]
	progress := func(line string) {
		s.updates <- update{task: i, progress: line}
	}

	g.Go(func() error {
		var err error
		if s.opts.Simulate {
			err = simulate(ctx, t, s.opts, progress)
		} else {
			err = invoke(context.WithoutCancel(ctx), t, progress)
		}
		s.updates <- update{task: i, done: true, err: err}
		return nil
	})
}

func invoke(ctx context.Context, t Task, progress func(string)) (err error) {
	if t.Invoke == nil {
		return fmt.Errorf("task %s has nothing to run", t.ID)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.ID, r)
		}
	}()
	return t.Invoke(ctx, progress)
}

func simulate(ctx context.Context, t Task, opts Options, progress func(string)) error {
	what := t.Command
	if what == "" {
		what = t.Label
	}
	ticker := time.NewTicker(opts.SimulateStep)
	defer ticker.Stop()
	for n := 1; n <= opts.SimulateSteps; n++ {
		select {
		case <-ticker.C:
			progress(fmt.Sprintf("[dry run] %s (%d/%d)", what, n, opts.SimulateSteps))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
