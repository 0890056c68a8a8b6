package auth

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/greetd"
	"github.com/hypercube-linux/hypercube-utils/internal/logging"
)

var (
	// ErrInvalidState is returned when an operation does not fit the
	// current state, or a request is already outstanding.
	ErrInvalidState = errors.New("operation not valid in current auth state")
	// ErrEmptyUsername is returned by Submit for a blank user name.
	ErrEmptyUsername = errors.New("username is empty")
	// ErrNoCommand is returned by StartSession without a command.
	ErrNoCommand = errors.New("session command is empty")
)

// DefaultFailure is shown when the service rejects a login without saying why.
const DefaultFailure = "Authentication failed"

// Dialer opens a transport for one attempt. It runs on the worker goroutine.
type Dialer func(ctx context.Context) (greetd.Transport, error)

type op int

const (
	opCreate op = iota
	opRespond
	opStart
	opCancel
)

var opNames = [...]string{"create_session", "respond", "start_session", "cancel_session"}

func (o op) String() string { return opNames[o] }

type request struct {
	op       op
	username string
	secret   *Secret
	cmd      []string
	env      []string
}

// Reply is the worker's answer to one request. Controllers deliver it back
// to the Session through Handle.
type Reply struct {
	Attempt string
	op      op
	Reply   greetd.Reply
	Err     error
}

// Update reports the effect of Handle.
type Update struct {
	// Applied is false when the reply belonged to a finished or replaced
	// attempt and was dropped.
	Applied bool
	State   State
	// Notice is informational text from the service, to be shown without
	// changing state.
	Notice  string
	Warning bool
}

// Session is one login attempt. Its methods must be called from a single
// goroutine.
type Session struct {
	id        string
	username  string
	dial      Dialer
	state     State
	pending   bool
	reqs      chan request
	replies   chan Reply
	cancelled *atomic.Bool
}

// NewSession returns an idle attempt that will connect with dial.
func NewSession(dial Dialer) *Session {
	return &Session{
		id:        uuid.NewString(),
		dial:      dial,
		cancelled: new(atomic.Bool),
	}
}

// ID identifies the attempt. Replies carry it.
func (s *Session) ID() string { return s.id }

// Username returns the name passed to Submit.
func (s *Session) Username() string { return s.username }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Pending reports whether a request is outstanding.
func (s *Session) Pending() bool { return s.pending }

// Replies delivers worker replies. It is nil before Submit and is closed
// once the worker exits.
func (s *Session) Replies() <-chan Reply { return s.replies }

// Submit starts the attempt for username.
func (s *Session) Submit(username string) error {
	if s.state.Kind != StateIdle {
		return ErrInvalidState
	}
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}

	s.username = username
	s.state = State{Kind: StateConnecting}
	s.reqs = make(chan request, 2)
	s.replies = make(chan Reply, 4)
	go work(s.id, s.dial, s.reqs, s.replies, s.cancelled)

	logging.LogAuthEvent(s.id, username, "submit")
	s.send(request{op: opCreate, username: username})
	return nil
}

// Answer sends secret in response to the current prompt. The secret is
// wiped on every path, including when ErrInvalidState is returned.
func (s *Session) Answer(secret *Secret) error {
	if s.state.Kind != StateAwaitingSecret || s.pending {
		secret.Wipe()
		return ErrInvalidState
	}
	if secret == nil {
		secret = NewSecret([]byte{})
	}
	logging.LogAuthEvent(s.id, s.username, "answer", zap.Int("length", secret.Len()))
	s.send(request{op: opRespond, secret: secret})
	return nil
}

// StartSession asks the service to launch cmd with env once authenticated.
func (s *Session) StartSession(cmd, env []string) error {
	if s.state.Kind != StateAwaitingSessionStart || s.pending {
		return ErrInvalidState
	}
	if len(cmd) == 0 {
		return ErrNoCommand
	}
	logging.LogAuthEvent(s.id, s.username, "start_session", zap.Strings("cmd", cmd))
	s.send(request{op: opStart, cmd: cmd, env: env})
	return nil
}

// Cancel abandons the attempt. An exchange already in flight is left to
// finish and its reply is discarded. Cancelling a terminal attempt does
// nothing.
func (s *Session) Cancel() {
	if s.state.Terminal() {
		return
	}
	if s.state.Kind == StateIdle {
		s.state = State{Kind: StateCancelled}
		return
	}
	s.state = State{Kind: StateCancelled}
	s.pending = false
	logging.LogAuthEvent(s.id, s.username, "cancel")
	s.finish(true)
}

// Handle applies a worker reply.
func (s *Session) Handle(r Reply) Update {
	if r.Attempt != s.id || s.state.Terminal() || !s.pending || r.op == opCancel {
		return Update{State: s.state}
	}
	s.pending = false

	if r.Err != nil {
		logging.Warn("Auth transport failure", zap.String("attempt", s.id), zap.Error(r.Err))
		s.fail(r.Err.Error())
		return Update{Applied: true, State: s.state}
	}

	rep := r.Reply
	up := Update{Applied: true}

	switch r.op {
	case opCreate, opRespond:
		switch rep.Kind {
		case greetd.ReplyPrompt:
			s.state = State{Kind: StateAwaitingSecret, Prompt: rep.Text, Masked: rep.Secret}
			logging.LogAuthEvent(s.id, s.username, "prompt", zap.Bool("masked", rep.Secret))
		case greetd.ReplyInfo:
			up.Notice, up.Warning = rep.Text, rep.Warning
			s.send(request{op: opRespond})
		case greetd.ReplySuccess:
			s.state = State{Kind: StateAwaitingSessionStart}
			logging.LogAuthEvent(s.id, s.username, "authenticated")
		case greetd.ReplyError:
			s.fail(rep.Text)
		}
	case opStart:
		switch rep.Kind {
		case greetd.ReplySuccess:
			s.state = State{Kind: StateAuthenticated}
			logging.LogAuthEvent(s.id, s.username, "session_started")
			s.finish(false)
		case greetd.ReplyError:
			s.fail(rep.Text)
		default:
			s.fail("unexpected " + rep.Kind.String() + " reply to start_session")
		}
	}

	up.State = s.state
	return up
}

func (s *Session) fail(reason string) {
	if reason == "" {
		reason = DefaultFailure
	}
	s.state = State{Kind: StateFailed, Reason: reason}
	logging.LogAuthEvent(s.id, s.username, "failed", zap.String("reason", reason))
	s.finish(true)
}

// send hands req to the worker. The request channel always has room: at
// most one request is outstanding plus the final cancel.
func (s *Session) send(req request) {
	if s.reqs == nil {
		req.secret.Wipe()
		return
	}
	select {
	case s.reqs <- req:
		if req.op != opCancel {
			s.pending = true
		}
	default:
		req.secret.Wipe()
	}
}

// finish tears the worker down, optionally asking the service to drop the
// session first.
func (s *Session) finish(cancel bool) {
	if s.reqs == nil {
		return
	}
	s.cancelled.Store(true)
	if cancel {
		s.send(request{op: opCancel})
	}
	close(s.reqs)
	s.reqs = nil
}

// work runs the attempt's exchanges in order until reqs is closed.
func work(id string, dial Dialer, reqs <-chan request, out chan<- Reply, cancelled *atomic.Bool) {
	defer close(out)

	ctx := context.Background()
	var t greetd.Transport
	defer func() {
		if t != nil {
			_ = t.Close()
		}
	}()

	for req := range reqs {
		if req.op != opCancel && cancelled.Load() {
			req.secret.Wipe()
			continue
		}
		if t == nil {
			if req.op == opCancel {
				continue
			}
			var err error
			if t, err = dial(ctx); err != nil {
				t = nil
				req.secret.Wipe()
				out <- Reply{Attempt: id, op: req.op, Err: err}
				for rest := range reqs {
					rest.secret.Wipe()
				}
				return
			}
		}

		rep, err := exchange(ctx, t, req)
		if req.op == opCancel && err != nil {
			logging.Warn("Best-effort cancel failed", zap.String("attempt", id), zap.Error(err))
		}
		out <- Reply{Attempt: id, op: req.op, Reply: rep, Err: err}
	}
}

func exchange(ctx context.Context, t greetd.Transport, req request) (greetd.Reply, error) {
	switch req.op {
	case opCreate:
		return t.CreateSession(ctx, req.username)
	case opRespond:
		var rep greetd.Reply
		err := req.secret.Use(func(b []byte) error {
			var err error
			rep, err = t.Respond(ctx, b)
			return err
		})
		return rep, err
	case opStart:
		return t.StartSession(ctx, req.cmd, req.env)
	default:
		return t.CancelSession(ctx)
	}
}
