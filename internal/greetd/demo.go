package greetd

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// DemoPassword is the only credential Demo accepts.
const DemoPassword = "demo"

// DemoMFAUser triggers a second, visible prompt after the password.
const DemoMFAUser = "mfa"

// DemoCode answers the second prompt for DemoMFAUser.
const DemoCode = "123456"

type demoStage int

const (
	demoIdle demoStage = iota
	demoPassword
	demoCode
	demoAuthenticated
)

// Demo is an in-process Transport that imitates greetd without touching the
// system. It is used for --dryrun.
type Demo struct {
	// Delay simulates PAM latency on each exchange.
	Delay time.Duration

	mu       sync.Mutex
	stage    demoStage
	username string
	Started  []string
}

// NewDemo returns a Demo with a short artificial delay.
func NewDemo() *Demo {
	return &Demo{Delay: 400 * time.Millisecond}
}

func (d *Demo) wait(ctx context.Context) error {
	if d.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(d.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return classify("request cancelled", ctx.Err())
	}
}

// CreateSession implements Transport.
func (d *Demo) CreateSession(ctx context.Context, username string) (Reply, error) {
	if err := d.wait(ctx); err != nil {
		return Reply{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stage != demoIdle {
		return Reply{Kind: ReplyError, Text: "a session is already being configured"}, nil
	}
	d.stage = demoPassword
	d.username = username
	return Reply{Kind: ReplyPrompt, Text: "Password: ", Secret: true}, nil
}

// Respond implements Transport.
func (d *Demo) Respond(ctx context.Context, response []byte) (Reply, error) {
	if err := d.wait(ctx); err != nil {
		return Reply{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.stage {
	case demoPassword:
		if subtle.ConstantTimeCompare(response, []byte(DemoPassword)) != 1 {
			d.stage = demoIdle
			return Reply{Kind: ReplyError, Text: "Authentication failed", AuthFailure: true}, nil
		}
		if d.username == DemoMFAUser {
			d.stage = demoCode
			return Reply{Kind: ReplyPrompt, Text: "Verification code: "}, nil
		}
		d.stage = demoAuthenticated
		return Reply{Kind: ReplySuccess}, nil
	case demoCode:
		if subtle.ConstantTimeCompare(response, []byte(DemoCode)) != 1 {
			d.stage = demoIdle
			return Reply{Kind: ReplyError, Text: "Invalid verification code", AuthFailure: true}, nil
		}
		d.stage = demoAuthenticated
		return Reply{Kind: ReplySuccess}, nil
	default:
		return Reply{Kind: ReplyError, Text: "no authentication in progress"}, nil
	}
}

// StartSession implements Transport.
func (d *Demo) StartSession(ctx context.Context, cmd, env []string) (Reply, error) {
	if err := d.wait(ctx); err != nil {
		return Reply{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stage != demoAuthenticated {
		return Reply{Kind: ReplyError, Text: "session is not authenticated"}, nil
	}
	d.Started = append(d.Started, cmd...)
	d.stage = demoIdle
	return Reply{Kind: ReplySuccess}, nil
}

// CancelSession implements Transport.
func (d *Demo) CancelSession(context.Context) (Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stage = demoIdle
	return Reply{Kind: ReplySuccess}, nil
}

// Close implements Transport.
func (d *Demo) Close() error { return nil }
