package system

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hypercube-linux/hypercube-utils/internal/auth"
	"github.com/hypercube-linux/hypercube-utils/internal/executor"
)

// Task ids used by the wizard batch.
const (
	TaskCreateUser    = "create-user"
	TaskSetLocale     = "set-locale"
	TaskSetKeymap     = "set-keymap"
	TaskSetTimezone   = "set-timezone"
	TaskSetNTP        = "set-ntp"
	TaskFinalize      = "finalize-greetd"
	packageTaskPrefix = "pkg-"
)

var usernameRe = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// ValidUsername reports whether u is acceptable to useradd: lowercase
// letters, digits, underscore and dash, starting with a letter or
// underscore.
func ValidUsername(u string) bool {
	return usernameRe.MatchString(u)
}

// ErrEmptyPassword is returned when hashing an empty secret.
var ErrEmptyPassword = errors.New("password is empty")

// HashPassword turns secret into a SHA-512 crypt string and wipes it.
func HashPassword(secret *auth.Secret) (string, error) {
	var hash string
	err := secret.Use(func(b []byte) error {
		if len(b) == 0 {
			return ErrEmptyPassword
		}
		var err error
		hash, err = sha512_crypt.New().Generate(b, nil)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// User describes the account created by the wizard.
type User struct {
	Name   string
	Shell  string
	Groups []string
	// Hash is a crypt(3) string from HashPassword.
	Hash string
}

// Ops builds tasks bound to a Runner.
type Ops struct {
	Runner *Runner
	// GreetdConfig is the path rewritten by Finalize.
	GreetdConfig string
}

// NewOps returns Ops with the default runner and greetd config path.
func NewOps() *Ops {
	return &Ops{Runner: NewRunner(), GreetdConfig: DefaultGreetdConfig}
}

// CreateUser adds the account, then sets its password from the hash via
// chpasswd so the hash never appears on a command line.
func (o *Ops) CreateUser(u User) executor.Task {
	args := []string{"-m", "-s", u.Shell}
	if len(u.Groups) > 0 {
		args = append(args, "-G", strings.Join(u.Groups, ","))
	}
	args = append(args, u.Name)

	return executor.Task{
		ID:      TaskCreateUser,
		Label:   "Create user " + u.Name,
		Command: "useradd " + strings.Join(args, " "),
		Invoke: func(ctx context.Context, progress func(string)) error {
			if !ValidUsername(u.Name) {
				return fmt.Errorf("invalid username %q", u.Name)
			}
			if err := o.Runner.Run(ctx, progress, nil, "useradd", args...); err != nil {
				return err
			}
			progress("Setting password")
			return o.Runner.Run(ctx, progress, []byte(u.Name+":"+u.Hash+"\n"), "chpasswd", "-e")
		},
	}
}

func (o *Ops) simple(id, label string, deps []string, name string, args ...string) executor.Task {
	return executor.Task{
		ID:        id,
		Label:     label,
		DependsOn: deps,
		Command:   name + " " + strings.Join(args, " "),
		Invoke: func(ctx context.Context, progress func(string)) error {
			return o.Runner.Run(ctx, progress, nil, name, args...)
		},
	}
}

// SetLocale sets the system LANG.
func (o *Ops) SetLocale(locale string, deps ...string) executor.Task {
	return o.simple(TaskSetLocale, "Set locale to "+locale, deps, "localectl", "set-locale", "LANG="+locale)
}

// SetKeymap sets the console and X11 keyboard layout.
func (o *Ops) SetKeymap(keymap string, deps ...string) executor.Task {
	return o.simple(TaskSetKeymap, "Set keyboard layout to "+keymap, deps, "localectl", "set-keymap", keymap)
}

// SetTimezone sets the system timezone.
func (o *Ops) SetTimezone(tz string, deps ...string) executor.Task {
	return o.simple(TaskSetTimezone, "Set timezone to "+tz, deps, "timedatectl", "set-timezone", tz)
}

// SetNTP toggles network time synchronization.
func (o *Ops) SetNTP(enabled bool, deps ...string) executor.Task {
	state, label := "false", "Disable network time"
	if enabled {
		state, label = "true", "Enable network time"
	}
	return o.simple(TaskSetNTP, label, deps, "timedatectl", "set-ntp", state)
}

// PackageCommand is one configured install step.
type PackageCommand struct {
	// Key makes the task id unique within the batch.
	Key   string
	Label string
	Argv  []string
	// AsRoot runs the command directly. Otherwise it runs in a login shell
	// of User.
	AsRoot bool
	User   string
}

// PackageTaskID returns the task id for a package command key.
func PackageTaskID(key string) string { return packageTaskPrefix + key }

// RunPackage builds a task for a configured package command.
func (o *Ops) RunPackage(p PackageCommand, deps ...string) executor.Task {
	display := strings.Join(p.Argv, " ")
	if !p.AsRoot {
		display = "su -l " + p.User + " -c " + shellQuote(shellJoin(p.Argv))
	}
	return executor.Task{
		ID:        PackageTaskID(p.Key),
		Label:     p.Label,
		DependsOn: deps,
		Command:   display,
		Invoke: func(ctx context.Context, progress func(string)) error {
			if len(p.Argv) == 0 {
				return errors.New("empty command")
			}
			if p.AsRoot {
				return o.Runner.Run(ctx, progress, nil, p.Argv[0], p.Argv[1:]...)
			}
			return o.Runner.Run(ctx, progress, nil, "su", "-l", p.User, "-c", shellJoin(p.Argv))
		},
	}
}

// Finalize removes greetd's auto-login block so the next boot shows the
// greeter.
func (o *Ops) Finalize(deps ...string) executor.Task {
	return executor.Task{
		ID:        TaskFinalize,
		Label:     "Disable first-boot auto-login",
		DependsOn: deps,
		Command:   "edit " + o.GreetdConfig,
		Invoke: func(_ context.Context, progress func(string)) error {
			removed, err := RemoveInitialSession(o.GreetdConfig)
			if err != nil {
				return err
			}
			if !removed {
				progress("No [initial_session] block present")
			}
			return nil
		},
	}
}
