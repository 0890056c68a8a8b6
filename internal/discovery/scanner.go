package discovery

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/logging"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
)

// DefaultTimeout bounds each lookup command.
const DefaultTimeout = 10 * time.Second

// OutputFunc runs a program and returns its stdout.
type OutputFunc func(ctx context.Context, name string, args ...string) (string, error)

// Scanner looks up system catalogs.
type Scanner struct {
	Demo    bool
	Timeout time.Duration
	Output  OutputFunc
}

// NewScanner returns a Scanner that shells out through a system.Runner,
// or returns fixed lists when demo is set.
func NewScanner(demo bool) *Scanner {
	r := &system.Runner{Timeout: DefaultTimeout}
	return &Scanner{Demo: demo, Timeout: DefaultTimeout, Output: r.Output}
}

func (s *Scanner) list(ctx context.Context, fallback []string, name string, args ...string) []Entry {
	if s.Demo {
		return entriesOf(fallback)
	}
	out, err := s.Output(ctx, name, args...)
	if err != nil {
		logging.Warn("Catalog lookup failed, using built-in list",
			zap.String("command", name), zap.Error(err))
		return entriesOf(fallback)
	}
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	if len(ids) == 0 {
		return entriesOf(fallback)
	}
	return entriesOf(ids)
}

// Locales lists installed locales.
func (s *Scanner) Locales(ctx context.Context) []Entry {
	return s.list(ctx, demoLocales, "localectl", "list-locales")
}

// Keymaps lists console keymaps.
func (s *Scanner) Keymaps(ctx context.Context) []Entry {
	return s.list(ctx, demoKeymaps, "localectl", "list-keymaps")
}

// Timezones lists timezone names.
func (s *Scanner) Timezones(ctx context.Context) []Entry {
	return s.list(ctx, demoTimezones, "timedatectl", "list-timezones")
}

// NetworkUp reports whether a well-known address answers a ping.
func (s *Scanner) NetworkUp(ctx context.Context) bool {
	if s.Demo {
		return true
	}
	_, err := s.Output(ctx, "ping", "-c", "1", "-W", "2", "1.1.1.1")
	return err == nil
}

// Users lists login accounts, or demo accounts in demo mode.
func (s *Scanner) Users() []Entry {
	if s.Demo {
		return append([]Entry(nil), demoUsers...)
	}
	users, err := LoadUsers(PasswdPath, LoginDefsPath)
	if err != nil {
		logging.Warn("User lookup failed", zap.Error(err))
		return nil
	}
	return users
}

// Sessions lists desktop sessions, or demo sessions in demo mode.
func (s *Scanner) Sessions() []Session {
	if s.Demo {
		return append([]Session(nil), demoSessions...)
	}
	return LoadSessions(DataDirs())
}

var demoLocales = []string{
	"en_US.UTF-8", "en_GB.UTF-8", "de_DE.UTF-8", "fr_FR.UTF-8", "es_ES.UTF-8",
	"it_IT.UTF-8", "pt_BR.UTF-8", "ja_JP.UTF-8", "zh_CN.UTF-8", "ko_KR.UTF-8",
}

var demoKeymaps = []string{
	"us", "uk", "de", "de-latin1", "fr", "es", "it", "jp106", "dvorak", "colemak",
}

var demoTimezones = []string{
	"UTC", "America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles",
	"Europe/London", "Europe/Berlin", "Europe/Paris", "Asia/Tokyo", "Asia/Shanghai",
	"Australia/Sydney",
}

var demoUsers = []Entry{
	{ID: "alice", Label: "Alice Liddell (alice)"},
	{ID: "bob", Label: "bob"},
	{ID: "mfa", Label: "Two-factor demo (mfa)"},
}

var demoSessions = []Session{
	{Entry: Entry{ID: "hyprland", Label: "Hyprland"}, Exec: "Hyprland", Type: Wayland, DesktopNames: []string{"Hyprland"}},
	{Entry: Entry{ID: "sway", Label: "Sway"}, Exec: "sway", Type: Wayland, DesktopNames: []string{"sway"}},
	{Entry: Entry{ID: "i3", Label: "i3"}, Exec: "i3", Type: X11, DesktopNames: []string{"i3"}},
}
