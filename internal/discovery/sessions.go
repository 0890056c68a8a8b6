package discovery

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/logging"
)

// SessionType is the display server a session runs on.
type SessionType string

const (
	Wayland SessionType = "wayland"
	X11     SessionType = "x11"
)

// Session is a launchable desktop session.
type Session struct {
	Entry
	Exec         string
	Type         SessionType
	DesktopNames []string
}

// Command splits Exec into argv, dropping desktop-entry field codes.
func (s Session) Command() []string {
	argv, err := shlex.Split(s.Exec)
	if err != nil || len(argv) == 0 {
		return []string{s.Exec}
	}
	out := argv[:0]
	for _, a := range argv {
		if len(a) == 2 && a[0] == '%' {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Env returns the variables greetd should set for the session.
func (s Session) Env() []string {
	env := []string{"XDG_SESSION_TYPE=" + string(s.Type)}
	if len(s.DesktopNames) > 0 {
		env = append(env, "XDG_CURRENT_DESKTOP="+strings.Join(s.DesktopNames, ":"))
	}
	return env
}

// DataDirs returns $XDG_DATA_DIRS or its default.
func DataDirs() []string {
	v := os.Getenv("XDG_DATA_DIRS")
	if v == "" {
		v = "/usr/local/share:/usr/share"
	}
	var dirs []string
	for _, d := range strings.Split(v, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// LoadSessions scans dataDirs for session files. A slug found in an earlier
// directory shadows later ones. The result is sorted by name.
func LoadSessions(dataDirs []string) []Session {
	seen := make(map[string]bool)
	var sessions []Session
	for _, dir := range dataDirs {
		for _, sub := range []struct {
			name string
			typ  SessionType
		}{{"wayland-sessions", Wayland}, {"xsessions", X11}} {
			paths, _ := filepath.Glob(filepath.Join(dir, sub.name, "*.desktop"))
			for _, p := range paths {
				slug := strings.TrimSuffix(filepath.Base(p), ".desktop")
				if seen[slug] {
					continue
				}
				s, ok := loadDesktopFile(p, slug, sub.typ)
				if !ok {
					continue
				}
				seen[slug] = true
				sessions = append(sessions, s)
			}
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return strings.ToLower(sessions[i].Label) < strings.ToLower(sessions[j].Label)
	})
	return sessions
}

func loadDesktopFile(path, slug string, typ SessionType) (Session, bool) {
	f, err := os.Open(path)
	if err != nil {
		logging.Warn("Failed to read session file", zap.String("path", path), zap.Error(err))
		return Session{}, false
	}
	defer f.Close()

	keys := ParseDesktopEntry(f)
	if keys["Hidden"] == "true" || keys["NoDisplay"] == "true" {
		return Session{}, false
	}
	name, exec := keys["Name"], keys["Exec"]
	if name == "" || exec == "" {
		return Session{}, false
	}

	var desktops []string
	for _, d := range strings.Split(keys["DesktopNames"], ";") {
		if d = strings.TrimSpace(d); d != "" {
			desktops = append(desktops, d)
		}
	}
	return Session{
		Entry:        Entry{ID: slug, Label: name},
		Exec:         exec,
		Type:         typ,
		DesktopNames: desktops,
	}, true
}

// ParseDesktopEntry returns the unlocalized keys of the [Desktop Entry]
// group.
func ParseDesktopEntry(r io.Reader) map[string]string {
	keys := make(map[string]string)
	inGroup := false
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inGroup = line == "[Desktop Entry]"
			continue
		}
		if !inGroup {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if strings.Contains(k, "[") {
			continue
		}
		if _, dup := keys[k]; !dup {
			keys[k] = strings.TrimSpace(v)
		}
	}
	return keys
}
