package discovery

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Default paths and UID bounds.
const (
	PasswdPath    = "/etc/passwd"
	LoginDefsPath = "/etc/login.defs"
	DefaultUIDMin = 1000
	DefaultUIDMax = 60000
)

var hiddenUsers = map[string]bool{"nobody": true, "nfsnobody": true, "greeter": true}

// UIDRange is the span of UIDs belonging to human accounts.
type UIDRange struct {
	Min, Max int
}

// ParseLoginDefs reads UID_MIN and UID_MAX, keeping defaults for anything
// missing or malformed.
func ParseLoginDefs(r io.Reader) UIDRange {
	rng := UIDRange{Min: DefaultUIDMin, Max: DefaultUIDMax}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		switch fields[0] {
		case "UID_MIN":
			rng.Min = n
		case "UID_MAX":
			rng.Max = n
		}
	}
	return rng
}

// ParsePasswd returns the login-capable accounts in rng, sorted by name.
// Labels use the GECOS full name when present.
func ParsePasswd(r io.Reader, rng UIDRange) ([]Entry, error) {
	var users []Entry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 7 {
			continue
		}
		name, gecos, shell := parts[0], parts[4], parts[6]
		uid, err := strconv.Atoi(parts[2])
		if err != nil || uid < rng.Min || uid > rng.Max {
			continue
		}
		if hiddenUsers[name] || strings.Contains(shell, "nologin") || strings.HasSuffix(shell, "false") {
			continue
		}

		label := name
		if full := strings.TrimSpace(strings.SplitN(gecos, ",", 2)[0]); full != "" {
			label = fmt.Sprintf("%s (%s)", full, name)
		}
		users = append(users, Entry{ID: name, Label: label})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// LoadUsers reads passwd and login.defs from their standard locations.
func LoadUsers(passwdPath, loginDefsPath string) ([]Entry, error) {
	rng := UIDRange{Min: DefaultUIDMin, Max: DefaultUIDMax}
	if f, err := os.Open(loginDefsPath); err == nil {
		rng = ParseLoginDefs(f)
		_ = f.Close()
	}

	f, err := os.Open(passwdPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	defer f.Close()
	return ParsePasswd(f, rng)
}
