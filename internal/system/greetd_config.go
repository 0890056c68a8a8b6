package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultGreetdConfig is greetd's configuration file.
const DefaultGreetdConfig = "/etc/greetd/config.toml"

const initialSessionTable = "initial_session"

// StripTable removes a top-level [name] table from TOML source, keeping
// every other line and comment as written.
func StripTable(src, name string) (string, bool) {
	header := "[" + name + "]"
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	inside, removed := false, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inside = trimmed == header || strings.HasPrefix(trimmed, header+" ") || strings.HasPrefix(trimmed, header+"#")
			if inside {
				removed = true
				continue
			}
		}
		if !inside {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), removed
}

// RemoveInitialSession rewrites path without its [initial_session] table.
// The result is parsed before it replaces the original.
func RemoveInitialSession(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read greetd config: %w", err)
	}

	var before map[string]any
	if _, err := toml.Decode(string(data), &before); err != nil {
		return false, fmt.Errorf("greetd config is not valid TOML: %w", err)
	}
	if _, ok := before[initialSessionTable]; !ok {
		return false, nil
	}

	updated, _ := StripTable(string(data), initialSessionTable)

	var after map[string]any
	if _, err := toml.Decode(updated, &after); err != nil {
		return false, fmt.Errorf("rewritten greetd config is not valid TOML: %w", err)
	}
	if _, ok := after[initialSessionTable]; ok {
		return false, errors.New("initial_session is not a plain table and was left in place")
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := writeFileAtomic(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write greetd config: %w", err)
	}
	return true, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hypercube-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
