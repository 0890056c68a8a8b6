package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName       = "hypercube"
	stateFile     = "greeter.yaml"
	stateVersion  = 1
	fallbackState = "/var/cache/hypercube"
)

// Mutex for file operations
var fileMutex sync.Mutex

// State is what the greeter remembers between runs.
type State struct {
	Version     int       `yaml:"version"`
	LastUser    string    `yaml:"last_user,omitempty"`
	LastSession string    `yaml:"last_session,omitempty"`
	UpdatedAt   time.Time `yaml:"updated_at,omitempty"`
}

// NewState returns an empty state at the current version.
func NewState() *State {
	return &State{Version: stateVersion}
}

// GetStateDir returns the directory holding the greeter state file:
// $XDG_STATE_HOME/hypercube when set, otherwise /var/cache/hypercube
// (the greeter user usually has no home directory).
func GetStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return fallbackState
}

// GetStatePath returns the default greeter state file path.
func GetStatePath() string {
	return filepath.Join(GetStateDir(), stateFile)
}

// LoadState reads the state file at path. A missing file yields an empty
// state.
func LoadState(path string) (*State, error) {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if st.Version != stateVersion {
		return nil, fmt.Errorf("unsupported state version: %d (expected %d)", st.Version, stateVersion)
	}

	return &st, nil
}

// Remember records a successful login.
func (s *State) Remember(user, session string) {
	s.LastUser = user
	s.LastSession = session
	s.UpdatedAt = time.Now().UTC().Truncate(time.Second)
}

// Save writes the state to path atomically.
func (s *State) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	s.Version = stateVersion
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	header := []byte(`# Hypercube greeter state
# Remembers the last user and session shown on the login screen.
# Credentials are never stored here.

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save state file: %w", err)
	}

	return nil
}
