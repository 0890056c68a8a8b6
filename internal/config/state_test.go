package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetStatePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	if got := GetStatePath(); got != "/tmp/state/hypercube/greeter.yaml" {
		t.Errorf("GetStatePath() = %q", got)
	}

	t.Setenv("XDG_STATE_HOME", "")
	if got := GetStatePath(); got != "/var/cache/hypercube/greeter.yaml" {
		t.Errorf("GetStatePath() = %q", got)
	}
}

func TestStateSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "greeter.yaml")

	st, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState(missing) error = %v", err)
	}
	if st.Version != 1 || st.LastUser != "" {
		t.Errorf("LoadState(missing) = %+v, want empty state", st)
	}

	st.Remember("alice", "sway")
	if err := st.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Hypercube greeter state") {
		t.Errorf("state file missing header:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if loaded.LastUser != "alice" || loaded.LastSession != "sway" {
		t.Errorf("LoadState() = %+v", loaded)
	}
	if !loaded.UpdatedAt.Equal(st.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", loaded.UpdatedAt, st.UpdatedAt)
	}
}

func TestLoadStateRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.yaml")
	if err := os.WriteFile(path, []byte("version: 7\nlast_user: bob\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil || !strings.Contains(err.Error(), "unsupported state version") {
		t.Errorf("LoadState() error = %v", err)
	}
}

func TestLoadStateRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.yaml")
	if err := os.WriteFile(path, []byte("version: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Error("LoadState() should fail on malformed YAML")
	}
}
