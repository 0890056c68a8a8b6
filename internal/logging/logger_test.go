package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	if err := Initialize("", path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	Info("should not appear")
	Sync()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("silent logger created %s", path)
	}
}

func TestInitializeWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.log")

	if err := Initialize("info", path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer SetLogger(zap.NewNop())

	LogTaskEvent("set-locale", "completed")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "set-locale") {
		t.Errorf("log file missing task id: %s", data)
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "debug")
	path := filepath.Join(t.TempDir(), "env.log")
	if err := Initialize("", path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer SetLogger(zap.NewNop())
	if !GetLogger().Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled from environment")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogAuthEventFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	LogAuthEvent("a1", "alice", "prompt")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["attempt"] != "a1" || fields["username"] != "alice" || fields["event"] != "prompt" {
		t.Errorf("fields = %v", fields)
	}
}
