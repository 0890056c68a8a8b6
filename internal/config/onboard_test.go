package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleOnboard = `
[general]
title = "Hypercube Setup"
dryrun = true

[network]
enabled = false

[user]
groups = ["wheel", "video"]
min_password_length = 10

[keyboard]
available = ["us", "de"]

[completion]
action = "exit"

[[updates]]
name = "Desktop"
enabled_by_default = true

[[updates.packages]]
title = "Browser"
commands = [{ name = "Install", command = ["flatpak", "install", "-y", "firefox"], sudo = true }]

[[updates.packages]]
title = "Dotfiles"
enabled_by_default = false
commands = [{ name = "Clone", command = ["git", "clone", "https://example.org/dots"] }]
`

func TestDefaultOnboard(t *testing.T) {
	cfg := DefaultOnboard()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultOnboard().Validate() = %v", err)
	}
	if cfg.Network.Program != "wifitui" {
		t.Errorf("Network.Program = %q, want wifitui", cfg.Network.Program)
	}
	if cfg.User.MinPasswordLength != 8 {
		t.Errorf("User.MinPasswordLength = %d, want 8", cfg.User.MinPasswordLength)
	}
	if cfg.Completion.Action != ActionReboot {
		t.Errorf("Completion.Action = %q, want %q", cfg.Completion.Action, ActionReboot)
	}
}

func TestParseOnboard(t *testing.T) {
	cfg, err := ParseOnboard(sampleOnboard)
	if err != nil {
		t.Fatalf("ParseOnboard() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.General.Title != "Hypercube Setup" || !cfg.General.DryRun {
		t.Errorf("General = %+v", cfg.General)
	}
	// Untouched keys keep their defaults.
	if cfg.General.Subtitle != "Welcome to your new system" {
		t.Errorf("General.Subtitle = %q, want default", cfg.General.Subtitle)
	}
	if cfg.User.Shell != "/bin/bash" {
		t.Errorf("User.Shell = %q, want default", cfg.User.Shell)
	}
	if got := strings.Join(cfg.User.Groups, ","); got != "wheel,video" {
		t.Errorf("User.Groups = %q", got)
	}
	if cfg.Keyboard.Default != "us" || len(cfg.Keyboard.Available) != 2 {
		t.Errorf("Keyboard = %+v", cfg.Keyboard)
	}

	if len(cfg.Updates) != 1 || len(cfg.Updates[0].Packages) != 2 {
		t.Fatalf("Updates = %+v", cfg.Updates)
	}
	browser, dots := cfg.Updates[0].Packages[0], cfg.Updates[0].Packages[1]
	if !browser.DefaultEnabled(cfg.Updates[0].EnabledByDefault) {
		t.Error("Browser should inherit the category default")
	}
	if dots.DefaultEnabled(cfg.Updates[0].EnabledByDefault) {
		t.Error("Dotfiles overrides the category default")
	}
	if !browser.Commands[0].Sudo || dots.Commands[0].Sudo {
		t.Error("sudo flags not decoded")
	}
}

func TestParseOnboardRejectsUnknownKeys(t *testing.T) {
	_, err := ParseOnboard("[general]\ntitel = \"typo\"\n")
	if err == nil || !strings.Contains(err.Error(), "general.titel") {
		t.Fatalf("ParseOnboard() error = %v, want unknown key general.titel", err)
	}
}

func TestOnboardValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Onboard)
		want   string
	}{
		{"network without program", func(c *Onboard) { c.Network.Program = " " }, "network.program"},
		{"empty shell", func(c *Onboard) { c.User.Shell = "" }, "user.shell"},
		{"zero password length", func(c *Onboard) { c.User.MinPasswordLength = 0 }, "min_password_length"},
		{"bad action", func(c *Onboard) { c.Completion.Action = "halt" }, "completion.action"},
		{"unnamed category", func(c *Onboard) {
			c.Updates = []UpdateCategory{{}}
		}, "updates[0].name"},
		{"package without commands", func(c *Onboard) {
			c.Updates = []UpdateCategory{{Name: "A", Packages: []PackageItem{{Title: "x"}}}}
		}, "has no commands"},
		{"empty argv", func(c *Onboard) {
			c.Updates = []UpdateCategory{{Name: "A", Packages: []PackageItem{{Title: "x", Commands: []CommandConfig{{Name: "n"}}}}}}
		}, "command must not be empty"},
		{"duplicate package", func(c *Onboard) {
			p := PackageItem{Title: "x", Commands: []CommandConfig{{Command: []string{"true"}}}}
			c.Updates = []UpdateCategory{{Name: "A", Packages: []PackageItem{p, p}}}
		}, "duplicate package"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultOnboard()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestRequiredPackageAlwaysEnabled(t *testing.T) {
	off := false
	p := PackageItem{Required: true, EnabledByDefault: &off}
	if !p.DefaultEnabled(false) {
		t.Error("required package must be enabled by default")
	}
}

func TestSteps(t *testing.T) {
	cfg := DefaultOnboard()
	got := cfg.Steps()
	want := []StepKind{StepUser, StepLocale, StepKeyboard, StepNetwork, StepTimezone}
	if len(got) != len(want) {
		t.Fatalf("Steps() = %v, want %v", got, want)
	}
	for i, s := range got {
		if s.Kind != want[i] {
			t.Errorf("Steps()[%d] = %v, want %v", i, s.Kind, want[i])
		}
	}
	if !got[0].Required {
		t.Error("user step must be required")
	}
	for _, s := range got[1:] {
		if s.Required {
			t.Errorf("%v should be optional", s.Kind)
		}
	}

	cfg.Locale.Enabled = false
	cfg.Network.Enabled = false
	cfg.Updates = []UpdateCategory{{Name: "A"}}
	got = cfg.Steps()
	if len(got) != 4 || got[1].Kind != StepKeyboard || got[3].Kind != StepPackages {
		t.Errorf("Steps() = %v", got)
	}
}

func TestLoadOnboard(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOnboard(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOnboard(missing) error = %v", err)
	}
	if cfg.General.Title != "System Setup" {
		t.Errorf("missing file should give defaults, got %+v", cfg.General)
	}

	path := filepath.Join(dir, "onboard.toml")
	if err := os.WriteFile(path, []byte(sampleOnboard), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOnboard(path)
	if err != nil {
		t.Fatalf("LoadOnboard() error = %v", err)
	}
	if cfg.Completion.Action != ActionExit {
		t.Errorf("Completion.Action = %q, want exit", cfg.Completion.Action)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[completion]\naction = \"halt\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOnboard(bad); err == nil {
		t.Error("LoadOnboard() should reject an invalid config")
	}
}
