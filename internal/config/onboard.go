package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultOnboardPath is where the wizard looks for its configuration.
const DefaultOnboardPath = "/etc/hypercube/onboard.toml"

// Completion actions.
const (
	ActionReboot = "reboot"
	ActionExit   = "exit"
)

// Onboard is the wizard configuration.
type Onboard struct {
	General     General          `toml:"general"`
	Network     Network          `toml:"network"`
	User        User             `toml:"user"`
	Locale      Locale           `toml:"locale"`
	Keyboard    Keyboard         `toml:"keyboard"`
	Preferences Preferences      `toml:"preferences"`
	Completion  Completion       `toml:"completion"`
	Updates     []UpdateCategory `toml:"updates"`
}

type General struct {
	Title    string `toml:"title"`
	Subtitle string `toml:"subtitle"`
	// DryRun simulates every operation and uses demo data.
	DryRun bool `toml:"dryrun"`
}

type Network struct {
	Enabled bool     `toml:"enabled"`
	Program string   `toml:"program"`
	Args    []string `toml:"args"`
	// SkipIfConnected marks the step done when the network is already up.
	SkipIfConnected bool `toml:"skip_if_connected"`
}

type User struct {
	Groups            []string `toml:"groups"`
	Shell             string   `toml:"shell"`
	MinPasswordLength int      `toml:"min_password_length"`
}

// Locale configures the language step. An empty Available list means
// the list is discovered from the system.
type Locale struct {
	Enabled   bool     `toml:"enabled"`
	Default   string   `toml:"default_locale"`
	Available []string `toml:"available"`
}

type Keyboard struct {
	Enabled   bool     `toml:"enabled"`
	Default   string   `toml:"default_layout"`
	Available []string `toml:"available"`
}

type Preferences struct {
	TimezoneEnabled bool   `toml:"timezone_enabled"`
	DefaultTimezone string `toml:"default_timezone"`
	NTPEnabled      bool   `toml:"ntp_enabled"`
	// KeyringEnabled is accepted for compatibility and currently unused.
	KeyringEnabled bool `toml:"keyring_enabled"`
}

type Completion struct {
	Action               string `toml:"action"`
	RemoveInitialSession bool   `toml:"remove_initial_session"`
}

// UpdateCategory groups installable packages.
type UpdateCategory struct {
	Name             string        `toml:"name"`
	Description      string        `toml:"description"`
	EnabledByDefault bool          `toml:"enabled_by_default"`
	Packages         []PackageItem `toml:"packages"`
}

type PackageItem struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	// EnabledByDefault overrides the category default when set.
	EnabledByDefault *bool           `toml:"enabled_by_default"`
	Required         bool            `toml:"required"`
	Commands         []CommandConfig `toml:"commands"`
}

// DefaultEnabled reports whether the package starts selected. Required
// packages are always selected.
func (p PackageItem) DefaultEnabled(categoryDefault bool) bool {
	if p.Required {
		return true
	}
	if p.EnabledByDefault != nil {
		return *p.EnabledByDefault
	}
	return categoryDefault
}

type CommandConfig struct {
	Name    string   `toml:"name"`
	Command []string `toml:"command"`
	// Sudo runs the command as root instead of as the new user.
	Sudo bool `toml:"sudo"`
}

// DefaultOnboard returns the configuration used when no file exists.
func DefaultOnboard() *Onboard {
	return &Onboard{
		General: General{
			Title:    "System Setup",
			Subtitle: "Welcome to your new system",
		},
		Network: Network{
			Enabled:         true,
			Program:         "wifitui",
			SkipIfConnected: true,
		},
		User: User{
			Groups:            []string{"wheel"},
			Shell:             "/bin/bash",
			MinPasswordLength: 8,
		},
		Locale:   Locale{Enabled: true, Default: "en_US.UTF-8"},
		Keyboard: Keyboard{Enabled: true, Default: "us"},
		Preferences: Preferences{
			TimezoneEnabled: true,
			DefaultTimezone: "UTC",
			NTPEnabled:      true,
			KeyringEnabled:  true,
		},
		Completion: Completion{
			Action:               ActionReboot,
			RemoveInitialSession: true,
		},
	}
}

// ParseOnboard decodes TOML on top of the defaults.
func ParseOnboard(data string) (*Onboard, error) {
	cfg := DefaultOnboard()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse onboard config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in onboard config: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// LoadOnboard reads and validates the configuration at path. A missing
// file yields DefaultOnboard.
func LoadOnboard(path string) (*Onboard, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultOnboard(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read onboard config: %w", err)
	}

	cfg, err := ParseOnboard(string(data))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid onboard config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate returns the first problem found in the configuration.
func (c *Onboard) Validate() error {
	if c.Network.Enabled && strings.TrimSpace(c.Network.Program) == "" {
		return errors.New("network.program must be set when network is enabled")
	}
	if c.User.Shell == "" {
		return errors.New("user.shell must not be empty")
	}
	if c.User.MinPasswordLength < 1 {
		return fmt.Errorf("user.min_password_length must be positive, got %d", c.User.MinPasswordLength)
	}
	switch c.Completion.Action {
	case ActionReboot, ActionExit:
	default:
		return fmt.Errorf("completion.action must be %q or %q, got %q", ActionReboot, ActionExit, c.Completion.Action)
	}

	seen := make(map[string]bool)
	for i, cat := range c.Updates {
		if cat.Name == "" {
			return fmt.Errorf("updates[%d].name must not be empty", i)
		}
		for j, pkg := range cat.Packages {
			where := fmt.Sprintf("updates[%d].packages[%d]", i, j)
			if pkg.Title == "" {
				return fmt.Errorf("%s.title must not be empty", where)
			}
			key := strings.ToLower(cat.Name + "/" + pkg.Title)
			if seen[key] {
				return fmt.Errorf("%s: duplicate package %q in %q", where, pkg.Title, cat.Name)
			}
			seen[key] = true
			if len(pkg.Commands) == 0 {
				return fmt.Errorf("%s: %q has no commands", where, pkg.Title)
			}
			for k, cmd := range pkg.Commands {
				if len(cmd.Command) == 0 || cmd.Command[0] == "" {
					return fmt.Errorf("%s.commands[%d]: command must not be empty", where, k)
				}
			}
		}
	}
	return nil
}

// StepKind identifies a wizard step.
type StepKind int

const (
	StepUser StepKind = iota
	StepLocale
	StepKeyboard
	StepNetwork
	StepTimezone
	StepPackages
)

func (k StepKind) String() string {
	switch k {
	case StepUser:
		return "User"
	case StepLocale:
		return "Locale"
	case StepKeyboard:
		return "Keyboard"
	case StepNetwork:
		return "Network"
	case StepTimezone:
		return "Timezone"
	case StepPackages:
		return "Packages"
	default:
		return "Unknown"
	}
}

// Step is one entry of the wizard's step list.
type Step struct {
	Kind     StepKind
	Title    string
	Required bool
}

// Steps returns the enabled steps in wizard order. The user step is
// always present and required.
func (c *Onboard) Steps() []Step {
	steps := []Step{{Kind: StepUser, Title: "Create user", Required: true}}
	if c.Locale.Enabled {
		steps = append(steps, Step{Kind: StepLocale, Title: "Language"})
	}
	if c.Keyboard.Enabled {
		steps = append(steps, Step{Kind: StepKeyboard, Title: "Keyboard"})
	}
	if c.Network.Enabled {
		steps = append(steps, Step{Kind: StepNetwork, Title: "Network"})
	}
	if c.Preferences.TimezoneEnabled {
		steps = append(steps, Step{Kind: StepTimezone, Title: "Timezone"})
	}
	if len(c.Updates) > 0 {
		steps = append(steps, Step{Kind: StepPackages, Title: "Software"})
	}
	return steps
}
