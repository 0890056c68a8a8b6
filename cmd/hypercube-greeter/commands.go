package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/auth"
	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/discovery"
	"github.com/hypercube-linux/hypercube-utils/internal/greetd"
	"github.com/hypercube-linux/hypercube-utils/internal/greeter"
	"github.com/hypercube-linux/hypercube-utils/internal/logging"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
	"github.com/hypercube-linux/hypercube-utils/internal/ui"
)

// Greeter flags
var (
	dryRun    bool
	logFile   string
	logLevel  string
	stateFile string
	noMouse   bool
)

// probeTimeout bounds the startup connection check.
const probeTimeout = 5 * time.Second

func init() {
	rootCmd.Flags().BoolVar(&dryRun, "dryrun", false, "Use demo users, sessions and authentication instead of greetd")
	rootCmd.Flags().StringVar(&logFile, "log-file", logging.DefaultLogFile, "Log file path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")
	rootCmd.Flags().StringVar(&stateFile, "state-file", config.GetStatePath(), "File remembering the last user and session")
	rootCmd.Flags().BoolVar(&noMouse, "no-mouse", false, "Disable mouse wheel support")
}

func runGreeter(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel, logFile); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if !ui.IsTerminal(os.Stdin) || !ui.IsTerminal(os.Stdout) {
		return errors.New("hypercube-greeter must run on a terminal")
	}

	dial, err := dialer()
	if err != nil {
		return err
	}

	state, err := config.LoadState(stateFile)
	if err != nil {
		// A corrupt state file only costs the preselection.
		logging.Warn("Ignoring greeter state", zap.String("path", stateFile), zap.Error(err))
		state = config.NewState()
	}

	scanner := discovery.NewScanner(dryRun)
	sessions := scanner.Sessions()
	if len(sessions) == 0 {
		return errors.New("no desktop sessions found in " + strings.Join(discovery.DataDirs(), ":"))
	}

	opts := greeter.Options{
		Dial:      dial,
		Users:     scanner.Users(),
		Sessions:  sessions,
		State:     state,
		StatePath: stateFile,
		Hostname:  hostname(),
	}
	if !dryRun {
		opts.Power = system.NewRunner().Power
	}

	model := greeter.New(opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if !noMouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}

	logging.Info("Greeter starting", zap.Bool("dryrun", dryRun), zap.Int("sessions", len(sessions)))
	if _, err := tea.NewProgram(model, progOpts...).Run(); err != nil {
		return fmt.Errorf("greeter error: %w", err)
	}

	if dryRun && model.Done() {
		if s, ok := model.SelectedSession(); ok {
			fmt.Printf("demo: would start %s as %s\n", strings.Join(s.Command(), " "), model.Username())
		}
	}
	return nil
}

// dialer returns how each login attempt reaches greetd. Outside dry-run
// mode the socket is probed once so a missing daemon fails before the
// screen is drawn.
func dialer() (auth.Dialer, error) {
	if dryRun {
		return demoDialer, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	probe, err := greetd.DialEnv(ctx)
	if err != nil {
		if errors.Is(err, greetd.ErrNoSocket) {
			return nil, fmt.Errorf("%w (run under greetd, or use --dryrun)", err)
		}
		return nil, fmt.Errorf("greetd is not reachable: %w", err)
	}
	_ = probe.Close()

	return func(ctx context.Context) (greetd.Transport, error) {
		c, err := greetd.DialEnv(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, nil
}

// demoDialer gives every attempt its own demo conversation, as greetd keeps
// conversation state per connection.
func demoDialer(context.Context) (greetd.Transport, error) {
	return greetd.NewDemo(), nil
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
