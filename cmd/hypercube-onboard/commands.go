package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/config"
	"github.com/hypercube-linux/hypercube-utils/internal/executor"
	"github.com/hypercube-linux/hypercube-utils/internal/logging"
	"github.com/hypercube-linux/hypercube-utils/internal/onboard"
	"github.com/hypercube-linux/hypercube-utils/internal/system"
	"github.com/hypercube-linux/hypercube-utils/internal/ui"
)

// Wizard flags
var (
	configPath   string
	greetdConfig string
	dryRun       bool
	logFile      string
	logLevel     string
	concurrency  int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultOnboardPath, "Wizard configuration file")

	rootCmd.Flags().BoolVar(&dryRun, "dryrun", false, "Simulate every operation and use demo data")
	rootCmd.Flags().StringVar(&greetdConfig, "greetd-config", system.DefaultGreetdConfig, "greetd configuration edited after setup")
	rootCmd.Flags().StringVar(&logFile, "log-file", logging.DefaultLogFile, "Log file path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", executor.DefaultConcurrency, "Maximum number of operations running at once")

	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the wizard configuration",
	Long: `Parse and validate the wizard configuration without starting the wizard.

Unknown keys, a network step without a program, an unusable completion
action and similar problems are reported with the file name.`,
	Example: `  # Check the installed configuration
  hypercube-onboard validate

  # Check a draft before installing it
  hypercube-onboard validate --config ./onboard.toml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	width, _ := ui.GetTerminalSize(os.Stdout)

	cfg, err := config.LoadOnboard(configPath)
	if err != nil {
		fmt.Println(ui.NewFailureResult("Invalid configuration", err,
			"Run with a corrected file: hypercube-onboard validate --config <path>",
		).SetWidth(width).Render())
		return errors.New("configuration check failed")
	}

	var titles []string
	for _, st := range cfg.Steps() {
		titles = append(titles, st.Title)
	}
	packages := 0
	for _, cat := range cfg.Updates {
		packages += len(cat.Packages)
	}

	fmt.Println(ui.NewSuccessResult("Configuration OK",
		ui.Detail{Key: "File", Value: configPath},
		ui.Detail{Key: "Steps", Value: strings.Join(titles, ", ")},
		ui.Detail{Key: "Packages", Value: fmt.Sprintf("%d in %d categories", packages, len(cfg.Updates))},
		ui.Detail{Key: "Completion", Value: cfg.Completion.Action},
	).SetWidth(width).Render())
	return nil
}

func runWizard(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel, logFile); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if !ui.IsTerminal(os.Stdin) || !ui.IsTerminal(os.Stdout) {
		return errors.New("hypercube-onboard must run on a terminal")
	}

	cfg, err := config.LoadOnboard(configPath)
	if err != nil {
		return err
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if !cfg.General.DryRun && os.Geteuid() != 0 {
		return errors.New("hypercube-onboard must run as root (or use --dryrun)")
	}

	runner := system.NewRunner()
	opts := onboard.Options{
		Config: cfg,
		Ops:    &system.Ops{Runner: runner, GreetdConfig: greetdConfig},
		Exec:   executor.Options{Concurrency: concurrency},
	}
	if !cfg.General.DryRun {
		opts.Power = runner.Power
	}

	model := onboard.New(opts)
	defer model.Shutdown()

	logging.Info("Wizard starting",
		zap.String("config", configPath),
		zap.Bool("dryrun", cfg.General.DryRun),
		zap.Int("steps", len(cfg.Steps())))

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}

	if outcome := model.Outcome(); outcome != "" {
		fmt.Println(outcome)
	}
	if model.Phase() == onboard.PhaseDone && model.Failed() > 0 {
		return fmt.Errorf("%d operation(s) did not complete; see %s", model.Failed(), logFile)
	}
	return nil
}
