// Hypercube-onboard is the first-boot setup wizard.
//
// greetd runs it once as the initial session. It collects the new user's
// account, language, keyboard layout, network, timezone and software
// choices, shows them for review, and applies them in one batch. On
// success it removes greetd's [initial_session] block so the next boot
// shows the login screen.
//
// Usage:
//
//	hypercube-onboard [command] [flags]
//
// Running without a command launches the wizard. Use --dryrun to walk
// through it without changing the system.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hypercube-linux/hypercube-utils/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hypercube-onboard",
	Short: "First-boot setup wizard",
	Long: `A modal terminal wizard that prepares a freshly installed system.

Steps are configured in /etc/hypercube/onboard.toml. Nothing is changed
until the review screen is confirmed; then every operation runs as one
batch and its progress is shown live.

If no command is specified, the wizard launches.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWizard,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String("hypercube-onboard"))
	},
}
