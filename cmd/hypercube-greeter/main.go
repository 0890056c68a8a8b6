// Hypercube-greeter is a terminal login screen for greetd.
//
// It asks for a username and password, runs the PAM conversation through
// greetd's IPC socket, and hands greetd the chosen desktop session to
// start. Editing is modal: the password field starts in insert mode, Esc
// switches to normal mode, and ':' opens a command line (:session, :user,
// :reboot, :poweroff, :help).
//
// Usage:
//
//	hypercube-greeter [flags]
//
// greetd starts it with $GREETD_SOCK set. Use --dryrun to try it in any
// terminal; the password is "demo".
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
	Use:   "hypercube-greeter",
	Short: "Terminal greeter for greetd",
	Long: `A modal terminal login screen for the greetd login manager.

Authenticates through greetd's IPC socket ($GREETD_SOCK) and starts the
selected Wayland or X11 session. The last user and session are remembered
between runs.

Run with --dryrun to use demo users and sessions without greetd; the
password is "demo" and the user "mfa" also asks for the code 123456.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGreeter,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String("hypercube-greeter"))
	},
}
