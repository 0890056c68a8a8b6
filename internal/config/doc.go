// Package config loads the onboard wizard configuration and persists the
// greeter's remembered state.
//
// # Onboard configuration
//
// The wizard reads a TOML file, /etc/hypercube/onboard.toml by default.
// Every section is optional; missing sections and keys take the values
// from DefaultOnboard. A missing file is not an error.
//
//	[general]
//	title = "System Setup"
//	dryrun = false
//
//	[[updates]]
//	name = "Desktop"
//	enabled_by_default = true
//
//	[[updates.packages]]
//	title = "Flatpak apps"
//	required = false
//	commands = [{ name = "Install", command = ["flatpak", "install", "-y", "firefox"], sudo = true }]
//
// # Greeter state
//
// The greeter remembers the last user and session in a small YAML file
// so the next login screen can preselect them. The file never contains
// credentials.
package config
