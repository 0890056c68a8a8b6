// Package version reports build information for the hypercube binaries.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/hypercube-linux/hypercube-utils/internal/version.Version=v0.4.0 \
//	                   -X github.com/hypercube-linux/hypercube-utils/internal/version.Commit=abc1234"
//
// Unset values are filled from the embedded VCS stamp, then from
// placeholders.
var (
	Version = ""
	Commit  = ""
)

func init() {
	fill(readSettings())
}

func readSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		settings["main.version"] = info.Main.Version
	}
	return settings
}

// fill resolves Version and Commit from build settings, leaving ldflags
// values alone.
func fill(settings map[string]string) {
	if Commit == "" {
		if rev := settings["vcs.revision"]; rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			if settings["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			Commit = rev
		} else {
			Commit = "unknown"
		}
	}

	if Version == "" {
		switch {
		case settings["main.version"] != "":
			Version = settings["main.version"]
		case len(settings["vcs.time"]) >= 10:
			// RFC 3339; the date part is enough.
			Version = "dev-" + settings["vcs.time"][:10]
		default:
			Version = "dev"
		}
	}
}

// String formats the version line printed by the version subcommands.
func String(program string) string {
	return fmt.Sprintf("%s %s (commit: %s)", program, Version, Commit)
}
