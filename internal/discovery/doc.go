// Package discovery finds the choices offered by the greeter and the onboard
// wizard on the local system.
//
// # Sources
//
//   - Users: /etc/passwd filtered by the UID range in /etc/login.defs,
//     skipping system accounts and accounts without a login shell
//   - Sessions: .desktop files under wayland-sessions/ and xsessions/ in
//     every $XDG_DATA_DIRS entry; earlier directories win on duplicates
//   - Locales and keymaps: localectl
//   - Timezones: timedatectl
//   - Network: a single ping
//
// Everything is returned as Entry values (a stable ID and a display label)
// so pickers can show any of them.
//
// # Demo mode
//
// A Scanner created with demo set never runs a program and returns fixed
// lists, which is what --dryrun uses:
//
//	s := discovery.NewScanner(true)
//	locales := s.Locales(ctx)
//
// Lookups that fail in normal mode fall back to the same lists and log a
// warning rather than leaving a picker empty.
package discovery
