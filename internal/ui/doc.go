// Package ui holds the lipgloss rendering shared by the greeter and the
// onboarding wizard.
//
// Components are plain values rendered to strings; they hold no Bubble Tea
// state of their own, so the controllers stay the single owners of every
// buffer and list:
//
//   - Screen and Header: the full-terminal frame with a clock on the right
//   - Field and CommandLine: single-line inputs with a visible cursor
//   - List: a fuzzy-filtered picker list
//   - StatusBar: the vim mode badge, command line and transient message
//   - TaskBoard: execution progress for a batch of tasks
//   - Dialog and Menu: modal boxes for errors, help and the power menu
//   - Result: boxed outcomes printed by the command-line tools
//
// Widths are measured in terminal cells with go-runewidth so wide and
// combining characters in user names, locales and session names line up.
package ui
