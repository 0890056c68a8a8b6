// Package vim implements the modal line editor shared by the greeter and the
// onboard wizard.
//
// Three pieces live here:
//
//   - Buffer: a single-line rune buffer with a cursor that never leaves
//     [0, len]. Buffers holding secrets are overwritten before they shrink.
//   - Editor: the Normal/Insert/Command state machine. It consumes one Key at
//     a time, edits the focused Buffer, and returns an Action describing what
//     the controller should do next (move focus, submit, run a command).
//   - ParseCommand: the grammar for the ":" command line.
//
// The editor knows nothing about what a field means. Controllers own the
// ordered field list and the focus index; the editor only reports intent.
package vim
