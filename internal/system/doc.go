// Package system performs the privileged changes the onboard wizard and the
// greeter ask for: creating the first user, setting locale, keymap and
// timezone, running package commands, editing the greetd configuration and
// powering the machine off.
//
// Wizard operations are not run directly. Each builder returns an
// executor.Task whose Invoke shells out through a Runner, so nothing touches
// the system until the whole batch is started.
package system
