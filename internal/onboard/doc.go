// Package onboard implements the first-boot wizard.
//
// Steps only record choices. Nothing touches the system until the review
// screen is confirmed, at which point a Plan turns the choices into one
// executor batch and the model follows its message stream until AllDone.
package onboard
