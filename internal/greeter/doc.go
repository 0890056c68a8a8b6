// Package greeter implements the login screen as a Bubble Tea model.
//
// The model is the only place state changes. Key presses go through a
// vim.Editor into the focused buffer; a submitted password starts an
// auth.Session whose replies come back as messages, one per call to
// event.Listen. Pickers for user and session, the power menu, the error
// dialog and the help overlay are screens of the same model.
//
// A login attempt owns the secret only until it is answered. The secret
// buffer is cleared when it is handed to the session, and replies from an
// attempt that has since been cancelled are ignored.
package greeter
