// Package auth drives one login attempt against greetd.
//
// A Session is owned by the controller's update loop. Every operation that
// talks to greetd is handed to a per-attempt worker goroutine; the worker
// posts a Reply on the channel returned by Replies and the controller feeds
// it back through Handle, which advances the state machine:
//
//	Idle -> Connecting -> AwaitingSecret <-> AwaitingSecret (multi-prompt)
//	                   -> AwaitingSessionStart -> Authenticated
//	any non-terminal -> Failed | Cancelled
//
// Only one request is outstanding at a time. Cancel detaches: an exchange
// already on the wire completes, and its reply is dropped because it carries
// the old attempt id.
package auth
