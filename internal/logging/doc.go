// Package logging provides structured logging for the greeter and the
// onboard wizard.
//
// This package wraps a global zap logger. Both programs draw a full-screen
// TUI on stdout, so log output always goes to a file.
//
// # Log Levels
//
//   - Debug: key handling, command lines, wire exchanges without payloads
//   - Info: login attempts, session starts, task state changes
//   - Warn: recoverable failures (discovery fallbacks, best-effort cancels)
//   - Error: failed logins, failed tasks, startup problems
//
// # Configuration
//
// Logging is silent unless a level is passed on the command line or
// HYPERCUBE_LOG_LEVEL is set:
//
//	if err := logging.Initialize(logLevel, logFile); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Domain helpers
//
//	logging.LogAuthEvent(attemptID, "alice", "prompt")
//	logging.LogTaskEvent("set-locale", "completed", zap.String("outcome", "ok"))
//	logging.LogCommand("localectl", []string{"set-locale", "LANG=de_DE.UTF-8"})
//
// Credentials are never logged. Auth events carry the attempt id and user
// name only.
package logging
