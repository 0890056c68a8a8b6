// Package executor runs a batch of dependent tasks off the UI thread and
// reports their progress as a stream of messages.
//
// A Coordinator accepts tasks with Enqueue, validates the dependency graph,
// and on Start launches a scheduler goroutine. Tasks become eligible once
// every dependency has finished; eligible tasks run on a bounded worker pool.
// When a task fails, everything downstream of it is completed as skipped
// without running.
//
// The message stream for one batch is:
//
//	Started(id) -> Progress(id, text)* -> Completed(id, outcome)   per task
//	AllDone                                                       exactly once, last
//
// Skipped tasks produce only their Completed message. The channel is closed
// after AllDone.
//
// In simulation mode task invocations are never called. Each task instead
// reports a few fabricated progress lines on a timer and succeeds, which is
// how --dryrun previews a batch without touching the system.
package executor
