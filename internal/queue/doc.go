// Package queue holds the in-memory job queue state.
//
// A Queue owns the pending FIFO sequence, the single active job and the
// aggregate counters. Enqueue never blocks; the workflow manager drains the
// queue one job at a time through Next and Finish. Nothing here is persisted:
// jobs live for the process lifetime and are dropped once they reach a
// terminal status.
//
// Treat this package as the single source of truth for job lifecycle
// semantics (Pending, Active, Completed, Failed).
package queue
