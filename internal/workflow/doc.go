// Package workflow runs the single-worker dispatch loop over the job queue.
//
// The Manager takes the oldest pending job, hands it to the transcode driver,
// publishes a successful package and reports the terminal outcome through the
// job's notifier before taking the next job. One job is active at a time and a
// failed job never stops the loop. Observers receive lifecycle events for
// metrics, status tracking and operator alerts.
package workflow
