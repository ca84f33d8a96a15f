// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, chat IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (source unavailable, output directory, transcode, store, notifier) and
//     render them for the person who submitted the job.
package services
