// Package telegram is the chat transport: it connects to a self-hosted Bot API
// server, turns incoming videos into queued jobs, resolves file handles to
// paths on the shared storage mount, and edits each job's status message in
// place as the job progresses.
package telegram
