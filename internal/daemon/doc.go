// Package daemon coordinates the long-running hlsbot process.
//
// It wires configuration, the completion store, the optional Redis tracker,
// the transcode driver, the workflow manager, the Telegram bot and the stream
// file server into a single lifecycle with flock-based locking to prevent
// multiple instances. Components run under one errgroup: the first to fail
// or exit stops the others, and shutdown drains the active job before the
// lock is released.
//
// Keep orchestration logic here: individual workflow steps live in their
// respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
