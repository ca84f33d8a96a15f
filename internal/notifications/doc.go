// Package notifications defines the per-job Notifier sink and the helpers the
// pipeline uses to talk to it.
//
// A Notifier receives human-readable status text for one job. Deliver wraps
// every call so a failing or panicking sink can never disturb the dispatch
// loop: ErrUnchanged is swallowed silently and every other failure is logged.
// Dedup drops redundant identical updates before they reach the transport.
//
// The package also carries the ntfy client used for operator alerts and a
// console notifier for local runs.
package notifications
