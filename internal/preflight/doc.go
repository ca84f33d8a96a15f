// Package preflight provides readiness checks for the paths, binaries and
// services hlsbot depends on.
//
// The daemon runs RunAll before it starts accepting videos and refuses to start
// when a required check fails. The CLI "hlsbot check" command prints the same
// results as a table.
package preflight
