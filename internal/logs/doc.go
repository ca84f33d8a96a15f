// Package logs reads the daemon's log file for the `hlsbot logs` command.
//
// Last returns the trailing lines with bounded memory; Follow polls for
// appended lines until its context ends and restarts from the top when the
// file is truncated or rotated.
package logs
