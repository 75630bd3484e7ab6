// Package logs reads castcut's log file for the `castcut logs` command.
//
// Tail returns the last lines that pass a filter, typically lines stamped
// with one run ID, and an offset that Follow resumes from. Memory use is
// bounded by the requested line count.
package logs
