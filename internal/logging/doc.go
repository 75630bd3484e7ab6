// Package logging assembles structured slog loggers and formatting helpers used
// across castcut.
//
// It owns the configurable console/JSON handlers, routes file output through a
// size-rotated log, and exposes context-aware helpers so stage code can tag
// log lines with run IDs, stages, and source indices. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
