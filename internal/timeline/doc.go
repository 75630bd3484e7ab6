// Package timeline decides which camera to show for every window of a
// multicam program and turns those decisions into extraction instructions.
//
// All positions are time.Duration on the program clock, which starts at the
// first frame of the reference recording (after its duplicated lead). The
// package is pure: it never touches files or external tools.
//
// Select folds Step over the windows of the reference and returns a Plan;
// Merge collapses adjacent windows that show the same source; Map converts
// program-clock segments into per-file extraction instructions.
package timeline
