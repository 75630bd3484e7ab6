// Package align resolves how far each camera recording starts after the
// reference.
//
// The offsets themselves come from an Oracle: an external aligner binary
// (CLIOracle) or values pinned in configuration (StaticOracle). Resolver
// applies the invariants on top: the reference is always 0, a missing or
// negative offset falls back to 0 with a logged *services.AlignmentError.
package align
