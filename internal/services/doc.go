// Package services defines shared error and context helpers consumed by the
// pipeline stages and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and source indices for
//     logging.
//   - Structured error markers plus the Wrap helper, and the typed errors that
//     make up the failure taxonomy of a run (alignment, audio decode, missing
//     source, render).
//   - FailureKind, which maps any run error to the short label persisted in run
//     history.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
