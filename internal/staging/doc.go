// Package staging prepares a run's inputs and manages its scratch space.
//
// Every input is optionally audio-normalized into the run's scratch
// directory so the aligner and the loudness profiler see comparable tracks.
// The reference additionally gets a duplicated lead prepended, which gives
// the aligner room to place sources that started slightly before it. Each
// staged file is probed for its duration; an input that is missing or cannot
// be probed fails the run with a *services.SourceUnavailableError.
//
// Scratch directories of finished or abandoned runs are removed by
// CleanStale.
package staging
