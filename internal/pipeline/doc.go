// Package pipeline wires the castcut stages into complete runs.
//
// A multicam run goes through these stages, each logged with its name and
// duration and recorded in run history:
//
//	stage    copy/normalize inputs, prepend the reference lead, probe
//	align    resolve per-source offsets (aligner, pinned offsets, or none)
//	profile  per-window loudness for every source, concurrently
//	select   fold the selection rules over the windows
//	map      merge segments and map them onto source files
//	render   extract, concat, mix, mux, promote
//
// Runs are namespaced by a UUID scratch directory under work_dir/runs and
// serialized per output name with a file lock. Short and cut runs reuse the
// same scaffolding with fewer stages.
package pipeline
