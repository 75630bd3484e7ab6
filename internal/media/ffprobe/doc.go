// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe once per file; Result helpers expose what the pipeline
// needs from it: the duration of every camera source, whether it carries an
// audio track, and the frame size used when laying out shorts.
package ffprobe
