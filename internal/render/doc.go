// Package render turns a list of pieces into one output file.
//
// Pieces are extracted concurrently under a worker budget into the run's
// scratch directory, joined with the concat demuxer, and (for multicam and
// short programs) muxed with an offset-compensated audio mix. The output is
// written next to its final path and renamed into place only when every step
// succeeded, so a failed render never leaves a partial file behind.
package render
