// Package loudness measures how loud each camera's audio is in every window
// of the program.
//
// A Measurer turns a source into Samples: per-block peak and energy sums at
// a fixed block size, decoded from a mono WAV extracted by ffmpeg. BuildProfile
// projects Samples onto program-clock windows using the source offset and the
// reference lead; Profiler runs every source concurrently and reports failures
// per source so a broken guest camera never takes the run down.
package loudness
