// Package ffmpeg builds and runs the ffmpeg invocations castcut needs.
//
// Every operation writes to an explicit output path and reports failures as
// "ffmpeg <op>: <exit error>: <stderr>". Nothing here decides what to render;
// callers hand in fully resolved paths, offsets and durations.
//
// Operations:
//   - ExtractAudio: mono PCM WAV for loudness measurement
//   - ExtractSegment: one keyframe-aligned, fixed-GOP video segment
//   - Concat: concat-demuxer join with stream copy
//   - MixAudio: offset-compensated amix of several sources
//   - Mux: final video + audio mux with -shortest
//   - PrependLead, NormalizeAudio, Enhance, StackSegment: staging, loudness
//     and vertical-short helpers
package ffmpeg
