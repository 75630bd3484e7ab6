package render

import (
	"time"

	"castcut/internal/media/ffmpeg"
	"castcut/internal/timeline"
)

// MixInputs builds the offset-compensated audio mix for a multicam program.
// Every usable non-reference track is delayed by offset-lead so it lines up
// with the program clock. The reference track only joins the mix when no
// other track is usable; it carries the duplicated lead and is trimmed by it.
func MixInputs(sources []timeline.Source, failed map[int]error, lead time.Duration) []ffmpeg.AudioInput {
	var inputs []ffmpeg.AudioInput
	for _, src := range sources {
		if src.IsReference() {
			continue
		}
		if _, bad := failed[src.Index]; bad {
			continue
		}
		inputs = append(inputs, ffmpeg.AudioInput{Path: src.Path, Delay: src.Offset - lead})
	}
	if len(inputs) == 0 && len(sources) > 0 {
		ref := sources[timeline.ReferenceIndex]
		inputs = append(inputs, ffmpeg.AudioInput{Path: ref.Path, Delay: -lead})
	}
	return inputs
}

// ShortMixInputs builds the mix for a clip that starts at program time start.
// Tracks that begin after the clip starts are delayed, the rest are trimmed.
func ShortMixInputs(sources []timeline.Source, failed map[int]error, lead, start time.Duration) []ffmpeg.AudioInput {
	inputs := MixInputs(sources, failed, lead)
	for i := range inputs {
		inputs[i].Delay -= start
	}
	return inputs
}
