package timeline

import (
	"fmt"
	"time"
)

// Instruction tells the extractor which range of which file realizes a
// segment.
type Instruction struct {
	Segment
	Path        string
	SourceStart time.Duration
	// Rerouted is set when the chosen source has no footage for the segment
	// and the reference is used instead.
	Rerouted bool
}

// Map converts program-clock segments into file ranges. Program time t on
// source s is file time t + lead - s.Offset. A segment that would start
// before the file begins or run past its end is served from the reference.
func Map(segments []Segment, sources []Source, lead time.Duration) ([]Instruction, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("map: no sources")
	}
	ref := sources[ReferenceIndex]
	out := make([]Instruction, 0, len(segments))
	for _, seg := range segments {
		if seg.Source < 0 || seg.Source >= len(sources) {
			return nil, fmt.Errorf("map: segment at %s names unknown source %d", seg.Start, seg.Source)
		}
		src := sources[seg.Source]
		start := seg.Start + lead - src.Offset
		inst := Instruction{Segment: seg, Path: src.Path, SourceStart: start}
		if start < 0 || (src.Duration > 0 && start+seg.Duration > src.Duration) {
			inst.Path = ref.Path
			inst.Source = ReferenceIndex
			inst.SourceStart = seg.Start + lead
			inst.Rerouted = !src.IsReference()
		}
		out = append(out, inst)
	}
	return out, nil
}

// ProgramStart inverts the mapping for a non-rerouted instruction.
func ProgramStart(inst Instruction, sources []Source, lead time.Duration) time.Duration {
	return inst.SourceStart + sources[inst.Source].Offset - lead
}
