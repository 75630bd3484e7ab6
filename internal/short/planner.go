// Package short plans and renders vertical short-form clips from an aligned
// multicam recording.
//
// A clip covers [Start, Till) on the program clock. Every loudness window the
// clip touches is shown as a shot: the loudest speaker fills the frame, or,
// when the runner-up is loud enough relative to the leader, both speakers are
// stacked top and bottom.
package short

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"castcut/internal/timeline"
)

// DefaultSplitRatio is the runner-up/leader level ratio above which a shot is split.
const DefaultSplitRatio = 0.08

// DefaultLength is the clip length used when no end is given.
const DefaultLength = 60 * time.Second

// NoSource marks an empty bottom cell.
const NoSource = -1

// Params controls shot planning.
type Params struct {
	Window     time.Duration
	SplitRatio float64
}

// Shot is one contiguous range of the clip showing Top and, optionally, Bottom.
type Shot struct {
	Start    time.Duration
	Duration time.Duration
	Top      int
	Bottom   int
}

// End returns Start+Duration.
func (s Shot) End() time.Duration { return s.Start + s.Duration }

// Split reports whether the shot stacks two speakers.
func (s Shot) Split() bool { return s.Bottom != NoSource }

// Plan decides the shots for [start, till). levels is indexed like sources;
// the reference row is ignored. When no speaker has a level for a window the
// reference camera fills the frame.
func Plan(p Params, sources []timeline.Source, levels timeline.Levels, start, till time.Duration) ([]Shot, error) {
	if p.Window <= 0 {
		return nil, errors.New("short: window must be positive")
	}
	if p.SplitRatio < 0 {
		return nil, fmt.Errorf("short: negative split ratio %v", p.SplitRatio)
	}
	if start < 0 || till <= start {
		return nil, fmt.Errorf("short: invalid range %s-%s", start, till)
	}
	if len(sources) == 0 {
		return nil, errors.New("short: no sources")
	}

	first := int(start / p.Window)
	last := int((till + p.Window - 1) / p.Window)

	shots := make([]Shot, 0, last-first)
	for w := first; w < last; w++ {
		lo := max(start, time.Duration(w)*p.Window)
		hi := min(till, time.Duration(w+1)*p.Window)
		if hi <= lo {
			continue
		}
		top, bottom := pick(p.SplitRatio, sources, levels, w)
		shots = append(shots, Shot{Start: lo, Duration: hi - lo, Top: top, Bottom: bottom})
	}
	return Merge(shots), nil
}

type candidate struct {
	source int
	level  float64
}

func pick(ratio float64, sources []timeline.Source, levels timeline.Levels, window int) (int, int) {
	var ranked []candidate
	for _, src := range sources {
		if src.IsReference() {
			continue
		}
		if level, ok := levels.Level(src.Index, window); ok {
			ranked = append(ranked, candidate{source: src.Index, level: level})
		}
	}
	if len(ranked) == 0 {
		return timeline.ReferenceIndex, NoSource
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].level > ranked[j].level })
	if len(ranked) > 1 && ranked[1].level > ranked[0].level*ratio {
		return ranked[0].source, ranked[1].source
	}
	return ranked[0].source, NoSource
}

// Merge joins adjacent shots that show the same cells.
func Merge(shots []Shot) []Shot {
	out := make([]Shot, 0, len(shots))
	for _, s := range shots {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if prev.Top == s.Top && prev.Bottom == s.Bottom && prev.End() == s.Start {
				prev.Duration += s.Duration
				continue
			}
		}
		out = append(out, s)
	}
	return out
}
