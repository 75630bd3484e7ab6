package timeline

import (
	"fmt"
	"time"
)

// ReferenceIndex is the index of the reference recording in every source list.
const ReferenceIndex = 0

// Source is one camera recording. Offset is how far the recording starts after
// the reference (lead included); the reference itself has offset 0.
type Source struct {
	Index    int
	Path     string
	Duration time.Duration
	Offset   time.Duration
}

// AlignedDuration is the position on the program clock where the source
// ends, never negative.
func (s Source) AlignedDuration(lead time.Duration) time.Duration {
	d := s.Duration + s.Offset - lead
	if d < 0 {
		return 0
	}
	return d
}

// IsReference reports whether s is the reference recording.
func (s Source) IsReference() bool {
	return s.Index == ReferenceIndex
}

// DeFocusWindow is a half-open program-clock interval [Start, End) during
// which a wide shot is preferred, e.g. while a screen share is running.
type DeFocusWindow struct {
	Start time.Duration
	End   time.Duration
}

// Contains reports whether t lies in [Start, End).
func (w DeFocusWindow) Contains(t time.Duration) bool {
	return t >= w.Start && t < w.End
}

func (w DeFocusWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start, w.End)
}

// Segment is a decision on the program clock: show Source for Duration
// starting at Start.
type Segment struct {
	Source   int
	Start    time.Duration
	Duration time.Duration
}

// End returns Start+Duration.
func (s Segment) End() time.Duration {
	return s.Start + s.Duration
}

// Levels holds one loudness value per whole window for each source, indexed
// [source][window]. A window past the end of a row is undefined.
type Levels [][]float64

// Level returns the value of source in window and whether it is defined.
func (l Levels) Level(source, window int) (float64, bool) {
	if source < 0 || source >= len(l) || window < 0 || window >= len(l[source]) {
		return 0, false
	}
	return l[source][window], true
}
