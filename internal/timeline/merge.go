package timeline

import "time"

// Merge collapses neighbouring segments that show the same source and touch
// end to start. The total duration is unchanged and Merge(Merge(s)) equals
// Merge(s).
func Merge(segments []Segment) []Segment {
	if len(segments) == 0 {
		return nil
	}
	merged := make([]Segment, 0, len(segments))
	current := segments[0]
	for _, seg := range segments[1:] {
		if seg.Source == current.Source && seg.Start == current.End() {
			current.Duration += seg.Duration
			continue
		}
		merged = append(merged, current)
		current = seg
	}
	return append(merged, current)
}

// Total sums segment durations.
func Total(segments []Segment) time.Duration {
	var total time.Duration
	for _, seg := range segments {
		total += seg.Duration
	}
	return total
}
