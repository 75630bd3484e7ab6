package timeline

import (
	"fmt"
	"sort"
	"time"
)

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Duration
	End   time.Duration
}

// Duration returns End-Start.
func (r Range) Duration() time.Duration {
	return r.End - r.Start
}

// KeepRanges returns the parts of [0, total) not covered by cuts, in order.
// Cuts may overlap, touch, or extend past total.
func KeepRanges(total time.Duration, cuts []Range) ([]Range, error) {
	if total <= 0 {
		return nil, fmt.Errorf("keep ranges: non-positive total %s", total)
	}
	sorted := make([]Range, 0, len(cuts))
	for _, c := range cuts {
		if c.End <= c.Start {
			return nil, fmt.Errorf("keep ranges: empty cut %s-%s", c.Start, c.End)
		}
		if c.Start >= total || c.End <= 0 {
			continue
		}
		sorted = append(sorted, Range{Start: max(c.Start, 0), End: min(c.End, total)})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var keep []Range
	cursor := time.Duration(0)
	for _, c := range sorted {
		if c.Start > cursor {
			keep = append(keep, Range{Start: cursor, End: c.Start})
		}
		cursor = max(cursor, c.End)
	}
	if cursor < total {
		keep = append(keep, Range{Start: cursor, End: total})
	}
	return keep, nil
}
