package loudness

import (
	"time"

	"castcut/internal/timeline"
)

// Profile holds one value per whole program-clock window of a source.
type Profile struct {
	Source int
	Window time.Duration
	Values []float64
}

// At returns the value for window i and whether it is defined.
func (p Profile) At(i int) (float64, bool) {
	if i < 0 || i >= len(p.Values) {
		return 0, false
	}
	return p.Values[i], true
}

// BuildProfile projects samples onto program-clock windows. Window k covers
// program time [kW, (k+1)W), which is source time kW + lead - offset. Only
// windows that end within the source's audio are emitted.
func BuildProfile(source int, samples Samples, offset, lead, window time.Duration, metric Metric) Profile {
	p := Profile{Source: source, Window: window}
	if window <= 0 {
		return p
	}
	aligned := samples.Duration() + offset - lead
	if aligned <= 0 {
		return p
	}
	n := int(aligned / window)
	p.Values = make([]float64, n)
	shift := lead - offset
	for k := 0; k < n; k++ {
		start := time.Duration(k)*window + shift
		p.Values[k] = samples.Level(start, start+window, metric)
	}
	return p
}

// Levels arranges profiles as a timeline.Levels table indexed by source.
func Levels(profiles []Profile) timeline.Levels {
	size := 0
	for _, p := range profiles {
		if p.Source+1 > size {
			size = p.Source + 1
		}
	}
	out := make(timeline.Levels, size)
	for _, p := range profiles {
		if p.Source >= 0 {
			out[p.Source] = p.Values
		}
	}
	return out
}
