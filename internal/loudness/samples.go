package loudness

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Metric selects how a window's samples are reduced to one value.
type Metric string

const (
	MetricPeak Metric = "peak"
	MetricRMS  Metric = "rms"
)

// ParseMetric maps a configuration value to a Metric.
func ParseMetric(value string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(value))) {
	case MetricPeak, "":
		return MetricPeak, nil
	case MetricRMS:
		return MetricRMS, nil
	default:
		return "", fmt.Errorf("loudness metric: unsupported value %q", value)
	}
}

// DefaultBlock is the resolution at which Samples aggregates audio.
const DefaultBlock = 10 * time.Millisecond

// Samples is a block-aggregated view of a mono signal normalized to [-1, 1].
type Samples struct {
	Block           time.Duration
	SamplesPerBlock int
	Peak            []float64
	SumSquares      []float64
}

// Duration returns the covered audio length.
func (s Samples) Duration() time.Duration {
	return time.Duration(len(s.Peak)) * s.Block
}

// Level reduces [start, end) to one value. Positions outside the audio count
// as silence.
func (s Samples) Level(start, end time.Duration, metric Metric) float64 {
	if end <= start || s.Block <= 0 {
		return 0
	}
	first := floorDiv(start, s.Block)
	last := floorDiv(end, s.Block)
	if last == first {
		last = first + 1
	}

	peak := 0.0
	energy := 0.0
	for b := max(first, 0); b < last && b < len(s.Peak); b++ {
		peak = math.Max(peak, s.Peak[b])
		energy += s.SumSquares[b]
	}
	if metric == MetricRMS {
		count := float64((last - first) * s.SamplesPerBlock)
		if count <= 0 {
			return 0
		}
		return math.Sqrt(energy / count)
	}
	return peak
}

func floorDiv(d, block time.Duration) int {
	q := d / block
	if d%block != 0 && d < 0 {
		q--
	}
	return int(q)
}

// Accumulator builds Samples from a stream of normalized sample values.
type Accumulator struct {
	block    time.Duration
	perBlock int
	filled   int
	peak     float64
	energy   float64
	out      Samples
}

// NewAccumulator creates an accumulator for audio at sampleRate.
func NewAccumulator(sampleRate int, block time.Duration) *Accumulator {
	if block <= 0 {
		block = DefaultBlock
	}
	perBlock := int(int64(sampleRate) * int64(block) / int64(time.Second))
	if perBlock < 1 {
		perBlock = 1
	}
	return &Accumulator{
		block:    block,
		perBlock: perBlock,
		out:      Samples{Block: block, SamplesPerBlock: perBlock},
	}
}

// Add consumes one sample.
func (a *Accumulator) Add(v float64) {
	abs := math.Abs(v)
	if abs > a.peak {
		a.peak = abs
	}
	a.energy += v * v
	a.filled++
	if a.filled == a.perBlock {
		a.flush()
	}
}

func (a *Accumulator) flush() {
	a.out.Peak = append(a.out.Peak, a.peak)
	a.out.SumSquares = append(a.out.SumSquares, a.energy)
	a.filled, a.peak, a.energy = 0, 0, 0
}

// Samples returns the aggregated signal. A trailing partial block is dropped.
func (a *Accumulator) Samples() Samples {
	return a.out
}
