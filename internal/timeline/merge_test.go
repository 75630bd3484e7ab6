package timeline

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestMergeCollapsesNeighbours(t *testing.T) {
	s := time.Second
	in := []Segment{
		{Source: 0, Start: 0, Duration: 5 * s},
		{Source: 1, Start: 5 * s, Duration: 5 * s},
		{Source: 1, Start: 10 * s, Duration: 5 * s},
		{Source: 0, Start: 15 * s, Duration: 5 * s},
		{Source: 0, Start: 20 * s, Duration: 3 * s},
	}
	got := Merge(in)
	want := []Segment{
		{Source: 0, Start: 0, Duration: 5 * s},
		{Source: 1, Start: 5 * s, Duration: 10 * s},
		{Source: 0, Start: 15 * s, Duration: 8 * s},
	}
	if len(got) != len(want) {
		t.Fatalf("Merge = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMergeKeepsDisjointSameSource(t *testing.T) {
	in := []Segment{
		{Source: 1, Start: 0, Duration: time.Second},
		{Source: 1, Start: 2 * time.Second, Duration: time.Second},
	}
	if got := Merge(in); len(got) != 2 {
		t.Fatalf("segments with a gap must not merge: %+v", got)
	}
	if Merge(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestMergeProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for trial := 0; trial < 300; trial++ {
		n := rng.IntN(40)
		segments := make([]Segment, 0, n)
		var cursor time.Duration
		for i := 0; i < n; i++ {
			d := time.Duration(1+rng.IntN(5000)) * time.Millisecond
			segments = append(segments, Segment{Source: rng.IntN(3), Start: cursor, Duration: d})
			cursor += d
		}

		merged := Merge(segments)
		if Total(merged) != Total(segments) {
			t.Fatalf("trial %d: total changed %s -> %s", trial, Total(segments), Total(merged))
		}
		for i := 1; i < len(merged); i++ {
			if merged[i].Source == merged[i-1].Source && merged[i].Start == merged[i-1].End() {
				t.Fatalf("trial %d: mergeable neighbours left at %d", trial, i)
			}
		}
		again := Merge(merged)
		if len(again) != len(merged) {
			t.Fatalf("trial %d: merge not idempotent", trial)
		}
	}
}
