package logging

import "testing"

func TestNewProgressSamplerDefaultsBucket(t *testing.T) {
	for _, size := range []float64{0, -3} {
		if s := NewProgressSampler(size); s.bucketSize != 10 {
			t.Fatalf("bucket size for %v = %v, want 10", size, s.bucketSize)
		}
	}
	if s := NewProgressSampler(25); s.bucketSize != 25 {
		t.Fatalf("bucket size = %v, want 25", s.bucketSize)
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog("extract", 1, 10) {
		t.Fatal("nil sampler should always log")
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		done int
		want bool
	}{
		{0, true},
		{1, false},
		{3, true},
		{4, false},
		{5, false},
		{6, true},
		{12, true},
		{12, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog("extract", step.done, 12); got != step.want {
			t.Fatalf("ShouldLog(%d/12) = %v, want %v", step.done, got, step.want)
		}
	}
}

func TestProgressSamplerStageChangeResets(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog("extract", 10, 10)
	if !s.ShouldLog("concat", 0, 1) {
		t.Fatal("stage change should log")
	}
	if !s.ShouldLog("concat", 1, 1) {
		t.Fatal("completion should log after stage reset")
	}
	if s.lastStage != "concat" {
		t.Fatalf("lastStage = %q", s.lastStage)
	}
}

func TestProgressSamplerTrimsStage(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog("  extract  ", 0, 4)
	if s.ShouldLog("extract", 0, 4) {
		t.Fatal("trimmed stage should match")
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		done, total int
		want        float64
	}{
		{0, 0, 0},
		{-1, 4, 0},
		{1, 4, 25},
		{5, 4, 100},
	}
	for _, c := range cases {
		if got := Percent(c.done, c.total); got != c.want {
			t.Fatalf("Percent(%d,%d) = %v, want %v", c.done, c.total, got, c.want)
		}
	}
}
