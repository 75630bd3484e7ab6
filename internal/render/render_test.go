package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"castcut/internal/logging"
	"castcut/internal/media/ffmpeg"
	"castcut/internal/services"
	"castcut/internal/timeline"
)

type fakeMedia struct {
	mu        sync.Mutex
	extracted []ffmpeg.SegmentJob
	stacked   []ffmpeg.StackJob
	concat    []string
	mixed     []ffmpeg.AudioInput
	mixLimit  time.Duration
	muxed     bool
	failOn    string
}

func (f *fakeMedia) ExtractSegment(_ context.Context, job ffmpeg.SegmentJob, _ ffmpeg.Encoder) error {
	if f.failOn == "extract" && job.Start > 0 {
		return errors.New("decode error")
	}
	f.mu.Lock()
	f.extracted = append(f.extracted, job)
	f.mu.Unlock()
	return os.WriteFile(job.Output, []byte("seg"), 0o644)
}

func (f *fakeMedia) StackSegment(_ context.Context, job ffmpeg.StackJob, _ ffmpeg.Encoder) error {
	f.mu.Lock()
	f.stacked = append(f.stacked, job)
	f.mu.Unlock()
	return os.WriteFile(job.Output, []byte("stack"), 0o644)
}

func (f *fakeMedia) Concat(_ context.Context, parts []string, output string) error {
	if f.failOn == "concat" {
		return errors.New("concat failed")
	}
	f.concat = append([]string(nil), parts...)
	return os.WriteFile(output, []byte("video"), 0o644)
}

func (f *fakeMedia) MixAudio(_ context.Context, inputs []ffmpeg.AudioInput, output string, limit time.Duration) error {
	f.mixed = append([]ffmpeg.AudioInput(nil), inputs...)
	f.mixLimit = limit
	return os.WriteFile(output, []byte("audio"), 0o644)
}

func (f *fakeMedia) Mux(_ context.Context, video, audio, output string) error {
	if f.failOn == "mux" {
		if err := os.WriteFile(output, []byte("half"), 0o644); err != nil {
			return err
		}
		return errors.New("mux failed")
	}
	f.muxed = true
	return os.WriteFile(output, []byte("program"), 0o644)
}

func newStitcher(t *testing.T, media Media) *Stitcher {
	t.Helper()
	return &Stitcher{
		Media:      media,
		Workers:    3,
		ScratchDir: filepath.Join(t.TempDir(), "scratch"),
		Logger:     logging.NewNop(),
	}
}

func instructions() []timeline.Instruction {
	return []timeline.Instruction{
		{Segment: timeline.Segment{Source: 0, Start: 0, Duration: 5 * time.Second}, Path: "/in/ref.mp4", SourceStart: 5 * time.Second},
		{Segment: timeline.Segment{Source: 1, Start: 5 * time.Second, Duration: 10 * time.Second}, Path: "/in/b.mp4", SourceStart: 8 * time.Second},
		{Segment: timeline.Segment{Source: 0, Start: 15 * time.Second, Duration: 3 * time.Second}, Path: "/in/ref.mp4", SourceStart: 20 * time.Second},
	}
}

func TestRenderMultiCam(t *testing.T) {
	media := &fakeMedia{}
	s := newStitcher(t, media)
	output := filepath.Join(t.TempDir(), "out", "program.mp4")
	audio := []ffmpeg.AudioInput{{Path: "/in/b.mp4", Delay: -2 * time.Second}}

	err := s.Render(context.Background(), Job{Pieces: FromInstructions(instructions()), Audio: audio, Output: output})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(media.extracted) != 3 {
		t.Fatalf("expected 3 extractions, got %d", len(media.extracted))
	}
	for i, part := range media.concat {
		if filepath.Base(part) != []string{"seg_0000.mp4", "seg_0001.mp4", "seg_0002.mp4"}[i] {
			t.Fatalf("concat order broken: %v", media.concat)
		}
	}
	if media.mixLimit != 18*time.Second {
		t.Fatalf("expected mix limited to program length, got %v", media.mixLimit)
	}
	if !media.muxed {
		t.Fatal("expected mux")
	}
	data, err := os.ReadFile(output)
	if err != nil || string(data) != "program" {
		t.Fatalf("expected promoted output, got %q %v", data, err)
	}
	for _, job := range media.extracted {
		if job.KeepAudio {
			t.Fatal("multicam pieces should be video-only")
		}
	}
}

func TestRenderWithoutAudioKeepsPieceAudio(t *testing.T) {
	media := &fakeMedia{}
	s := newStitcher(t, media)
	output := filepath.Join(t.TempDir(), "cut.mp4")
	ranges := []timeline.Range{{Start: 0, End: 4 * time.Second}, {Start: 9 * time.Second, End: 12 * time.Second}}

	if err := s.Render(context.Background(), Job{Pieces: FromRanges("/in/talk.mp4", ranges), Output: output}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if media.muxed || media.mixed != nil {
		t.Fatal("expected no mix or mux")
	}
	if data, _ := os.ReadFile(output); string(data) != "video" {
		t.Fatalf("expected concat output promoted, got %q", data)
	}
	for _, job := range media.extracted {
		if !job.KeepAudio {
			t.Fatal("range pieces should keep audio")
		}
	}
}

func TestRenderStepFailures(t *testing.T) {
	for _, step := range []string{"extract", "concat", "mux"} {
		t.Run(step, func(t *testing.T) {
			media := &fakeMedia{failOn: step}
			s := newStitcher(t, media)
			output := filepath.Join(t.TempDir(), "program.mp4")
			err := s.Render(context.Background(), Job{
				Pieces: FromInstructions(instructions()),
				Audio:  []ffmpeg.AudioInput{{Path: "/in/b.mp4"}},
				Output: output,
			})
			var renderErr *services.RenderError
			if !errors.As(err, &renderErr) {
				t.Fatalf("expected RenderError, got %v", err)
			}
			if renderErr.Step != step {
				t.Fatalf("expected step %q, got %q", step, renderErr.Step)
			}
			if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
				t.Fatal("output must not exist after a failed render")
			}
			entries, _ := os.ReadDir(filepath.Dir(output))
			for _, e := range entries {
				if strings.Contains(e.Name(), "partial") {
					t.Fatalf("temporary file left behind: %s", e.Name())
				}
			}
		})
	}
}

func TestRenderRejectsEmptyJob(t *testing.T) {
	s := newStitcher(t, &fakeMedia{})
	err := s.Render(context.Background(), Job{Output: "x.mp4"})
	var renderErr *services.RenderError
	if !errors.As(err, &renderErr) || renderErr.Step != "plan" {
		t.Fatalf("expected plan error, got %v", err)
	}
}

func TestRenderStackPiecesWithProgressBar(t *testing.T) {
	media := &fakeMedia{}
	s := newStitcher(t, media)
	var bar bytes.Buffer
	s.Progress = &bar
	pieces := []Piece{
		{Stack: &ffmpeg.StackJob{Top: ffmpeg.Clip{Path: "a"}, Duration: 5 * time.Second, Width: 1080, Height: 1920}},
		{Stack: &ffmpeg.StackJob{Top: ffmpeg.Clip{Path: "a"}, Bottom: &ffmpeg.Clip{Path: "b"}, Duration: 5 * time.Second, Width: 1080, Height: 1920}},
	}
	output := filepath.Join(t.TempDir(), "short.mp4")
	if err := s.Render(context.Background(), Job{Pieces: pieces, Audio: []ffmpeg.AudioInput{{Path: "a"}}, Output: output}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(media.stacked) != 2 {
		t.Fatalf("expected 2 stacked pieces, got %d", len(media.stacked))
	}
	if media.mixLimit != 10*time.Second {
		t.Fatalf("unexpected mix limit %v", media.mixLimit)
	}
}

func TestMixInputs(t *testing.T) {
	lead := 5 * time.Second
	sources := []timeline.Source{
		{Index: 0, Path: "ref.mp4"},
		{Index: 1, Path: "b.mp4", Offset: 7 * time.Second},
		{Index: 2, Path: "c.mp4", Offset: 2 * time.Second},
		{Index: 3, Path: "d.mp4", Offset: 9 * time.Second},
	}
	inputs := MixInputs(sources, map[int]error{3: errors.New("no audio")}, lead)
	if len(inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %+v", inputs)
	}
	if inputs[0].Path != "b.mp4" || inputs[0].Delay != 2*time.Second {
		t.Fatalf("unexpected first input %+v", inputs[0])
	}
	if inputs[1].Path != "c.mp4" || inputs[1].Delay != -3*time.Second {
		t.Fatalf("unexpected second input %+v", inputs[1])
	}

	only := MixInputs(sources[:1], nil, lead)
	if len(only) != 1 || only[0].Path != "ref.mp4" || only[0].Delay != -lead {
		t.Fatalf("expected reference fallback trimmed by lead, got %+v", only)
	}

	short := ShortMixInputs(sources[:2], nil, lead, 30*time.Second)
	if short[0].Delay != -28*time.Second {
		t.Fatalf("unexpected short delay %v", short[0].Delay)
	}
}
