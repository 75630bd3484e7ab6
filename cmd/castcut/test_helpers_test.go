package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"castcut/internal/align"
	"castcut/internal/config"
	"castcut/internal/logging"
	"castcut/internal/loudness"
	"castcut/internal/media/ffmpeg"
	"castcut/internal/media/ffprobe"
	"castcut/internal/pipeline"
	"castcut/internal/testsupport"
	"castcut/internal/timeline"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	inputs     []string
	media      *stubMedia
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	opts = append([]testsupport.ConfigOption{testsupport.WithLead(0), testsupport.WithOffsets(map[string]float64{"guest.mp4": 0})}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Render.NormalizeAudio = false
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "castcut.toml")
	writeTestConfig(t, configPath, cfg)

	inputs := []string{filepath.Join(base, "in", "host.mp4"), filepath.Join(base, "in", "guest.mp4")}
	for _, in := range inputs {
		testsupport.WriteFile(t, in, 16)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, inputs: inputs, media: &stubMedia{}}
}

func (e *cliTestEnv) options() []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithLogger(logging.NewNop()),
		pipeline.WithMedia(e.media),
		pipeline.WithProbe(func(_ context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Result{
				Streams: []ffprobe.Stream{{CodecType: "video", Width: 1280, Height: 720}},
				Format:  ffprobe.Format{Duration: strconv.Itoa(30)},
			}, nil
		}),
		pipeline.WithOracle(align.StaticOracle{}),
		pipeline.WithMeasurer(stubMeasurer{"host.mp4": 0.1, "guest.mp4": 0.9}),
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(env.options()...)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

type stubMedia struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubMedia) write(op, path string) error {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	s.mu.Unlock()
	return os.WriteFile(path, []byte(op), 0o644)
}

func (s *stubMedia) ExtractSegment(_ context.Context, job ffmpeg.SegmentJob, _ ffmpeg.Encoder) error {
	return s.write("extract", job.Output)
}

func (s *stubMedia) StackSegment(_ context.Context, job ffmpeg.StackJob, _ ffmpeg.Encoder) error {
	return s.write("stack", job.Output)
}

func (s *stubMedia) Concat(_ context.Context, _ []string, output string) error {
	return s.write("concat", output)
}

func (s *stubMedia) MixAudio(_ context.Context, _ []ffmpeg.AudioInput, output string, _ time.Duration) error {
	return s.write("mix", output)
}

func (s *stubMedia) Mux(_ context.Context, _, _, output string) error {
	return s.write("mux", output)
}

func (s *stubMedia) NormalizeAudio(_ context.Context, _, output string) error {
	return s.write("normalize", output)
}

func (s *stubMedia) PrependLead(_ context.Context, _, output string, _ time.Duration, _ ffmpeg.Encoder) error {
	return s.write("lead", output)
}

func (s *stubMedia) ExtractAudio(_ context.Context, _, output string, _ int) error {
	return s.write("audio", output)
}

func (s *stubMedia) Enhance(_ context.Context, _, output string, _ ffmpeg.EnhanceOptions) error {
	return s.write("enhance", output)
}

// stubMeasurer gives every source a constant level for 30 seconds.
type stubMeasurer map[string]float64

func (m stubMeasurer) Measure(_ context.Context, src timeline.Source) (loudness.Samples, error) {
	level := m[filepath.Base(src.Path)]
	peaks := make([]float64, 30)
	for i := range peaks {
		peaks[i] = level
	}
	return loudness.Samples{Block: time.Second, SamplesPerBlock: 1, Peak: peaks, SumSquares: peaks}, nil
}
