package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"castcut/internal/config"
)

// ConfigOption adjusts the generated test configuration.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns defaults rooted in a fresh temp directory: work, output
// and log directories are created, and extraction uses two workers so tests
// exercise the concurrent path without oversubscribing CI.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Render.Workers = 2
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(t, &cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// BaseDir returns the temp directory backing a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WithOffsets pins per-file offsets so no aligner is invoked.
func WithOffsets(offsets map[string]float64) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Alignment.Offsets = offsets
	}
}

// WithLead overrides the duplicated reference lead.
func WithLead(seconds float64) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Alignment.LeadSeconds = seconds
	}
}

// WithStubbedTools installs no-op executables for ffmpeg, ffprobe and the
// aligner in a bin directory beside the config and puts it first on PATH.
func WithStubbedTools() ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		binDir := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range []string{cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.AlignerBinary()} {
			stub := filepath.Join(binDir, filepath.Base(name))
			if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
