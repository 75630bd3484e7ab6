package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"castcut/internal/config"
	"castcut/internal/deps"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed || !strings.Contains(result.Detail, "free") {
		t.Fatalf("expected pass with tiny minimum, got %+v", result)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed || !strings.Contains(result.Detail, "need") {
		t.Fatalf("expected failure with huge minimum, got %+v", result)
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected statfs failure for missing path")
	}
}

func TestCheckSystemDepsAlignerOptionalWithPinnedOffsets(t *testing.T) {
	cfg := config.Default()
	cfg.Alignment.Offsets = map[string]float64{"guest.mp4": 1.5}
	statuses := CheckSystemDeps(context.Background(), &cfg)
	byName := map[string]deps.Status{}
	for _, s := range statuses {
		byName[s.Name] = s
	}
	if !byName["Aligner"].Optional {
		t.Fatal("aligner should be optional when offsets are pinned")
	}
	if byName["FFmpeg"].Optional || byName["FFprobe"].Optional {
		t.Fatal("ffmpeg and ffprobe are always required")
	}
	if !byName["auto-editor"].Optional {
		t.Fatal("auto-editor should be optional")
	}
}

func TestRunAllReportsMissingTools(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.LogDir = ""
	cfg.Tools.FFmpeg = "castcut-missing-ffmpeg"
	cfg.Tools.FFprobe = "castcut-missing-ffprobe"
	cfg.Alignment.Enabled = false

	results := RunAll(context.Background(), &cfg)
	failed := Failed(results)
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "FFmpeg") || !strings.Contains(joined, "FFprobe") {
		t.Fatalf("expected missing ffmpeg/ffprobe, got %v", names)
	}
	if strings.Contains(joined, "Aligner") || strings.Contains(joined, "Output directory") {
		t.Fatalf("unexpected failures %v", names)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results")
	}
}

func TestFromStatusShowsVersion(t *testing.T) {
	result := FromStatus(deps.Status{
		Name:        "FFmpeg",
		Path:        "/usr/bin/ffmpeg",
		Available:   true,
		Version:     "ffmpeg version 7.1",
		Description: "Required for extraction, mixing and muxing",
	})
	if !result.Passed || result.Detail != "ffmpeg version 7.1, /usr/bin/ffmpeg (Required for extraction, mixing and muxing)" {
		t.Fatalf("unexpected result %+v", result)
	}
	missing := FromStatus(deps.Status{Name: "Aligner", Optional: true, Detail: "binary \"audalign-cli\" not found"})
	if missing.Passed || !missing.Optional || !strings.Contains(missing.Detail, "not found") {
		t.Fatalf("unexpected result %+v", missing)
	}
}
