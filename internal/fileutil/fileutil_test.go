package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestTempSiblingKeepsExtension(t *testing.T) {
	got := TempSibling("/out/episode.mp4", "")
	if got != "/out/.episode.partial.mp4" {
		t.Fatalf("TempSibling = %q", got)
	}
	if got := TempSibling("/out/episode.mp4", "mux"); got != "/out/.episode.mux.mp4" {
		t.Fatalf("TempSibling = %q", got)
	}
}

func TestPromoteReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "final.mp4")
	tmp := filepath.Join(dir, "work.mp4")
	if err := os.WriteFile(tmp, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Promote(tmp, dst); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "new" {
		t.Fatalf("unexpected destination %q %v", got, err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone, got %v", err)
	}
}

func TestPromoteMissingTemp(t *testing.T) {
	dir := t.TempDir()
	if err := Promote(filepath.Join(dir, "missing"), filepath.Join(dir, "dst.mp4")); err == nil {
		t.Fatal("expected error")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Épisode 12 – Invité": "Episode_12_Invite",
		"cam 1 (wide).final":  "cam_1_wide_.final",
		"...":                 "untitled",
		"  ":                  "untitled",
		"host-cam":            "host-cam",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/a/b/guest.cam.mp4"); got != "guest.cam" {
		t.Fatalf("Stem = %q", got)
	}
}
