package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"castcut/internal/logs"
)

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castcut.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logs.Tail(path, 2, nil)
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", result.Offset)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(filepath.Join(t.TempDir(), "absent.log"), 10, nil)
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTailFiltersByRunAndLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castcut.log")
	content := "" +
		"2026-10-19 10:00:00 INFO [pipeline] run aaaa1111 – run started\n" +
		"2026-10-19 10:00:01 INFO [pipeline] run bbbb2222 – run started\n" +
		"2026-10-19 10:00:02 WARN [align] run aaaa1111 · align – alignment fallback\n" +
		`{"ts":"2026-10-19T10:00:03Z","level":"ERROR","msg":"stage failed","run_id":"aaaa1111-2222-3333"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logs.Tail(path, 10, logs.RunFilter("aaaa1111-2222-3333"))
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 3 {
		t.Fatalf("expected 3 lines for run aaa, got %#v", result.Lines)
	}

	result, err = logs.Tail(path, 10, logs.All(logs.RunFilter("aaaa1111-2222-3333"), logs.LevelFilter("warn")))
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected warn and error lines, got %#v", result.Lines)
	}
	if logs.All(nil, nil) != nil || logs.RunFilter(" ") != nil || logs.LevelFilter("debug") != nil {
		t.Fatal("empty filters should collapse to nil")
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castcut.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	initial, err := logs.Tail(path, 1, nil)
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, initial.Offset, logs.RunFilter("keep"), func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
			if line == "keep later" {
				cancel()
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("drop this\nkeep later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("follow did not return")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "keep later" {
		t.Fatalf("unexpected followed lines %#v", got)
	}
}
