package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"castcut/internal/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedClock(store *Store, start time.Time) func(time.Duration) {
	current := start
	store.now = func() time.Time { return current }
	return func(d time.Duration) { current = current.Add(d) }
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	advance := fixedClock(store, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	run, err := store.Start(ctx, "run-1", KindMulticam, "/out/episode.mp4", 3)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if run.Status != StatusRunning || run.Sources != 3 || run.Kind != KindMulticam {
		t.Fatalf("unexpected run %+v", run)
	}

	if err := store.SetStage(ctx, "run-1", "profile"); err != nil {
		t.Fatalf("SetStage failed: %v", err)
	}
	advance(90 * time.Second)
	if err := store.Complete(ctx, "run-1", Outcome{Segments: 42, Cuts: 17, Program: 1805 * time.Second}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusCompleted || got.Stage != "profile" || got.Segments != 42 || got.Cuts != 17 {
		t.Fatalf("unexpected completed run %+v", got)
	}
	if got.Program != 1805*time.Second {
		t.Fatalf("unexpected program length %v", got.Program)
	}
	if got.FinishedAt == nil || got.Elapsed(time.Time{}) != 90*time.Second {
		t.Fatalf("unexpected elapsed %v", got.Elapsed(time.Time{}))
	}
}

func TestFailRecordsFailureKind(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if _, err := store.Start(ctx, "run-2", KindCut, "/out/cut.mp4", 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	runErr := fmt.Errorf("render: %w", &services.RenderError{Step: "concat", Err: errors.New("exit status 1")})
	if err := store.Fail(ctx, "run-2", runErr); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	got, err := store.Get(ctx, "run-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusFailed || got.FailureKind != "render" || got.ErrorMessage == "" {
		t.Fatalf("unexpected failed run %+v", got)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	run, err := store.Get(context.Background(), "nope")
	if err != nil || run != nil {
		t.Fatalf("expected nil run, got %+v %v", run, err)
	}
}

func TestStartRequiresID(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Start(context.Background(), "", KindShort, "x.mp4", 2); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestListOrdersNewestFirstAndFilters(t *testing.T) {
	store := openTestStore(t)
	advance := fixedClock(store, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		id := fmt.Sprintf("run-%d", i)
		if _, err := store.Start(ctx, id, KindMulticam, "/out/"+id+".mp4", 2); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if i%2 == 0 {
			if err := store.Complete(ctx, id, Outcome{}); err != nil {
				t.Fatalf("Complete failed: %v", err)
			}
		}
		advance(time.Minute)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 || all[0].ID != "run-4" || all[3].ID != "run-1" {
		t.Fatalf("unexpected order %v", ids(all))
	}
	limited, err := store.List(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("expected 2 runs, got %v %v", ids(limited), err)
	}
	running, err := store.List(ctx, 0, StatusRunning)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(running) != 2 || running[0].ID != "run-3" {
		t.Fatalf("unexpected running runs %v", ids(running))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[StatusRunning] != 2 || stats[StatusCompleted] != 2 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestReclaimStaleAndPrune(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	advance := fixedClock(store, base)
	ctx := context.Background()

	if _, err := store.Start(ctx, "old", KindMulticam, "/out/a.mp4", 2); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	advance(2 * time.Hour)
	if _, err := store.Start(ctx, "fresh", KindMulticam, "/out/b.mp4", 2); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	reclaimed, err := store.ReclaimStale(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReclaimStale failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed run, got %d", reclaimed)
	}
	old, _ := store.Get(ctx, "old")
	if old.Status != StatusFailed || old.FailureKind != "interrupted" {
		t.Fatalf("unexpected reclaimed run %+v", old)
	}

	pruned, err := store.Prune(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned run, got %d", pruned)
	}
	if fresh, _ := store.Get(ctx, "fresh"); fresh == nil {
		t.Fatal("running run must survive prune")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	path := store.Path()
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = db.Close()

	if _, err := Open(dir); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func ids(runs []*Run) []string {
	out := make([]string, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.ID)
	}
	return out
}
