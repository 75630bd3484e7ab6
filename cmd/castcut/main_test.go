package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"castcut/internal/logging"
	"castcut/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)
	requireContains(t, out, "Alignment: 1 pinned offsets, 0s lead")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigShowPrintsEffectiveValues(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "margin_ratio")
	requireContains(t, out, env.cfg.Paths.WorkDir)
}

func TestPlanPrintsSegments(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, append([]string{"plan"}, env.inputs...)...)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "guest.mp4")
	requireContains(t, out, "3 segments, 2 cuts")

	out, _, err = runCLI(t, env, append([]string{"plan", "--windows"}, env.inputs...)...)
	if err != nil {
		t.Fatalf("plan --windows: %v", err)
	}
	requireContains(t, out, "bootstrap")
	requireContains(t, out, "tail")
}

func TestPlanJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, append([]string{"plan", "--json", "--offset", "guest.mp4=1.5"}, env.inputs...)...)
	if err != nil {
		t.Fatalf("plan --json: %v", err)
	}
	var view planJSON
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	if view.ProgramSeconds != 30 || len(view.Windows) != 6 {
		t.Fatalf("unexpected plan %+v", view)
	}
	if view.Sources[1].OffsetSeconds != 1.5 {
		t.Fatalf("expected pinned offset, got %+v", view.Sources[1])
	}
}

func TestProfileTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, append([]string{"profile"}, env.inputs...)...)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	requireContains(t, out, "0.9000")
	requireContains(t, out, "1 guest.mp4")
}

func TestMulticamRecordsRun(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(t.TempDir(), "episode.mp4")

	out, _, err := runCLI(t, env, append([]string{"multicam", "-o", output}, env.inputs...)...)
	if err != nil {
		t.Fatalf("multicam: %v", err)
	}
	requireContains(t, out, "Wrote "+output)
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output: %v", err)
	}

	out, _, err = runCLI(t, env, "runs", "list")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "multicam")
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, env, "runs", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("runs list --status: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestCutRequiresRanges(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "cut", env.inputs[0]); err == nil {
		t.Fatal("expected cut without ranges to fail")
	}
	out, _, err := runCLI(t, env, "cut", env.inputs[0], "--remove", "0:10-0:12", "--remove", "20-25")
	if err != nil {
		t.Fatalf("cut: %v", err)
	}
	requireContains(t, out, "kept in 3 ranges")
}

func TestShortDefaultsTillAndClamps(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, append([]string{"short", "--start", "15"}, env.inputs...)...)
	if err != nil {
		t.Fatalf("short: %v", err)
	}
	requireContains(t, out, "0:15.000-0:30.000")
}

func TestRunsPrune(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "runs", "prune", "--older-than", time.Hour.String())
	if err != nil {
		t.Fatalf("runs prune: %v", err)
	}
	requireContains(t, out, "deleted 0 finished runs")
}

func TestDoctorListsChecks(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedTools())

	out, _, _ := runCLI(t, env, "doctor")
	requireContains(t, out, "Work directory")
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "FFmpeg") || strings.Contains(line, "FFprobe") {
			if !strings.Contains(line, " ok ") {
				t.Fatalf("expected stubbed tool to pass, got %q", line)
			}
		}
	}
}

func TestLogsFiltersByRunAndLevel(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "2026-10-19 10:00:00 INFO [pipeline] run 0a1b2c3d – run started\n" +
		"2026-10-19 10:00:01 WARN [align] run 0a1b2c3d · align – alignment fallback\n" +
		"2026-10-19 10:00:02 WARN [align] run ffff0000 · align – alignment fallback\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, env, "logs", "--run", "0a1b2c3d-9999-4000-8000-000000000000", "--level", "warn")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "0a1b2c3d · align") {
		t.Fatalf("unexpected filtered lines %q", out)
	}

	out, _, err = runCLI(t, env, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs -n: %v", err)
	}
	if strings.Contains(out, "run started") || !strings.Contains(out, "ffff0000") {
		t.Fatalf("expected the last two lines, got %q", out)
	}
}

func TestNotifyTestPostsToTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if _, _, err := runCLI(t, env, "notify", "test"); err == nil {
		t.Fatal("expected notify test without a topic to fail")
	}

	env.cfg.Notifications.NtfyTopic = server.URL + "/castcut"
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err := runCLI(t, env, "notify", "test")
	if err != nil {
		t.Fatalf("notify test: %v", err)
	}
	requireContains(t, out, "Sent test notification")
	if body == "" {
		t.Fatal("expected notification body to be posted")
	}
}
