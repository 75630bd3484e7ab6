package align

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"castcut/internal/services"
)

func stubAligner(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string{name}, args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "ALIGNER_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("ALIGNER_HELPER_MODE") {
	case "flat":
		fmt.Println(`{"guest.mp4": 2.5, "host.mp4": 0.125}`)
		os.Exit(0)
	case "editlist":
		fmt.Println(`{"edit_list": [["main.mp4", {"pad": 0}], ["guest.mp4", {"pad": 1.75}]]}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "could not fingerprint main.mp4")
		os.Exit(2)
	default:
		os.Exit(0)
	}
}

func TestCLIOracleParsesFlatOutput(t *testing.T) {
	var captured []string
	stubAligner(t, "flat", &captured)

	oracle := NewCLIOracle("/opt/bin/aligner")
	got, err := oracle.Offsets(context.Background(), []string{"/in/main.mp4", "/in/guest.mp4", "/in/host.mp4"})
	if err != nil {
		t.Fatalf("Offsets: %v", err)
	}
	if got["guest.mp4"] != 2.5 || got["host.mp4"] != 0.125 {
		t.Fatalf("unexpected offsets %v", got)
	}
	if captured[0] != "/opt/bin/aligner" || captured[1] != "--json" || captured[2] != "/in/main.mp4" {
		t.Fatalf("unexpected invocation %v", captured)
	}
}

func TestCLIOracleParsesEditList(t *testing.T) {
	stubAligner(t, "editlist", nil)
	got, err := NewCLIOracle("").Offsets(context.Background(), []string{"main.mp4", "guest.mp4"})
	if err != nil {
		t.Fatalf("Offsets: %v", err)
	}
	if got["guest.mp4"] != 1.75 {
		t.Fatalf("unexpected offsets %v", got)
	}
}

func TestCLIOracleFailure(t *testing.T) {
	stubAligner(t, "failure", nil)
	_, err := NewCLIOracle("aligner").Offsets(context.Background(), []string{"main.mp4", "guest.mp4"})
	if err == nil || !strings.Contains(err.Error(), "could not fingerprint") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestParseOffsetsRejectsGarbage(t *testing.T) {
	for _, payload := range []string{`not json`, `{"edit_list": [["a.mp4"]]}`, `{"edit_list": [["a.mp4", {}]]}`, `{"a.mp4": "x"}`} {
		if _, err := ParseOffsets([]byte(payload)); err == nil {
			t.Fatalf("expected error for %s", payload)
		}
	}
}

func TestResolverAppliesInvariants(t *testing.T) {
	r := &Resolver{Oracle: StaticOracle{
		"guest.mp4":    2.5,
		"negative.mp4": -1,
	}}
	paths := []string{"/in/main.mp4", "/in/guest.mp4", "/in/negative.mp4", "/in/missing.mp4"}

	offsets, problems := r.Resolve(context.Background(), paths)
	if len(offsets) != len(paths) {
		t.Fatalf("expected %d offsets, got %d", len(paths), len(offsets))
	}
	if offsets[0] != 0 {
		t.Fatalf("reference offset must be 0, got %s", offsets[0])
	}
	if offsets[1] != 2500*time.Millisecond {
		t.Fatalf("unexpected guest offset %s", offsets[1])
	}
	if offsets[2] != 0 || offsets[3] != 0 {
		t.Fatalf("unaligned sources must fall back to 0: %v", offsets)
	}
	if len(problems) != 2 {
		t.Fatalf("expected two alignment problems, got %v", problems)
	}
	for _, p := range problems {
		var alignErr *services.AlignmentError
		if !errors.As(p, &alignErr) {
			t.Fatalf("expected AlignmentError, got %T", p)
		}
	}
}

func TestResolverOverridesSkipOracle(t *testing.T) {
	called := false
	r := &Resolver{
		Oracle:    oracleFunc(func() { called = true }),
		Overrides: map[string]float64{"guest.mp4": 4},
	}
	offsets, problems := r.Resolve(context.Background(), []string{"main.mp4", "/x/guest.mp4"})
	if called {
		t.Fatal("oracle should not run when overrides cover every source")
	}
	if len(problems) != 0 || offsets[1] != 4*time.Second {
		t.Fatalf("unexpected result %v %v", offsets, problems)
	}
}

func TestResolverOracleFailureFallsBack(t *testing.T) {
	stubAligner(t, "failure", nil)
	r := &Resolver{Oracle: NewCLIOracle("aligner")}
	offsets, problems := r.Resolve(context.Background(), []string{"main.mp4", "guest.mp4"})
	if offsets[1] != 0 || len(problems) != 1 {
		t.Fatalf("unexpected result %v %v", offsets, problems)
	}
	if !strings.Contains(problems[0].Error(), "aligner failed") {
		t.Fatalf("unexpected problem %v", problems[0])
	}
}

func TestResolverFallbackWarnsAboutLead(t *testing.T) {
	var buf bytes.Buffer
	r := &Resolver{
		Oracle: StaticOracle{},
		Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
	}
	offsets, problems := r.Resolve(context.Background(), []string{"main.mp4", "guest.mp4"})
	if offsets[1] != 0 || len(problems) != 1 {
		t.Fatalf("unexpected result %v %v", offsets, problems)
	}

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode warning %q: %v", buf.String(), err)
	}
	if payload["event_type"] != "alignment_fallback" {
		t.Fatalf("unexpected event %v", payload)
	}
	if impact, _ := payload["impact"].(string); !strings.Contains(impact, "lead-prepended reference") {
		t.Fatalf("impact should explain where offset 0 places the source, got %q", impact)
	}
}

func TestResolverDisabled(t *testing.T) {
	r := &Resolver{Oracle: StaticOracle{"guest.mp4": 3}, Disabled: true}
	offsets, problems := r.Resolve(context.Background(), []string{"main.mp4", "guest.mp4"})
	if offsets[1] != 0 || problems != nil {
		t.Fatalf("disabled alignment should yield zeros: %v %v", offsets, problems)
	}
}

type oracleFunc func()

func (f oracleFunc) Offsets(context.Context, []string) (map[string]float64, error) {
	f()
	return nil, nil
}
