package ffprobe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 || !result.HasAudio() {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.Duration() != 123450*time.Millisecond {
		t.Fatalf("unexpected duration: %v", result.Duration())
	}
	if w, h, ok := result.VideoSize(); !ok || w != 1920 || h != 1080 {
		t.Fatalf("unexpected size %dx%d %v", w, h, ok)
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "10.5"}, {CodecType: "audio", Duration: "11.25"}},
		Format:  Format{Duration: "N/A", Size: "-1"},
	}
	if result.Duration() != 11250*time.Millisecond {
		t.Fatalf("unexpected duration: %v", result.Duration())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.HasAudio() != true {
		t.Fatal("expected audio")
	}
	if _, _, ok := (Result{}).VideoSize(); ok {
		t.Fatal("expected no video size")
	}
}

func TestInspectParsesOutput(t *testing.T) {
	var captured []string
	stubCommand(t, "probe", &captured)

	result, err := Inspect(context.Background(), "", "/media/cam1.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.Duration() != 30*time.Second || !result.HasAudio() {
		t.Fatalf("unexpected result %+v", result)
	}
	if captured[len(captured)-1] != "/media/cam1.mp4" || captured[len(captured)-2] != "--" {
		t.Fatalf("expected path after --, got %v", captured)
	}
}

func TestInspectReportsFailure(t *testing.T) {
	stubCommand(t, "failure", nil)
	_, err := Inspect(context.Background(), "ffprobe", "/media/missing.mp4")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "No such file") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestInspectRequiresPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func stubCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string(nil), args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFPROBE_HELPER_MODE="+mode)
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
	switch os.Getenv("FFPROBE_HELPER_MODE") {
	case "probe":
		fmt.Println(`{"streams":[{"index":0,"codec_type":"video","width":1280,"height":720},{"index":1,"codec_type":"audio","sample_rate":"44100","channels":2}],"format":{"duration":"30.000000","nb_streams":2}}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "/media/missing.mp4: No such file or directory")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
