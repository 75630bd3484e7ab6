package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"castcut/internal/logging"
)

var commandContext = exec.CommandContext

// Encoder carries the video settings applied to every re-encoded segment.
// All segments of a program share one Encoder so the concat demuxer can join
// them without re-encoding.
type Encoder struct {
	CRF       int
	Preset    string
	GOP       int
	FrameRate int
	Threads   int
	// Width and Height, when set, letterbox every segment to a common frame.
	Width  int
	Height int
}

// Runner executes ffmpeg with a fixed binary and logger.
type Runner struct {
	binary       string
	audioBitrate string
	logger       *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the ffmpeg executable.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(binary) != "" {
			r.binary = strings.TrimSpace(binary)
		}
	}
}

// WithAudioBitrate sets the AAC bitrate used for mixed and muxed audio.
func WithAudioBitrate(bitrate string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(bitrate) != "" {
			r.audioBitrate = strings.TrimSpace(bitrate)
		}
	}
}

// WithLogger attaches a logger; commands are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Runner using defaults.
func New(opts ...Option) *Runner {
	r := &Runner{binary: "ffmpeg", audioBitrate: "256k", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "ffmpeg")
	return r
}

// Binary returns the configured executable.
func (r *Runner) Binary() string {
	return r.binary
}

func (r *Runner) run(ctx context.Context, op string, args ...string) error {
	full := append([]string{"-y", "-hide_banner", "-nostdin", "-loglevel", "error"}, args...)
	r.logger.Debug("ffmpeg command",
		logging.String("op", op),
		logging.String("args", strings.Join(full, " ")),
	)
	started := time.Now()
	cmd := commandContext(ctx, r.binary, full...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg %s: %w", op, ctx.Err())
		}
		return fmt.Errorf("ffmpeg %s: %w: %s", op, err, strings.TrimSpace(stderr.String()))
	}
	r.logger.Debug("ffmpeg finished",
		logging.String("op", op),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func (e Encoder) videoArgs() []string {
	preset := e.Preset
	if preset == "" {
		preset = "ultrafast"
	}
	gop := e.GOP
	if gop <= 0 {
		gop = 15
	}
	args := []string{
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", strconv.Itoa(e.CRF),
		"-pix_fmt", "yuv420p",
		"-g", strconv.Itoa(gop),
		"-keyint_min", strconv.Itoa(gop),
		"-sc_threshold", "0",
		"-force_key_frames", "expr:eq(n,0)",
	}
	if e.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(e.Threads))
	}
	return args
}

// frameFilter returns the filter chain that normalizes geometry and frame
// rate, or "" when neither is configured.
func (e Encoder) frameFilter() string {
	var parts []string
	if e.Width > 0 && e.Height > 0 {
		parts = append(parts,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", e.Width, e.Height),
			fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", e.Width, e.Height),
			"setsar=1",
		)
	}
	if e.FrameRate > 0 {
		parts = append(parts, "fps="+strconv.Itoa(e.FrameRate))
	}
	return strings.Join(parts, ",")
}
