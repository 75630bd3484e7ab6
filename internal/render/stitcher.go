package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"castcut/internal/fileutil"
	"castcut/internal/logging"
	"castcut/internal/media/ffmpeg"
	"castcut/internal/services"
	"castcut/internal/timeline"
)

// Media is the subset of ffmpeg operations the stitcher drives.
type Media interface {
	ExtractSegment(ctx context.Context, job ffmpeg.SegmentJob, enc ffmpeg.Encoder) error
	StackSegment(ctx context.Context, job ffmpeg.StackJob, enc ffmpeg.Encoder) error
	Concat(ctx context.Context, parts []string, output string) error
	MixAudio(ctx context.Context, inputs []ffmpeg.AudioInput, output string, limit time.Duration) error
	Mux(ctx context.Context, video, audio, output string) error
}

// Piece is one independently rendered part of the output: either a range of
// a file or a stacked vertical segment.
type Piece struct {
	Segment *ffmpeg.SegmentJob
	Stack   *ffmpeg.StackJob
}

// Length returns the piece duration.
func (p Piece) Length() time.Duration {
	switch {
	case p.Segment != nil:
		return p.Segment.Duration
	case p.Stack != nil:
		return p.Stack.Duration
	default:
		return 0
	}
}

func (p Piece) render(ctx context.Context, m Media, enc ffmpeg.Encoder, output string) error {
	switch {
	case p.Segment != nil:
		job := *p.Segment
		job.Output = output
		return m.ExtractSegment(ctx, job, enc)
	case p.Stack != nil:
		job := *p.Stack
		job.Output = output
		return m.StackSegment(ctx, job, enc)
	default:
		return errors.New("empty piece")
	}
}

// FromInstructions converts mapped segments into video-only pieces.
func FromInstructions(instructions []timeline.Instruction) []Piece {
	pieces := make([]Piece, 0, len(instructions))
	for _, inst := range instructions {
		pieces = append(pieces, Piece{Segment: &ffmpeg.SegmentJob{
			Input:    inst.Path,
			Start:    inst.SourceStart,
			Duration: inst.Duration,
		}})
	}
	return pieces
}

// FromRanges converts kept ranges of one file into pieces that carry audio.
func FromRanges(path string, ranges []timeline.Range) []Piece {
	pieces := make([]Piece, 0, len(ranges))
	for _, r := range ranges {
		pieces = append(pieces, Piece{Segment: &ffmpeg.SegmentJob{
			Input:     path,
			Start:     r.Start,
			Duration:  r.Duration(),
			KeepAudio: true,
		}})
	}
	return pieces
}

// Job describes one output.
type Job struct {
	Pieces []Piece
	// Audio, when set, is mixed and muxed under the joined video. When empty
	// the pieces' own audio is kept.
	Audio  []ffmpeg.AudioInput
	Output string
}

// Stitcher renders jobs.
type Stitcher struct {
	Media      Media
	Encoder    ffmpeg.Encoder
	Workers    int
	ScratchDir string
	// Progress receives a live progress bar when set; otherwise progress is
	// logged at bucketed intervals.
	Progress io.Writer
	Logger   *slog.Logger
}

// Render runs the job. Errors are *services.RenderError naming the failed step.
func (s *Stitcher) Render(ctx context.Context, job Job) error {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "render"))
	if len(job.Pieces) == 0 {
		return &services.RenderError{Step: "plan", Err: errors.New("nothing to render")}
	}
	if job.Output == "" {
		return &services.RenderError{Step: "plan", Err: errors.New("output path required")}
	}
	for _, dir := range []string{s.ScratchDir, filepath.Dir(job.Output)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &services.RenderError{Step: "scratch", Err: err}
		}
	}

	started := time.Now()
	parts, err := s.extractAll(ctx, logger, job.Pieces)
	if err != nil {
		return &services.RenderError{Step: "extract", Err: err}
	}

	var total time.Duration
	for _, p := range job.Pieces {
		total += p.Length()
	}

	temp := fileutil.TempSibling(job.Output, "partial")
	defer os.Remove(temp)

	if len(job.Audio) == 0 {
		if err := s.Media.Concat(ctx, parts, temp); err != nil {
			return &services.RenderError{Step: "concat", Err: err}
		}
	} else {
		video := filepath.Join(s.ScratchDir, "video.mp4")
		if err := s.Media.Concat(ctx, parts, video); err != nil {
			return &services.RenderError{Step: "concat", Err: err}
		}
		mix := filepath.Join(s.ScratchDir, "audio.m4a")
		if err := s.Media.MixAudio(ctx, job.Audio, mix, total); err != nil {
			return &services.RenderError{Step: "mix", Err: err}
		}
		if err := s.Media.Mux(ctx, video, mix, temp); err != nil {
			return &services.RenderError{Step: "mux", Err: err}
		}
	}

	if err := fileutil.Promote(temp, job.Output); err != nil {
		return &services.RenderError{Step: "promote", Err: err}
	}
	logger.Info("render complete",
		logging.String("output", job.Output),
		logging.Int("pieces", len(job.Pieces)),
		logging.Duration("program", total),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (s *Stitcher) extractAll(ctx context.Context, logger *slog.Logger, pieces []Piece) ([]string, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	parts := make([]string, len(pieces))
	for i := range pieces {
		parts[i] = filepath.Join(s.ScratchDir, fmt.Sprintf("seg_%04d.mp4", i))
	}

	tick := s.progress(logger, len(pieces))
	defer tick.finish()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, piece := range pieces {
		g.Go(func() error {
			if err := piece.render(gctx, s.Media, s.Encoder, parts[i]); err != nil {
				return fmt.Errorf("piece %d: %w", i, err)
			}
			tick.done()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tick.abort()
		return nil, err
	}
	return parts, nil
}

type ticker struct {
	done   func()
	abort  func()
	finish func()
}

func (s *Stitcher) progress(logger *slog.Logger, total int) ticker {
	if s.Progress != nil {
		p := mpb.New(mpb.WithOutput(s.Progress), mpb.WithWidth(48))
		bar := p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name("extract "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
			),
		)
		return ticker{
			done:   func() { bar.EwmaIncrement(time.Second) },
			abort:  func() { bar.Abort(false) },
			finish: p.Wait,
		}
	}

	var mu sync.Mutex
	completed := 0
	sampler := logging.NewProgressSampler(10)
	return ticker{
		done: func() {
			mu.Lock()
			defer mu.Unlock()
			completed++
			if sampler.ShouldLog("extract", completed, total) {
				logger.Info("extract progress",
					logging.Int("done", completed),
					logging.Int("total", total),
					logging.Float64("percent", logging.Percent(completed, total)),
				)
			}
		},
		abort:  func() {},
		finish: func() {},
	}
}
