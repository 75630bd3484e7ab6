package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"castcut/internal/align"
	"castcut/internal/config"
	"castcut/internal/history"
	"castcut/internal/loudness"
	"castcut/internal/media/autoeditor"
	"castcut/internal/media/ffmpeg"
	"castcut/internal/media/ffprobe"
	"castcut/internal/notifications"
	"castcut/internal/render"
	"castcut/internal/staging"
	"castcut/internal/timeline"
)

// Media is every ffmpeg operation a run performs. *ffmpeg.Runner implements it.
type Media interface {
	render.Media
	staging.Media
	loudness.AudioExtractor
	Enhance(ctx context.Context, input, output string, opts ffmpeg.EnhanceOptions) error
}

// JumpCutFunc removes silence from input into output.
type JumpCutFunc func(ctx context.Context, binary, input, output string, margin time.Duration) error

// Pipeline runs castcut commands against one configuration.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	media    Media
	probe    staging.ProbeFunc
	oracle   align.Oracle
	measurer loudness.Measurer
	history  *history.Store
	progress io.Writer
	jumpCut  JumpCutFunc
	notifier notifications.Service
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMedia replaces the ffmpeg runner.
func WithMedia(media Media) Option {
	return func(p *Pipeline) { p.media = media }
}

// WithProbe replaces ffprobe inspection.
func WithProbe(probe staging.ProbeFunc) Option {
	return func(p *Pipeline) { p.probe = probe }
}

// WithOracle replaces the external aligner.
func WithOracle(oracle align.Oracle) Option {
	return func(p *Pipeline) { p.oracle = oracle }
}

// WithMeasurer replaces WAV-based loudness measurement.
func WithMeasurer(m loudness.Measurer) Option {
	return func(p *Pipeline) { p.measurer = m }
}

// WithHistory records runs in store.
func WithHistory(store *history.Store) Option {
	return func(p *Pipeline) { p.history = store }
}

// WithProgress draws extraction progress bars on w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

// WithJumpCut replaces the auto-editor invocation.
func WithJumpCut(fn JumpCutFunc) Option {
	return func(p *Pipeline) { p.jumpCut = fn }
}

// WithNotifier replaces the ntfy notifier built from configuration.
func WithNotifier(n notifications.Service) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// New builds a pipeline for cfg.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, jumpCut: autoeditor.Run}
	for _, opt := range opts {
		opt(p)
	}
	if p.media == nil {
		p.media = ffmpeg.New(
			ffmpeg.WithBinary(cfg.FFmpegBinary()),
			ffmpeg.WithAudioBitrate(cfg.Render.AudioBitrate),
			ffmpeg.WithLogger(p.logger),
		)
	}
	if p.probe == nil {
		binary := cfg.FFprobeBinary()
		p.probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, binary, path)
		}
	}
	if p.notifier == nil {
		p.notifier = notifications.NewService(cfg)
	}
	if p.oracle == nil {
		p.oracle = align.NewCLIOracle(cfg.AlignerBinary())
	}
	return p
}

// SelectionParams converts the [selection] section into engine parameters.
func SelectionParams(cfg *config.Config) timeline.Params {
	p := timeline.DefaultParams()
	p.Window = config.Seconds(cfg.Selection.WindowSeconds)
	p.ExhaustionMargin = config.Seconds(cfg.Selection.ExhaustionMarginSeconds)
	p.TailMargin = config.Seconds(cfg.Selection.TailMarginSeconds)
	p.MarginRatio = cfg.Selection.MarginRatio
	p.MaxUnfocused = cfg.Selection.MaxUnfocused
	p.MaxFocused = cfg.Selection.MaxFocused
	return p
}

// Encoder converts the [render] section into encoder settings. width and
// height pin the output frame; zero keeps each segment's own size.
func Encoder(cfg *config.Config, width, height int) ffmpeg.Encoder {
	return ffmpeg.Encoder{
		CRF:       cfg.Render.CRF,
		Preset:    cfg.Render.Preset,
		GOP:       cfg.Render.GOP,
		FrameRate: cfg.Render.FrameRate,
		Threads:   cfg.Render.Threads,
		Width:     width,
		Height:    height,
	}
}
