package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"castcut/internal/logging"
	"castcut/internal/media/ffmpeg"
	"castcut/internal/media/ffprobe"
	"castcut/internal/services"
	"castcut/internal/timeline"
)

// Media is the subset of ffmpeg operations staging needs.
type Media interface {
	NormalizeAudio(ctx context.Context, input, output string) error
	PrependLead(ctx context.Context, input, output string, lead time.Duration, enc ffmpeg.Encoder) error
}

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Stager stages the inputs of one run.
type Stager struct {
	Media     Media
	Probe     ProbeFunc
	Encoder   ffmpeg.Encoder
	Normalize bool
	Lead      time.Duration
	Dir       string
	Workers   int
	Logger    *slog.Logger
}

// Staged is the result of staging.
type Staged struct {
	// Sources carry staged paths and probed durations; offsets are unset.
	Sources []timeline.Source
	// Probes holds the ffprobe result of every staged file.
	Probes []ffprobe.Result
}

// Stage prepares inputs; inputs[0] is the reference.
func (s *Stager) Stage(ctx context.Context, inputs []string) (Staged, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "staging"))
	if len(inputs) == 0 {
		return Staged{}, errors.New("stage: no inputs")
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return Staged{}, &services.SourceUnavailableError{Path: in, Err: err}
		}
	}

	staged := Staged{
		Sources: make([]timeline.Source, len(inputs)),
		Probes:  make([]ffprobe.Result, len(inputs)),
	}
	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		g.Go(func() error {
			path, err := s.stageOne(services.WithSource(gctx, i), i, in)
			if err != nil {
				return err
			}
			probe, err := s.Probe(gctx, path)
			if err != nil {
				return &services.SourceUnavailableError{Path: in, Err: err}
			}
			staged.Sources[i] = timeline.Source{Index: i, Path: path, Duration: probe.Duration()}
			staged.Probes[i] = probe
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Staged{}, err
	}

	for _, src := range staged.Sources {
		logger.Info("source staged",
			logging.Int(logging.FieldSource, src.Index),
			logging.String("path", filepath.Base(src.Path)),
			logging.Duration("duration", src.Duration),
		)
	}
	return staged, nil
}

func (s *Stager) stageOne(ctx context.Context, index int, input string) (string, error) {
	if !s.Normalize && (index != timeline.ReferenceIndex || s.Lead <= 0) {
		return input, nil
	}
	dir := filepath.Join(s.Dir, "src"+strconv.Itoa(index))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("stage %s: %w", filepath.Base(input), err)
	}
	base := filepath.Base(input)
	current := input

	if s.Normalize {
		out := filepath.Join(dir, base)
		if index == timeline.ReferenceIndex && s.Lead > 0 {
			out = filepath.Join(dir, "normalized_"+base)
		}
		if err := s.Media.NormalizeAudio(ctx, current, out); err != nil {
			return "", fmt.Errorf("normalize %s: %w", base, err)
		}
		current = out
	}
	if index == timeline.ReferenceIndex && s.Lead > 0 {
		out := filepath.Join(dir, base)
		if err := s.Media.PrependLead(ctx, current, out, s.Lead, s.Encoder); err != nil {
			return "", fmt.Errorf("prepend lead to %s: %w", base, err)
		}
		if current != input {
			_ = os.Remove(current)
		}
		current = out
	}
	return current, nil
}

// Screenshares turns screen-share recordings into de-focus windows. Files
// whose names carry no start timestamp are skipped with a warning.
func Screenshares(ctx context.Context, probe ProbeFunc, paths []string, logger *slog.Logger) ([]timeline.DeFocusWindow, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "staging"))
	var windows []timeline.DeFocusWindow
	for _, path := range paths {
		if _, ok := timeline.ParseScreenshareStart(filepath.Base(path)); !ok {
			logging.WarnWithContext(logger, "screen share skipped", "screenshare_skipped",
				logging.String("path", filepath.Base(path)),
				logging.String(logging.FieldImpact, "cameras are not de-focused during this recording"),
				logging.String(logging.FieldErrorHint, "name the file with its start time, e.g. share_12m_30s_0ms.mp4"),
			)
			continue
		}
		result, err := probe(ctx, path)
		if err != nil {
			return nil, &services.SourceUnavailableError{Path: path, Err: err}
		}
		w, ok := timeline.ScreenshareWindow(filepath.Base(path), result.Duration())
		if !ok {
			logging.WarnWithContext(logger, "screen share skipped", "screenshare_skipped",
				logging.String("path", filepath.Base(path)),
				logging.String("reason", "no duration"),
				logging.String(logging.FieldImpact, "cameras are not de-focused during this recording"),
			)
			continue
		}
		logger.Info("screen share window",
			logging.String("path", filepath.Base(path)),
			logging.String("window", w.String()),
		)
		windows = append(windows, w)
	}
	return windows, nil
}
