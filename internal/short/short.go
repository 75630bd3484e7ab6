package short

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"castcut/internal/logging"
	"castcut/internal/media/ffmpeg"
	"castcut/internal/render"
	"castcut/internal/timeline"
)

// Request describes one clip.
type Request struct {
	Sources []timeline.Source
	Levels  timeline.Levels
	// Failed holds sources excluded from the mix.
	Failed map[int]error
	Lead   time.Duration
	Start  time.Duration
	Till   time.Duration
	Output string
}

// Creator plans and renders shorts.
type Creator struct {
	Params   Params
	Width    int
	Height   int
	Stitcher *render.Stitcher
	Logger   *slog.Logger
}

// Create renders the clip described by req and returns the planned shots.
func (c *Creator) Create(ctx context.Context, req Request) ([]Shot, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(c.Logger, "short"))
	till := req.Till
	if till <= 0 {
		till = req.Start + DefaultLength
	}
	shots, err := Plan(c.Params, req.Sources, req.Levels, req.Start, till)
	if err != nil {
		return nil, err
	}
	pieces, err := Pieces(shots, req.Sources, req.Lead, c.Width, c.Height)
	if err != nil {
		return nil, err
	}
	split := 0
	for _, s := range shots {
		if s.Split() {
			split++
		}
	}
	logger.Info("short planned",
		logging.Duration("start", req.Start),
		logging.Duration("till", till),
		logging.Int("shots", len(shots)),
		logging.Int("split_shots", split),
	)

	job := render.Job{
		Pieces: pieces,
		Audio:  render.ShortMixInputs(req.Sources, req.Failed, req.Lead, req.Start),
		Output: req.Output,
	}
	if err := c.Stitcher.Render(ctx, job); err != nil {
		return shots, err
	}
	return shots, nil
}

// Pieces converts shots into stacked render pieces. A cell whose source has
// no footage for the shot is served from the reference.
func Pieces(shots []Shot, sources []timeline.Source, lead time.Duration, width, height int) ([]render.Piece, error) {
	pieces := make([]render.Piece, 0, len(shots))
	for _, s := range shots {
		top, err := clip(s.Top, s, sources, lead)
		if err != nil {
			return nil, err
		}
		job := &ffmpeg.StackJob{Top: top, Duration: s.Duration, Width: width, Height: height}
		if s.Split() {
			bottom, err := clip(s.Bottom, s, sources, lead)
			if err != nil {
				return nil, err
			}
			job.Bottom = &bottom
		}
		pieces = append(pieces, render.Piece{Stack: job})
	}
	return pieces, nil
}

func clip(source int, s Shot, sources []timeline.Source, lead time.Duration) (ffmpeg.Clip, error) {
	insts, err := timeline.Map([]timeline.Segment{{Source: source, Start: s.Start, Duration: s.Duration}}, sources, lead)
	if err != nil {
		return ffmpeg.Clip{}, fmt.Errorf("short: %w", err)
	}
	return ffmpeg.Clip{Path: insts[0].Path, Start: insts[0].SourceStart}, nil
}
