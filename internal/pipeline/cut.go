package pipeline

import (
	"context"
	"fmt"
	"time"

	"castcut/internal/history"
	"castcut/internal/render"
	"castcut/internal/services"
	"castcut/internal/timeline"
)

// CutRequest removes ranges from a single file.
type CutRequest struct {
	Input  string
	Cuts   []timeline.Range
	Output string
}

// CutResult is the outcome of a cut run.
type CutResult struct {
	Kept   []timeline.Range
	Output string
	Length time.Duration
}

// Cut writes Input minus the cut ranges, keeping audio and video in step.
func (p *Pipeline) Cut(ctx context.Context, req CutRequest) (*CutResult, error) {
	if req.Input == "" {
		return nil, services.Wrap(services.ErrValidation, "cut", "input", "an input is required", nil)
	}
	if len(req.Cuts) == 0 {
		return nil, services.Wrap(services.ErrValidation, "cut", "ranges", "at least one cut range is required", nil)
	}
	output, err := p.OutputPath(req.Output, req.Input, "-cut")
	if err != nil {
		return nil, err
	}
	ctx, r, err := p.begin(ctx, history.KindCut, output, 1)
	if err != nil {
		return nil, err
	}

	result := &CutResult{Output: output}
	var width, height int
	var total time.Duration
	err = r.stage(ctx, "probe", func(ctx context.Context) error {
		probe, perr := p.probe(ctx, req.Input)
		if perr != nil {
			return &services.SourceUnavailableError{Path: req.Input, Err: perr}
		}
		if total = probe.Duration(); total <= 0 {
			return &services.SourceUnavailableError{Path: req.Input, Err: fmt.Errorf("unknown duration")}
		}
		width, height, _ = probe.VideoSize()
		return nil
	})
	if err == nil {
		err = r.stage(ctx, "render", func(ctx context.Context) error {
			kept, kerr := timeline.KeepRanges(total, req.Cuts)
			if kerr != nil {
				return services.Wrap(services.ErrValidation, "cut", "ranges", "invalid cut ranges", kerr)
			}
			result.Kept = kept
			for _, k := range kept {
				result.Length += k.Duration()
			}
			return r.stitcher(p, width, height).Render(ctx, render.Job{
				Pieces: render.FromRanges(req.Input, kept),
				Output: output,
			})
		})
	}
	r.finish(ctx, err, history.Outcome{Segments: len(result.Kept), Cuts: len(req.Cuts), Program: result.Length})
	return result, err
}
