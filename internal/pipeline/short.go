package pipeline

import (
	"context"
	"fmt"
	"time"

	"castcut/internal/config"
	"castcut/internal/history"
	"castcut/internal/logging"
	"castcut/internal/services"
	"castcut/internal/short"
	"castcut/internal/timeline"
)

// ShortRequest describes a vertical clip cut from a multicam recording.
type ShortRequest struct {
	Inputs  []string
	Offsets map[string]float64
	Start   time.Duration
	// Till is the program time the clip ends at; zero means start plus the
	// configured default length.
	Till   time.Duration
	Output string
}

// ShortResult is the outcome of a short run.
type ShortResult struct {
	Analysis *Analysis
	Shots    []short.Shot
	Output   string
	Start    time.Duration
	Till     time.Duration
}

// Short renders a stacked vertical clip of the loudest speakers between
// Start and Till.
func (p *Pipeline) Short(ctx context.Context, req ShortRequest) (*ShortResult, error) {
	if len(req.Inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "short", "inputs", "at least one input is required", nil)
	}
	if req.Start < 0 || (req.Till != 0 && req.Till <= req.Start) {
		return nil, services.Wrap(services.ErrValidation, "short", "range",
			fmt.Sprintf("invalid clip range %s..%s", req.Start, req.Till), nil)
	}
	suffix := fmt.Sprintf("-short-%ds", int(req.Start/time.Second))
	output, err := p.OutputPath(req.Output, req.Inputs[0], suffix)
	if err != nil {
		return nil, err
	}
	ctx, r, err := p.begin(ctx, history.KindShort, output, len(req.Inputs))
	if err != nil {
		return nil, err
	}

	result := &ShortResult{Output: output, Start: req.Start}
	a, err := p.analyze(ctx, r, MulticamRequest{Inputs: req.Inputs, Offsets: req.Offsets}, false)
	result.Analysis = a
	if err == nil {
		err = r.stage(ctx, "render", func(ctx context.Context) error {
			till := req.Till
			if till == 0 {
				till = req.Start + config.Seconds(p.cfg.Short.DefaultSeconds)
			}
			if limit := a.Sources[timeline.ReferenceIndex].AlignedDuration(a.Lead); till > limit {
				logging.WithContext(ctx, r.logger).Info("clip end clamped to program length",
					logging.Duration("requested", till),
					logging.Duration("program", limit),
				)
				till = limit
			}
			if till <= req.Start {
				return services.Wrap(services.ErrValidation, "short", "range",
					fmt.Sprintf("clip starts at %s, past the end of the program", req.Start), nil)
			}
			result.Till = till

			creator := &short.Creator{
				Params: short.Params{
					Window:     SelectionParams(p.cfg).Window,
					SplitRatio: p.cfg.Short.SplitRatio,
				},
				Width:    p.cfg.Short.Width,
				Height:   p.cfg.Short.Height,
				Stitcher: r.stitcher(p, p.cfg.Short.Width, p.cfg.Short.Height),
				Logger:   p.logger,
			}
			shots, err := creator.Create(ctx, short.Request{
				Sources: a.Sources,
				Levels:  a.Profiles.Levels(),
				Failed:  a.Profiles.Failed,
				Lead:    a.Lead,
				Start:   req.Start,
				Till:    till,
				Output:  output,
			})
			result.Shots = shots
			return err
		})
	}

	outcome := history.Outcome{Segments: len(result.Shots), Program: result.Till - result.Start}
	if len(result.Shots) > 1 {
		outcome.Cuts = len(result.Shots) - 1
	}
	r.finish(ctx, err, outcome)
	return result, err
}
