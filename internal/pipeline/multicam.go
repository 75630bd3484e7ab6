package pipeline

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"castcut/internal/align"
	"castcut/internal/config"
	"castcut/internal/fileutil"
	"castcut/internal/history"
	"castcut/internal/logging"
	"castcut/internal/loudness"
	"castcut/internal/media/ffprobe"
	"castcut/internal/render"
	"castcut/internal/services"
	"castcut/internal/staging"
	"castcut/internal/timeline"
)

// MulticamRequest describes a multicam run. Inputs[0] is the reference.
type MulticamRequest struct {
	Inputs       []string
	Screenshares []string
	// Offsets pins per-file offsets in seconds, keyed by path or base name.
	Offsets map[string]float64
	Output  string
	JumpCut bool
}

// Analysis is everything decided before rendering.
type Analysis struct {
	RunID        string
	Lead         time.Duration
	Sources      []timeline.Source
	Probes       []ffprobe.Result
	DeFocus      []timeline.DeFocusWindow
	Profiles     loudness.Set
	Plan         timeline.Plan
	Segments     []timeline.Segment
	Instructions []timeline.Instruction
	// Warnings holds recoverable problems: alignment fallbacks and sources
	// excluded from selection.
	Warnings []error
}

// Cuts returns the number of camera changes in the merged program.
func (a *Analysis) Cuts() int {
	if a == nil || len(a.Segments) == 0 {
		return 0
	}
	return len(a.Segments) - 1
}

// Rerouted returns the number of instructions served from the reference
// because the chosen source had no footage.
func (a *Analysis) Rerouted() int {
	n := 0
	for _, inst := range a.Instructions {
		if inst.Rerouted {
			n++
		}
	}
	return n
}

// MulticamResult is the outcome of a multicam run.
type MulticamResult struct {
	Analysis *Analysis
	Output   string
	JumpCut  string
}

// Analyze stages, aligns, profiles and plans without rendering. Nothing is
// written outside the run's scratch directory, which is removed afterwards.
func (p *Pipeline) Analyze(ctx context.Context, req MulticamRequest) (*Analysis, error) {
	if len(req.Inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "plan", "inputs", "at least one input is required", nil)
	}
	ctx, r, err := p.begin(ctx, "", "", len(req.Inputs))
	if err != nil {
		return nil, err
	}
	a, err := p.analyze(ctx, r, req, true)
	r.finish(ctx, err, history.Outcome{})
	return a, err
}

// Profile stages, aligns and measures the inputs without selecting cameras.
func (p *Pipeline) Profile(ctx context.Context, req MulticamRequest) (*Analysis, error) {
	if len(req.Inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "profile", "inputs", "at least one input is required", nil)
	}
	ctx, r, err := p.begin(ctx, "", "", len(req.Inputs))
	if err != nil {
		return nil, err
	}
	a, err := p.analyze(ctx, r, req, false)
	r.finish(ctx, err, history.Outcome{})
	return a, err
}

// Multicam runs the whole pipeline and publishes the program to the output path.
func (p *Pipeline) Multicam(ctx context.Context, req MulticamRequest) (*MulticamResult, error) {
	if len(req.Inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "multicam", "inputs", "at least one input is required", nil)
	}
	output, err := p.OutputPath(req.Output, req.Inputs[0], "")
	if err != nil {
		return nil, err
	}
	ctx, r, err := p.begin(ctx, history.KindMulticam, output, len(req.Inputs))
	if err != nil {
		return nil, err
	}

	result := &MulticamResult{Output: output}
	a, err := p.analyze(ctx, r, req, true)
	result.Analysis = a
	if err == nil {
		err = r.stage(ctx, "render", func(ctx context.Context) error {
			width, height, _ := a.Probes[timeline.ReferenceIndex].VideoSize()
			return r.stitcher(p, width, height).Render(ctx, render.Job{
				Pieces: render.FromInstructions(a.Instructions),
				Audio:  render.MixInputs(a.Sources, a.Profiles.Failed, a.Lead),
				Output: output,
			})
		})
	}
	if err == nil && req.JumpCut {
		err = r.stage(ctx, "jumpcut", func(ctx context.Context) error {
			path, jerr := p.jumpCutFile(ctx, output)
			result.JumpCut = path
			return jerr
		})
	}

	outcome := history.Outcome{}
	if a != nil {
		outcome = history.Outcome{Segments: len(a.Segments), Cuts: a.Cuts(), Program: timeline.Total(a.Segments)}
	}
	r.finish(ctx, err, outcome)
	return result, err
}

func (p *Pipeline) analyze(ctx context.Context, r *run, req MulticamRequest, plan bool) (*Analysis, error) {
	lead := p.cfg.Lead()
	a := &Analysis{RunID: r.id, Lead: lead}

	err := r.stage(ctx, "stage", func(ctx context.Context) error {
		stager := &staging.Stager{
			Media:     p.media,
			Probe:     p.probe,
			Encoder:   Encoder(p.cfg, 0, 0),
			Normalize: p.cfg.Render.NormalizeAudio,
			Lead:      lead,
			Dir:       filepath.Join(r.scratch, "staged"),
			Workers:   p.cfg.Render.Workers,
			Logger:    p.logger,
		}
		staged, err := stager.Stage(ctx, req.Inputs)
		if err != nil {
			return err
		}
		a.Sources = staged.Sources
		a.Probes = staged.Probes
		a.DeFocus, err = staging.Screenshares(ctx, p.probe, req.Screenshares, p.logger)
		return err
	})
	if err != nil {
		return a, err
	}

	err = r.stage(ctx, "align", func(ctx context.Context) error {
		overrides := maps.Clone(p.cfg.Alignment.Offsets)
		if overrides == nil {
			overrides = map[string]float64{}
		}
		for name, seconds := range req.Offsets {
			overrides[name] = seconds
			overrides[filepath.Base(name)] = seconds
		}
		resolver := &align.Resolver{
			Oracle:    p.oracle,
			Overrides: overrides,
			Disabled:  !p.cfg.Alignment.Enabled,
			Logger:    logging.WithContext(ctx, p.logger),
		}
		paths := make([]string, len(a.Sources))
		for i, src := range a.Sources {
			paths[i] = src.Path
		}
		offsets, problems := resolver.Resolve(ctx, paths)
		if err := ctx.Err(); err != nil {
			return err
		}
		a.Warnings = append(a.Warnings, problems...)
		for i := range a.Sources {
			a.Sources[i].Offset = offsets[i]
		}
		return nil
	})
	if err != nil {
		return a, err
	}

	err = r.stage(ctx, "profile", func(ctx context.Context) error {
		metric, err := loudness.ParseMetric(p.cfg.Selection.Metric)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "profile", "metric", "invalid selection.metric", err)
		}
		measurer := p.measurer
		if measurer == nil {
			dir := filepath.Join(r.scratch, "audio")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create audio scratch: %w", err)
			}
			measurer = loudness.NewWAVMeasurer(p.media, p.cfg.FFprobeBinary(), dir)
		}
		profiler := &loudness.Profiler{
			Measurer: measurer,
			Window:   SelectionParams(p.cfg).Window,
			Lead:     lead,
			Metric:   metric,
			Logger:   logging.WithContext(ctx, p.logger),
		}
		set, err := profiler.ProfileAll(ctx, a.Sources)
		if err != nil {
			return err
		}
		a.Profiles = set
		if failed := set.Err(); failed != nil {
			a.Warnings = append(a.Warnings, failed)
		}
		return nil
	})
	if err != nil || !plan {
		return a, err
	}

	err = r.stage(ctx, "select", func(ctx context.Context) error {
		selected, err := timeline.Select(SelectionParams(p.cfg), timeline.Input{
			Sources: a.Sources,
			Levels:  a.Profiles.Levels(),
			DeFocus: a.DeFocus,
			Lead:    lead,
		})
		if err != nil {
			return services.Wrap(services.ErrValidation, "select", "plan", "cannot build a selection plan", err)
		}
		a.Plan = selected
		logger := logging.WithContext(ctx, r.logger)
		for i, seg := range selected.Segments {
			logger.Debug("window decided",
				logging.Int("window", i),
				logging.Duration("start", seg.Start),
				logging.Int(logging.FieldSource, seg.Source),
				logging.String("rule", selected.Rules[i].String()),
			)
		}
		counts := selected.RuleCounts()
		attrs := []logging.Attr{logging.Int("windows", len(selected.Segments)), logging.Duration("program", selected.Total)}
		for rule := timeline.RuleBootstrap; rule <= timeline.RuleDefault; rule++ {
			attrs = append(attrs, logging.Int("rule_"+rule.String(), counts[rule]))
		}
		logger.Info("selection complete", logging.Args(attrs...)...)
		return nil
	})
	if err != nil {
		return a, err
	}

	err = r.stage(ctx, "map", func(ctx context.Context) error {
		a.Segments = timeline.Merge(a.Plan.Segments)
		insts, err := timeline.Map(a.Segments, a.Sources, lead)
		if err != nil {
			return services.Wrap(services.ErrValidation, "map", "instructions", "cannot map segments onto sources", err)
		}
		a.Instructions = insts
		logger := logging.WithContext(ctx, r.logger)
		for _, inst := range insts {
			if !inst.Rerouted {
				continue
			}
			logging.WarnWithContext(logger, "segment rerouted to reference", "segment_rerouted",
				logging.Duration("start", inst.Start),
				logging.Duration("duration", inst.Duration),
				logging.String(logging.FieldImpact, "the reference camera is shown instead"),
				logging.String(logging.FieldErrorHint, "check the source offset; the chosen camera has no footage here"),
			)
		}
		logger.Info("segments mapped",
			logging.Int("segments", len(a.Segments)),
			logging.Int("cuts", a.Cuts()),
			logging.Int("rerouted", a.Rerouted()),
		)
		return nil
	})
	return a, err
}

func (p *Pipeline) jumpCutFile(ctx context.Context, program string) (string, error) {
	target := filepath.Join(filepath.Dir(program), fileutil.Stem(program)+"-jumpcut.mp4")
	temp := fileutil.TempSibling(target, "partial")
	defer os.Remove(temp)

	margin := config.Seconds(p.cfg.Render.JumpCutMarginSeconds)
	if err := p.jumpCut(ctx, p.cfg.AutoEditorBinary(), program, temp, margin); err != nil {
		return "", &services.RenderError{Step: "jumpcut", Err: err}
	}
	if err := fileutil.Promote(temp, target); err != nil {
		return "", &services.RenderError{Step: "jumpcut", Err: err}
	}
	return target, nil
}
