package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"castcut/internal/fileutil"
	"castcut/internal/logging"
	"castcut/internal/media/ffmpeg"
	"castcut/internal/services"
)

// EnhanceRequest describes an audio clean-up pass over a finished program.
type EnhanceRequest struct {
	Input   string
	Output  string
	Profile ffmpeg.EnhanceProfile
}

// Enhance denoises and loudness-normalizes Input. It takes no run lock and
// records no history; the output is published atomically.
func (p *Pipeline) Enhance(ctx context.Context, req EnhanceRequest) (string, error) {
	if req.Input == "" {
		return "", services.Wrap(services.ErrValidation, "enhance", "input", "an input is required", nil)
	}
	if _, err := os.Stat(req.Input); err != nil {
		return "", &services.SourceUnavailableError{Path: req.Input, Err: err}
	}
	output, err := p.OutputPath(req.Output, req.Input, "-enhanced")
	if err != nil {
		return "", err
	}
	opts := ffmpeg.EnhanceOptions{
		Profile:    req.Profile,
		TargetLUFS: p.cfg.Enhance.TargetLUFS,
		TruePeak:   p.cfg.Enhance.TruePeak,
		Threads:    p.cfg.Render.Threads,
	}
	if _, err := ffmpeg.EnhanceFilter(opts); err != nil {
		return "", services.Wrap(services.ErrValidation, "enhance", "profile", "unsupported profile", err)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", &services.RenderError{Step: "enhance", Err: err}
	}
	temp := fileutil.TempSibling(output, "partial")
	defer os.Remove(temp)
	if err := p.media.Enhance(ctx, req.Input, temp, opts); err != nil {
		return "", &services.RenderError{Step: "enhance", Err: err}
	}
	if err := fileutil.Promote(temp, output); err != nil {
		return "", &services.RenderError{Step: "enhance", Err: err}
	}
	logging.NewComponentLogger(p.logger, "pipeline").Info("enhance complete",
		logging.String(logging.FieldEventType, "enhance_complete"),
		logging.String("output", output),
		logging.String("profile", string(opts.Profile)),
	)
	return output, nil
}
