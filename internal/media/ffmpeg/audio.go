package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AudioInput is one source of a mix. A positive Delay shifts the source
// later on the output clock; a negative Delay drops its leading -Delay.
type AudioInput struct {
	Path  string
	Delay time.Duration
}

// MixAudio overlays inputs into a single AAC track. Each input is shifted by
// its Delay before mixing; the mix lasts as long as the longest input unless
// limit is positive.
func (r *Runner) MixAudio(ctx context.Context, inputs []AudioInput, output string, limit time.Duration) error {
	if len(inputs) == 0 {
		return errors.New("ffmpeg mix: no inputs")
	}
	if strings.TrimSpace(output) == "" {
		return errors.New("ffmpeg mix: output required")
	}

	args := make([]string, 0, len(inputs)*2+12)
	for _, in := range inputs {
		args = append(args, "-i", in.Path)
	}
	args = append(args, "-filter_complex", MixFilter(inputs), "-map", "[mix]", "-vn")
	if limit > 0 {
		args = append(args, "-t", seconds(limit))
	}
	args = append(args, "-c:a", "aac", "-b:a", r.audioBitrate, output)
	return r.run(ctx, "mix", args...)
}

// MixFilter builds the filter graph used by MixAudio. The mixed pad is [mix].
func MixFilter(inputs []AudioInput) string {
	var b strings.Builder
	labels := make([]string, 0, len(inputs))
	for i, in := range inputs {
		label := fmt.Sprintf("[a%d]", i)
		labels = append(labels, label)
		fmt.Fprintf(&b, "[%d:a]", i)
		switch {
		case in.Delay > 0:
			fmt.Fprintf(&b, "adelay=delays=%d:all=1", in.Delay.Milliseconds())
		case in.Delay < 0:
			fmt.Fprintf(&b, "atrim=start=%s,asetpts=PTS-STARTPTS", seconds(-in.Delay))
		default:
			b.WriteString("anull")
		}
		b.WriteString(label)
		b.WriteByte(';')
	}
	if len(inputs) == 1 {
		b.WriteString(labels[0])
		b.WriteString("anull[mix]")
		return b.String()
	}
	b.WriteString(strings.Join(labels, ""))
	fmt.Fprintf(&b, "amix=inputs=%d:duration=longest:normalize=0[mix]", len(inputs))
	return b.String()
}

// NormalizeAudio rewrites input with a uniform audio encoding so every source
// decodes at the same rate, copying video untouched.
func (r *Runner) NormalizeAudio(ctx context.Context, input, output string) error {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return errors.New("ffmpeg normalize: input and output required")
	}
	args := []string{
		"-i", input,
		"-map", "0:v?", "-map", "0:a?",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", "128k", "-ar", "44100",
		output,
	}
	return r.run(ctx, "normalize", args...)
}

// EnhanceProfile selects the pre-filter chain applied before loudness
// normalization.
type EnhanceProfile string

const (
	EnhancePodcast EnhanceProfile = "podcast"
	EnhanceMusic   EnhanceProfile = "music"
)

// EnhanceOptions configures Enhance.
type EnhanceOptions struct {
	Profile    EnhanceProfile
	TargetLUFS float64
	TruePeak   float64
	Threads    int
}

// EnhanceFilter returns the audio filter chain for opts.
func EnhanceFilter(opts EnhanceOptions) (string, error) {
	var pre string
	switch opts.Profile {
	case EnhancePodcast, "":
		pre = "afftdn=nr=12:nf=-50,acompressor"
	case EnhanceMusic:
		pre = "highpass=f=80,afftdn=nr=12:nf=-50," +
			"anequalizer=c0 f=100 w=100 g=3 t=0|c0 f=10000 w=2000 g=3 t=0|c1 f=100 w=100 g=3 t=0|c1 f=10000 w=2000 g=3 t=0," +
			"acompressor"
	default:
		return "", fmt.Errorf("enhance profile: unsupported value %q", opts.Profile)
	}
	loudnorm := "loudnorm=I=" + strconv.FormatFloat(opts.TargetLUFS, 'f', -1, 64) +
		":TP=" + strconv.FormatFloat(opts.TruePeak, 'f', 1, 64) + ":LRA=11"
	return pre + "," + loudnorm, nil
}

// Enhance denoises, compresses and loudness-normalizes the audio of input,
// copying its video stream.
func (r *Runner) Enhance(ctx context.Context, input, output string, opts EnhanceOptions) error {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return errors.New("ffmpeg enhance: input and output required")
	}
	filter, err := EnhanceFilter(opts)
	if err != nil {
		return err
	}
	args := []string{"-i", input}
	if opts.Threads > 0 {
		args = append(args, "-filter_threads", strconv.Itoa(opts.Threads))
	}
	args = append(args,
		"-map", "0:v?", "-map", "0:a:0",
		"-c:v", "copy",
		"-af", filter,
		"-c:a", "aac", "-b:a", r.audioBitrate,
		"-ar", "48000",
		output,
	)
	return r.run(ctx, "enhance", args...)
}
