package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SegmentJob describes one range of one file to re-encode.
type SegmentJob struct {
	Input    string
	Start    time.Duration
	Duration time.Duration
	Output   string
	// KeepAudio re-encodes the first audio stream alongside the video.
	KeepAudio bool
}

// ExtractSegment re-encodes [Start, Start+Duration) of Input so it begins on a
// keyframe and carries a fixed GOP.
func (r *Runner) ExtractSegment(ctx context.Context, job SegmentJob, enc Encoder) error {
	if strings.TrimSpace(job.Input) == "" || strings.TrimSpace(job.Output) == "" {
		return errors.New("ffmpeg extract: input and output required")
	}
	if job.Duration <= 0 {
		return fmt.Errorf("ffmpeg extract: non-positive duration %s", job.Duration)
	}
	if job.Start < 0 {
		return fmt.Errorf("ffmpeg extract: negative start %s", job.Start)
	}

	args := []string{"-ss", seconds(job.Start), "-i", job.Input, "-t", seconds(job.Duration), "-map", "0:v:0"}
	if filter := enc.frameFilter(); filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, enc.videoArgs()...)
	if job.KeepAudio {
		args = append(args, "-map", "0:a:0?", "-c:a", "aac", "-b:a", r.audioBitrate)
	} else {
		args = append(args, "-an")
	}
	args = append(args, job.Output)
	return r.run(ctx, "extract", args...)
}

// ExtractAudio decodes the first audio stream of input into a mono 16-bit
// WAV at sampleRate.
func (r *Runner) ExtractAudio(ctx context.Context, input, output string, sampleRate int) error {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return errors.New("ffmpeg audio: input and output required")
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	args := []string{
		"-i", input,
		"-map", "0:a:0",
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		output,
	}
	return r.run(ctx, "audio", args...)
}

// Clip is a range start within one file.
type Clip struct {
	Path  string
	Start time.Duration
}

// StackJob describes one vertical-short segment: a single clip filling the
// frame, or two clips stacked top and bottom.
type StackJob struct {
	Top      Clip
	Bottom   *Clip
	Duration time.Duration
	Width    int
	Height   int
	Output   string
}

// StackSegment renders a vertical segment. Each clip is scaled to cover its
// cell and center-cropped.
func (r *Runner) StackSegment(ctx context.Context, job StackJob, enc Encoder) error {
	if job.Width <= 0 || job.Height <= 0 || job.Width%2 != 0 || job.Height%2 != 0 {
		return fmt.Errorf("ffmpeg stack: invalid frame %dx%d", job.Width, job.Height)
	}
	if job.Duration <= 0 {
		return fmt.Errorf("ffmpeg stack: non-positive duration %s", job.Duration)
	}
	if strings.TrimSpace(job.Top.Path) == "" || strings.TrimSpace(job.Output) == "" {
		return errors.New("ffmpeg stack: input and output required")
	}

	fps := ""
	if enc.FrameRate > 0 {
		fps = ",fps=" + strconv.Itoa(enc.FrameRate)
	}
	args := []string{"-ss", seconds(job.Top.Start), "-t", seconds(job.Duration), "-i", job.Top.Path}
	var filter string
	if job.Bottom == nil {
		filter = fmt.Sprintf("[0:v]%s,setsar=1%s[v]", cover(job.Width, job.Height), fps)
	} else {
		half := job.Height / 2
		if half%2 != 0 {
			half--
		}
		args = append(args, "-ss", seconds(job.Bottom.Start), "-t", seconds(job.Duration), "-i", job.Bottom.Path)
		filter = fmt.Sprintf("[0:v]%s[top];[1:v]%s[bottom];[top][bottom]vstack=inputs=2,%s,setsar=1%s[v]",
			cover(job.Width, half), cover(job.Width, job.Height-half),
			cover(job.Width, job.Height), fps)
	}
	args = append(args, "-filter_complex", filter, "-map", "[v]")
	args = append(args, enc.videoArgs()...)
	args = append(args, "-an", job.Output)
	return r.run(ctx, "stack", args...)
}

func cover(width, height int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", width, height, width, height)
}
