package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mux pairs the first video stream of video with the first audio stream of
// audio. The result ends with the shorter of the two.
func (r *Runner) Mux(ctx context.Context, video, audio, output string) error {
	if strings.TrimSpace(video) == "" || strings.TrimSpace(audio) == "" || strings.TrimSpace(output) == "" {
		return errors.New("ffmpeg mux: video, audio and output required")
	}
	args := []string{
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", r.audioBitrate,
		"-shortest",
		"-movflags", "+faststart",
		output,
	}
	return r.run(ctx, "mux", args...)
}

// PrependLead writes input with its first lead duplicated in front of it, so
// the output is lead longer and position lead+t shows input time t.
func (r *Runner) PrependLead(ctx context.Context, input, output string, lead time.Duration, enc Encoder) error {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return errors.New("ffmpeg lead: input and output required")
	}
	if lead <= 0 {
		return fmt.Errorf("ffmpeg lead: non-positive lead %s", lead)
	}
	l := seconds(lead)
	filter := "[0:v]trim=0:" + l + ",setpts=PTS-STARTPTS[lv];" +
		"[0:a]atrim=0:" + l + ",asetpts=PTS-STARTPTS[la];" +
		"[lv][la][0:v][0:a]concat=n=2:v=1:a=1[v][a]"
	args := []string{"-i", input, "-filter_complex", filter, "-map", "[v]", "-map", "[a]"}
	args = append(args, enc.videoArgs()...)
	args = append(args, "-c:a", "aac", "-b:a", r.audioBitrate, output)
	return r.run(ctx, "lead", args...)
}
