package loudness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"castcut/internal/media/ffprobe"
	"castcut/internal/services"
	"castcut/internal/timeline"
)

// Measurer turns a source into block-aggregated samples.
type Measurer interface {
	Measure(ctx context.Context, src timeline.Source) (Samples, error)
}

// AudioExtractor writes a mono WAV of input's first audio track.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, input, output string, sampleRate int) error
}

// WAVMeasurer extracts each source's audio with ffmpeg and decodes it.
type WAVMeasurer struct {
	Extractor  AudioExtractor
	Dir        string
	SampleRate int
	// HasAudio reports whether path carries an audio track. Nil skips the check.
	HasAudio func(ctx context.Context, path string) (bool, error)
}

// NewWAVMeasurer builds a measurer writing scratch WAVs under dir and probing
// inputs with ffprobeBinary.
func NewWAVMeasurer(extractor AudioExtractor, ffprobeBinary, dir string) *WAVMeasurer {
	return &WAVMeasurer{
		Extractor:  extractor,
		Dir:        dir,
		SampleRate: 16000,
		HasAudio: func(ctx context.Context, path string) (bool, error) {
			result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
			if err != nil {
				return false, err
			}
			return result.HasAudio(), nil
		},
	}
}

// Measure implements Measurer.
func (m *WAVMeasurer) Measure(ctx context.Context, src timeline.Source) (Samples, error) {
	if m.HasAudio != nil {
		ok, err := m.HasAudio(ctx, src.Path)
		if err != nil {
			return Samples{}, &services.SourceUnavailableError{Path: src.Path, Err: err}
		}
		if !ok {
			return Samples{}, &services.AudioDecodeError{Source: src.Path}
		}
	}

	wavPath := filepath.Join(m.Dir, "audio_"+strconv.Itoa(src.Index)+".wav")
	if err := m.Extractor.ExtractAudio(ctx, src.Path, wavPath, m.SampleRate); err != nil {
		return Samples{}, &services.AudioDecodeError{Source: src.Path, Err: err}
	}
	defer os.Remove(wavPath)

	samples, err := DecodeWAV(wavPath, DefaultBlock)
	if err != nil {
		return Samples{}, &services.AudioDecodeError{Source: src.Path, Err: err}
	}
	return samples, nil
}

// DecodeWAV streams a PCM WAV file into Samples. Multi-channel audio is
// downmixed by averaging.
func DecodeWAV(path string, block time.Duration) (Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return Samples{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Samples{}, errors.New("not a valid wav file")
	}
	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	rate := int(dec.SampleRate)
	if channels < 1 || rate < 1 || bitDepth < 8 {
		return Samples{}, fmt.Errorf("unsupported wav format: %d ch, %d Hz, %d bit", channels, rate, bitDepth)
	}
	scale := float64(int64(1) << (bitDepth - 1))

	acc := NewAccumulator(rate, block)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:   make([]int, 4096*channels),
	}
	var frameSum float64
	var inFrame int
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return Samples{}, fmt.Errorf("decode pcm: %w", err)
		}
		if n == 0 {
			break
		}
		for _, v := range buf.Data[:n] {
			frameSum += float64(v) / scale
			inFrame++
			if inFrame == channels {
				acc.Add(frameSum / float64(channels))
				frameSum, inFrame = 0, 0
			}
		}
	}
	return acc.Samples(), nil
}
