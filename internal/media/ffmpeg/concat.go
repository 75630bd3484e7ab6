package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteConcatList writes a concat-demuxer list for parts. Paths are made
// absolute and single quotes escaped.
func WriteConcatList(listPath string, parts []string) error {
	var b strings.Builder
	for _, part := range parts {
		abs, err := filepath.Abs(part)
		if err != nil {
			return fmt.Errorf("concat list: %w", err)
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// Concat joins parts in order with stream copy. The list file is written next
// to output and removed afterwards.
func (r *Runner) Concat(ctx context.Context, parts []string, output string) error {
	if len(parts) == 0 {
		return errors.New("ffmpeg concat: no parts")
	}
	if strings.TrimSpace(output) == "" {
		return errors.New("ffmpeg concat: output required")
	}
	listPath := output + ".concat.txt"
	if err := WriteConcatList(listPath, parts); err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{"-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", output}
	return r.run(ctx, "concat", args...)
}
