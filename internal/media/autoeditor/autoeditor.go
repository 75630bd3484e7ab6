// Package autoeditor wraps the auto-editor CLI used to remove silent
// stretches ("jump cuts") from a finished program.
package autoeditor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// DefaultBinary is the executable looked up on PATH when none is configured.
const DefaultBinary = "auto-editor"

// Run removes silence from input and writes the result to output. margin is
// the amount of sound kept around every loud section.
func Run(ctx context.Context, binary, input, output string, margin time.Duration) error {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return errors.New("auto-editor: input and output required")
	}
	if margin < 0 {
		return fmt.Errorf("auto-editor: negative margin %s", margin)
	}
	args := []string{
		input,
		"--margin", strconv.FormatFloat(margin.Seconds(), 'f', -1, 64) + "sec",
		"--no-open",
		"-o", output,
	}
	cmd := commandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("auto-editor: %w", ctxErr)
		}
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			return fmt.Errorf("auto-editor: %w", err)
		}
		return fmt.Errorf("auto-editor: %w: %s", err, detail)
	}
	return nil
}
