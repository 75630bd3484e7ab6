package align

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// Oracle reports offsets in seconds for every non-reference path. paths[0] is
// the reference. Keys are the paths as given or their base names.
type Oracle interface {
	Offsets(ctx context.Context, paths []string) (map[string]float64, error)
}

// StaticOracle returns fixed offsets, typically from configuration.
type StaticOracle map[string]float64

// Offsets implements Oracle.
func (s StaticOracle) Offsets(_ context.Context, _ []string) (map[string]float64, error) {
	out := make(map[string]float64, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// CLIOracle runs an external audio aligner that prints JSON.
type CLIOracle struct {
	binary string
	args   []string
}

// NewCLIOracle constructs an oracle around binary. Extra args are placed
// before the file list.
func NewCLIOracle(binary string, args ...string) *CLIOracle {
	if strings.TrimSpace(binary) == "" {
		binary = "audalign-cli"
	}
	return &CLIOracle{binary: strings.TrimSpace(binary), args: args}
}

// Offsets runs the aligner with --json and the file list.
func (c *CLIOracle) Offsets(ctx context.Context, paths []string) (map[string]float64, error) {
	if len(paths) < 2 {
		return map[string]float64{}, nil
	}
	args := append(append([]string{}, c.args...), "--json")
	args = append(args, paths...)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("aligner %s: %w: %s", filepath.Base(c.binary), err, strings.TrimSpace(stderr.String()))
	}
	return ParseOffsets(out)
}

// ParseOffsets accepts either a flat {"name": seconds} object or an edit list
// of the form {"edit_list": [["name", {"pad": seconds}], ...]}.
func ParseOffsets(data []byte) (map[string]float64, error) {
	var envelope struct {
		EditList []json.RawMessage `json:"edit_list"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse aligner output: %w", err)
	}
	if envelope.EditList != nil {
		return parseEditList(envelope.EditList)
	}

	var flat map[string]float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("parse aligner output: %w", err)
	}
	return flat, nil
}

func parseEditList(entries []json.RawMessage) (map[string]float64, error) {
	out := make(map[string]float64, len(entries))
	for i, raw := range entries {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return nil, fmt.Errorf("parse aligner output: edit %d is not a [name, edit] pair", i)
		}
		var name string
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return nil, fmt.Errorf("parse aligner output: edit %d name: %w", i, err)
		}
		var edit struct {
			Pad *float64 `json:"pad"`
		}
		if err := json.Unmarshal(pair[1], &edit); err != nil {
			return nil, fmt.Errorf("parse aligner output: edit %d: %w", i, err)
		}
		if edit.Pad == nil {
			return nil, errors.New("parse aligner output: edit " + name + " has no pad")
		}
		out[name] = *edit.Pad
	}
	return out, nil
}
