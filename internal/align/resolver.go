package align

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"castcut/internal/logging"
	"castcut/internal/services"
)

// Resolver turns oracle output into one offset per source.
type Resolver struct {
	Oracle Oracle
	// Overrides win over the oracle for the paths they name.
	Overrides map[string]float64
	// Disabled skips the oracle entirely and reports every offset as 0.
	Disabled bool
	Logger   *slog.Logger
}

// Resolve returns offsets aligned with paths. offsets[0] is always 0 and
// every other offset is >= 0. Sources that could not be aligned get 0 and an
// *services.AlignmentError in the returned slice. When ctx is done the slice
// holds only ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, paths []string) ([]time.Duration, []error) {
	logger := logging.NewComponentLogger(r.Logger, "align")
	offsets := make([]time.Duration, len(paths))
	if len(paths) < 2 {
		return offsets, nil
	}
	if r.Disabled {
		logger.Info("alignment disabled; all sources start with the reference")
		return offsets, nil
	}

	var found map[string]float64
	var oracleErr error
	if r.Oracle != nil && !r.coveredByOverrides(paths[1:]) {
		found, oracleErr = r.Oracle.Offsets(ctx, paths)
		if ctx.Err() != nil {
			return offsets, []error{ctx.Err()}
		}
	}

	var problems []error
	for i, path := range paths[1:] {
		idx := i + 1
		seconds, ok := lookup(r.Overrides, path)
		if !ok {
			seconds, ok = lookup(found, path)
		}

		var alignErr *services.AlignmentError
		switch {
		case !ok && oracleErr != nil:
			alignErr = &services.AlignmentError{Source: path, Reason: "aligner failed", Err: oracleErr}
		case !ok:
			alignErr = &services.AlignmentError{Source: path, Reason: "no match against the reference"}
		case math.IsNaN(seconds) || seconds < 0:
			alignErr = &services.AlignmentError{Source: path, Reason: fmt.Sprintf("negative offset %.3fs", seconds)}
		}
		if alignErr != nil {
			problems = append(problems, alignErr)
			logging.WarnWithContext(logging.WithContext(services.WithSource(ctx, idx), logger),
				"alignment fallback", "alignment_fallback",
				logging.String("path", filepath.Base(path)),
				logging.String("reason", alignErr.Reason),
				logging.String(logging.FieldImpact, "offset 0 assumed (source aligned to the lead-prepended reference)"),
				logging.String(logging.FieldErrorHint, "pin the offset under [alignment.offsets] or pass --offset"),
			)
			continue
		}
		offsets[idx] = time.Duration(math.Round(seconds*1000)) * time.Millisecond
		logger.Debug("resolved offset",
			logging.Int(logging.FieldSource, idx),
			logging.String("path", filepath.Base(path)),
			logging.Duration("offset", offsets[idx]),
		)
	}
	return offsets, problems
}

func (r *Resolver) coveredByOverrides(paths []string) bool {
	if len(r.Overrides) == 0 {
		return false
	}
	for _, p := range paths {
		if _, ok := lookup(r.Overrides, p); !ok {
			return false
		}
	}
	return true
}

func lookup(values map[string]float64, path string) (float64, bool) {
	if values == nil {
		return 0, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}
	v, ok := values[filepath.Base(path)]
	return v, ok
}
