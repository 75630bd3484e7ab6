package preflight

import (
	"context"

	"castcut/internal/config"
	"castcut/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// MinFreeBytes is the free space a work directory needs before a run starts.
// Staged copies and extracted segments take roughly twice the source size.
const MinFreeBytes uint64 = 2 << 30

// RunAll executes the filesystem and tool checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, FromStatus(status))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// FromStatus converts a dependency status into a check result.
func FromStatus(s deps.Status) Result {
	detail := s.Detail
	if s.Available {
		detail = s.Path
		if s.Version != "" {
			detail = s.Version + ", " + s.Path
		}
	}
	if s.Description != "" {
		detail += " (" + s.Description + ")"
	}
	return Result{Name: s.Name, Passed: s.Available, Optional: s.Optional, Detail: detail}
}
