package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"castcut/internal/logging"
)

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// DirInfo describes one run scratch directory.
type DirInfo struct {
	RunID   string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanStale removes run scratch directories under runsDir whose last
// modification is older than maxAge. Only directories named after a run ID
// are considered; IDs in keep belong to runs still in flight.
func CleanStale(ctx context.Context, runsDir string, maxAge time.Duration, keep map[string]struct{}, logger *slog.Logger) CleanStaleResult {
	var result CleanStaleResult
	dirs, err := runDirs(runsDir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: runsDir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if _, active := keep[dir.RunID]; active || !dir.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale scratch directory", "scratch_cleanup_failed",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
		if logger != nil {
			logger.Info("removed stale scratch directory",
				logging.String(logging.FieldRunID, dir.RunID),
				logging.Duration("age", time.Since(dir.ModTime)),
				logging.String(logging.FieldEventType, "scratch_cleanup"),
			)
		}
	}
	return result
}

// ListDirectories returns the run scratch directories under runsDir, newest
// first, with their on-disk size.
func ListDirectories(runsDir string) ([]DirInfo, error) {
	dirs, err := runDirs(runsDir)
	if err != nil {
		return nil, err
	}
	for i := range dirs {
		dirs[i].Size = dirSize(dirs[i].Path)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].ModTime.After(dirs[j].ModTime) })
	return dirs, nil
}

func runDirs(runsDir string) ([]DirInfo, error) {
	runsDir = strings.TrimSpace(runsDir)
	if runsDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(runsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dirs := make([]DirInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, DirInfo{
			RunID:   entry.Name(),
			Path:    filepath.Join(runsDir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return dirs, nil
}

// dirSize is best effort; unreadable entries count as zero.
func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
