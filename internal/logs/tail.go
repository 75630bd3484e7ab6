package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// PollInterval is how often Follow checks the file for new lines.
const PollInterval = 250 * time.Millisecond

// Filter selects log lines. A nil Filter keeps every line.
type Filter func(line string) bool

// RunFilter keeps lines stamped with the given run ID. The console handler
// prints only the first eight characters of an ID, so matching uses that
// prefix for both the console and JSON encodings.
func RunFilter(runID string) Filter {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil
	}
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return func(line string) bool {
		return strings.Contains(line, runID)
	}
}

// LevelFilter keeps lines at or above level ("debug", "info", "warn", "error").
func LevelFilter(level string) Filter {
	rank := map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}
	min, ok := rank[strings.ToLower(strings.TrimSpace(level))]
	if !ok || min == 0 {
		return nil
	}
	return func(line string) bool {
		upper := strings.ToUpper(line)
		for name, r := range rank {
			if r < min {
				continue
			}
			token := strings.ToUpper(name)
			if strings.Contains(upper, " "+token+" ") || strings.Contains(upper, `"LEVEL":"`+token+`"`) {
				return true
			}
		}
		return false
	}
}

// All combines filters; nil entries are ignored.
func All(filters ...Filter) Filter {
	var active []Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, f := range active {
			if !f(line) {
				return false
			}
		}
		return true
	}
}

// Result holds lines read and the offset just past them.
type Result struct {
	Lines  []string
	Offset int64
}

// Tail returns the last limit lines of path that pass filter. A missing file
// yields an empty result; limit <= 0 returns no lines but the end offset.
func Tail(path string, limit int, filter Filter) (Result, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return Result{}, err
	}
	defer file.Close()

	var ring []string
	if limit > 0 {
		ring = make([]string, 0, limit)
	}
	start := 0
	err = scan(file, func(line string) {
		if limit <= 0 || (filter != nil && !filter(line)) {
			return
		}
		if len(ring) < limit {
			ring = append(ring, line)
			return
		}
		ring[start] = line
		start = (start + 1) % limit
	})
	if err != nil {
		return Result{}, err
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return Result{}, fmt.Errorf("determine log offset: %w", err)
	}
	lines := append(append([]string{}, ring[start:]...), ring[:start]...)
	return Result{Lines: lines, Offset: offset}, nil
}

// Follow emits lines appended after offset until ctx is done. A file that
// shrinks (rotated by lumberjack) is read again from the start.
func Follow(ctx context.Context, path string, offset int64, filter Filter, emit func(string)) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, filter, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, filter Filter, emit func(string)) (int64, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// A partial last line is re-read once it is complete.
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if filter == nil || filter(line) {
			emit(line)
		}
	}
}

func open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

func scan(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	return nil
}
