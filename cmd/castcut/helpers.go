package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"castcut/internal/config"
	"castcut/internal/timeline"
)

// parseOffsets turns repeated name=seconds flags into an offset map.
func parseOffsets(values []string) (map[string]float64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(values))
	for _, v := range values {
		name, raw, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("offset %q: expected name=seconds", v)
		}
		seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("offset %q: %w", v, err)
		}
		if seconds < 0 {
			return nil, fmt.Errorf("offset %q: must not be negative", v)
		}
		out[name] = seconds
	}
	return out, nil
}

// parseTimestamp accepts plain seconds ("90.5"), Go durations ("1m30s") and
// clock notation ("1:30", "01:02:03.5").
func parseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("timestamp %q is negative", value)
		}
		return config.Seconds(seconds), nil
	}
	if strings.Contains(value, ":") {
		parts := strings.Split(value, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("timestamp %q: too many fields", value)
		}
		var total float64
		for i, part := range parts {
			n, err := strconv.ParseFloat(part, 64)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("timestamp %q: bad field %q", value, part)
			}
			if i < len(parts)-1 && n != float64(int(n)) {
				return 0, fmt.Errorf("timestamp %q: only seconds may be fractional", value)
			}
			total = total*60 + n
		}
		return config.Seconds(total), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timestamp %q is negative", value)
	}
	return d, nil
}

// parseRange parses "start-end" using parseTimestamp on both sides.
func parseRange(value string) (timeline.Range, error) {
	start, end, ok := strings.Cut(value, "-")
	if !ok {
		return timeline.Range{}, fmt.Errorf("range %q: expected start-end", value)
	}
	s, err := parseTimestamp(start)
	if err != nil {
		return timeline.Range{}, err
	}
	e, err := parseTimestamp(end)
	if err != nil {
		return timeline.Range{}, err
	}
	if e <= s {
		return timeline.Range{}, fmt.Errorf("range %q: end must be after start", value)
	}
	return timeline.Range{Start: s, End: e}, nil
}

// formatClock renders d as h:mm:ss.mmm, dropping the hour when zero.
func formatClock(d time.Duration) string {
	if d < 0 {
		return "-" + formatClock(-d)
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	frac := ms % 1000
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, frac)
	}
	return fmt.Sprintf("%d:%02d.%03d", m, s, frac)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
