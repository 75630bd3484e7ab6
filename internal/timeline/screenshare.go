package timeline

import (
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

var screenshareStamp = regexp.MustCompile(`(\d+h_)?(\d+m_)?(\d+s_)?(\d+ms)`)

// ParseScreenshareStart reads the program-clock start embedded in a screen
// recording's file name, e.g. "screen_1h_2m_3s_450ms.mp4".
func ParseScreenshareStart(name string) (time.Duration, bool) {
	m := screenshareStamp.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	part := func(s string, suffix int) time.Duration {
		if len(s) <= suffix {
			return 0
		}
		v, err := strconv.Atoi(s[:len(s)-suffix])
		if err != nil {
			return 0
		}
		return time.Duration(v)
	}
	start := part(m[1], 2)*time.Hour +
		part(m[2], 2)*time.Minute +
		part(m[3], 2)*time.Second +
		part(m[4], 2)*time.Millisecond
	return start, true
}

// ScreenshareWindow returns the de-focus window covered by a screen recording
// of the given duration.
func ScreenshareWindow(name string, duration time.Duration) (DeFocusWindow, bool) {
	start, ok := ParseScreenshareStart(name)
	if !ok || duration <= 0 {
		return DeFocusWindow{}, false
	}
	return DeFocusWindow{Start: start, End: start + duration}, true
}
