package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrRunInProgress = errors.New("run already in progress")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// AlignmentError reports that the alignment oracle found no usable offset for a
// source. Callers fall back to a zero offset and log a warning.
type AlignmentError struct {
	Source string
	Reason string
	Err    error
}

func (e *AlignmentError) Error() string {
	msg := fmt.Sprintf("alignment: %s", e.Source)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AlignmentError) Unwrap() error { return e.Err }

// AudioDecodeError reports a source whose audio could not be decoded or that has
// no audio stream at all.
type AudioDecodeError struct {
	Source string
	Err    error
}

func (e *AudioDecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("audio decode: %s: no audio track", e.Source)
	}
	return fmt.Sprintf("audio decode: %s: %v", e.Source, e.Err)
}

func (e *AudioDecodeError) Unwrap() error { return e.Err }

// SourceUnavailableError reports a missing or unreadable input file. It aborts
// the run.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("source unavailable: %s", e.Path)
	}
	return fmt.Sprintf("source unavailable: %s: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// RenderError reports a failed extraction, concat, mix or mux step.
type RenderError struct {
	Step string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("render %s failed", e.Step)
	}
	return fmt.Sprintf("render %s: %v", e.Step, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// FailureKind classifies err into a short stable label used for run history and
// log fields.
func FailureKind(err error) string {
	var (
		alignErr  *AlignmentError
		decodeErr *AudioDecodeError
		srcErr    *SourceUnavailableError
		renderErr *RenderError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &srcErr):
		return "source_unavailable"
	case errors.As(err, &renderErr):
		return "render"
	case errors.As(err, &decodeErr):
		return "audio_decode"
	case errors.As(err, &alignErr):
		return "alignment"
	case errors.Is(err, ErrRunInProgress):
		return "locked"
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "failed"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
