package history

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Kind names the command that produced a run.
type Kind string

const (
	KindMulticam Kind = "multicam"
	KindShort    Kind = "short"
	KindCut      Kind = "cut"
)

// Run is one persisted run.
type Run struct {
	ID           string
	Kind         Kind
	Output       string
	Sources      int
	Status       Status
	Stage        string
	Segments     int
	Cuts         int
	Program      time.Duration
	FailureKind  string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   *time.Time
}

// Elapsed returns the wall time of a finished run, or the time since it
// started for a run still in flight.
func (r Run) Elapsed(now time.Time) time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.CreatedAt)
	}
	return now.Sub(r.CreatedAt)
}

// Outcome carries the figures recorded when a run completes.
type Outcome struct {
	Segments int
	Cuts     int
	Program  time.Duration
}
