// Package export runs externally assembled engine jobs and tracks their
// progress through a serial queue.
package export

import "github.com/montage-cli/montage/media"

// JobState names a phase of an export job's lifecycle.
type JobState uint8

const (
	Pending JobState = iota
	Running
	Completed
	Failed
	Cancelled
)

func (s JobState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Job is one engine invocation. The argument vector arrives fully built by
// the caller; this side never assembles or rewrites format, codec, or
// filter flags.
type Job struct {
	// ID is assigned by the queue on Add.
	ID int
	// Name labels the job for logs and listings.
	Name string
	// Args is the complete engine argument vector, excluding the binary.
	Args []string
	// Total is the probed duration of the input in seconds, used to derive
	// completion percentages. Zero leaves percentages unknown.
	Total float64
}

// JobStatus is a point-in-time snapshot of a queued job.
type JobStatus struct {
	Job      Job
	State    JobState
	Progress media.ProgressEvent
	Err      error
}
