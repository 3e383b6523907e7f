// Defines the Job struct that models one trace record while it moves through the simulation,
// and the immutable JobRecord reported once it completes.

package sim

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// JobState represents the lifecycle state of a job.
type JobState string

const (
	StatePending   JobState = "pending"   // known from the trace, arrival not processed yet
	StateWaiting   JobState = "waiting"   // arrived, in the waiting set
	StateRunning   JobState = "running"   // holds units
	StateCompleted JobState = "completed" // units returned, record emitted
)

// UnitRange is an inclusive range of unit indexes [First, Last].
type UnitRange struct {
	First int
	Last  int
}

// Len returns the number of units in the range.
func (r UnitRange) Len() int {
	return r.Last - r.First + 1
}

func (r UnitRange) String() string {
	return fmt.Sprintf("(%d,%d)", r.First, r.Last)
}

// TotalUnits sums the lengths of ranges.
func TotalUnits(ranges []UnitRange) int {
	total := 0
	for _, r := range ranges {
		total += r.Len()
	}
	return total
}

// FormatRanges renders ranges as "(0,3) (8,9)".
func FormatRanges(ranges []UnitRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

type Job struct {
	ID   string // Unique identifier from the trace
	User string // Submitting user; empty maps to the default user in fairshare policies

	Submit     int64 // Submission time
	TraceStart int64 // Start time recorded in the trace
	TraceEnd   int64 // End time recorded in the trace
	Size       int   // Requested unit count

	State  JobState
	Start  int64       // Simulated start time, valid once running
	End    int64       // Simulated end time, valid once running
	Ranges []UnitRange // Units held while running; empty before start and after end

	Backfilled bool // Started by the backfill pass

	// Policy-owned bookkeeping. The engine never reads it.
	PolicyData any
}

// Key identifies the job as an event entity.
func (j *Job) Key() string {
	return "job/" + j.ID
}

// TraceRunTime is the runtime recorded in the trace.
func (j *Job) TraceRunTime() int64 {
	return j.TraceEnd - j.TraceStart
}

func (j *Job) String() string {
	return fmt.Sprintf("%s: (%d, %d) units %d alloc %s", j.ID, j.Start, j.End, j.Size, FormatRanges(j.Ranges))
}

// Validate checks the record against the ingestion contract.
func (j *Job) Validate(capacity int) error {
	switch {
	case j.ID == "":
		return errors.Wrap(ErrInvalidJob, "empty id")
	case j.Size < 1:
		return errors.Wrapf(ErrInvalidJob, "job %s: size %d < 1", j.ID, j.Size)
	case j.Size > capacity:
		return errors.Wrapf(ErrInvalidJob, "job %s: size %d exceeds capacity %d", j.ID, j.Size, capacity)
	case j.TraceStart < j.Submit:
		return errors.Wrapf(ErrInvalidJob, "job %s: start %d before submit %d", j.ID, j.TraceStart, j.Submit)
	case j.TraceEnd < j.TraceStart:
		return errors.Wrapf(ErrInvalidJob, "job %s: end %d before start %d", j.ID, j.TraceEnd, j.TraceStart)
	}
	return nil
}

// JobRecord is the allocation report entry of a completed job.
type JobRecord struct {
	ID         string
	User       string
	Submit     int64
	Start      int64
	End        int64
	Size       int
	Backfilled bool
	Ranges     []UnitRange
}

// Wait is the time spent between submission and start.
func (r JobRecord) Wait() int64 {
	return r.Start - r.Submit
}

// CheckSizing verifies the reported ranges cover exactly the requested size.
func (r JobRecord) CheckSizing() error {
	if got := TotalUnits(r.Ranges); got != r.Size {
		return errors.Errorf("job %s has wrong number of units allocated: %d, want %d", r.ID, got, r.Size)
	}
	return nil
}
