package sim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Every error below is fatal to the run that produced it. A replay is deterministic, so
// there is nothing to retry: the caller gets enough context to reproduce the failure.
var (
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrDoubleRelease        = errors.New("double release")
	ErrUnknownRange         = errors.New("unknown range")
	ErrInvariantViolation   = errors.New("invariant violation")
	ErrEmptyQueue           = errors.New("pop from an empty event queue")
	ErrUnknownEventKind     = errors.New("unknown event kind")
	ErrInvalidSize          = errors.New("invalid allocation size")
	ErrInvalidJob           = errors.New("invalid job")
	ErrAlreadyRun           = errors.New("simulator already ran")
	ErrBudgetExhausted      = errors.New("event budget exhausted")
)

// InvariantViolationError carries the tallies of a failed consistency check.
type InvariantViolationError struct {
	Time     int64
	Avail    int
	Busy     int
	Capacity int
	// Detail is set by the strict tiling check (for example the two owners of an overlap).
	Detail string
}

// Missing is the number of units neither free nor held by a running job.
// Negative values mean units are counted twice.
func (e *InvariantViolationError) Missing() int {
	return e.Capacity - e.Avail - e.Busy
}

func (e *InvariantViolationError) Error() string {
	msg := fmt.Sprintf("units are leaking: time %d avail %d busy %d sum %d capacity %d missing %d",
		e.Time, e.Avail, e.Busy, e.Avail+e.Busy, e.Capacity, e.Missing())
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// RunError wraps a fatal error with the engine state at the moment it happened.
type RunError struct {
	Time   int64
	Kind   EventKind
	Entity string
	Free   int
	Busy   int
	Err    error
}

func (e *RunError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("t=%d (free %d busy %d): %v", e.Time, e.Free, e.Busy, e.Err)
	}
	return fmt.Sprintf("t=%d %s %s (free %d busy %d): %v", e.Time, e.Kind, e.Entity, e.Free, e.Busy, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
