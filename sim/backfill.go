package sim

import (
	"fmt"
	"sort"
)

// Reservation describes the first ready job that could not start in a scheduling pass.
type Reservation struct {
	Head *Job
	// Shadow is the earliest time the head fits, assuming running jobs end on schedule.
	Shadow int64
	// Extra is the number of units still free at Shadow once the head has started.
	Extra int
}

// NewReservation computes the shadow time of head from the units free now and the
// running jobs, which release their units at their End time.
func NewReservation(head *Job, free int, running []*Job) Reservation {
	ends := make([]*Job, len(running))
	copy(ends, running)
	sort.SliceStable(ends, func(i, j int) bool {
		if ends[i].End != ends[j].End {
			return ends[i].End < ends[j].End
		}
		return ends[i].ID < ends[j].ID
	})
	r := Reservation{Head: head, Shadow: -1}
	avail := free
	for _, j := range ends {
		if avail >= head.Size {
			break
		}
		avail += j.Size
		r.Shadow = j.End
	}
	r.Extra = avail - head.Size
	return r
}

// Backfiller decides whether a job behind a blocked head may start now.
// Admit is only asked about jobs that are ready and fit in the free units; end is the
// time the candidate would complete. Admit may consume r.Extra.
type Backfiller interface {
	Admit(candidate *Job, end int64, r *Reservation) bool
}

// NoBackfill never starts a job behind a blocked head.
type NoBackfill struct{}

func (NoBackfill) Admit(_ *Job, _ int64, _ *Reservation) bool { return false }

// EASYBackfill starts a candidate that completes before the head's shadow time, or that
// only uses units the head will not need at the shadow time.
type EASYBackfill struct{}

func (EASYBackfill) Admit(candidate *Job, end int64, r *Reservation) bool {
	if r.Shadow >= 0 && end <= r.Shadow {
		return true
	}
	if candidate.Size <= r.Extra {
		r.Extra -= candidate.Size
		return true
	}
	return false
}

// AggressiveBackfill starts any candidate that fits, possibly delaying the head.
type AggressiveBackfill struct{}

func (AggressiveBackfill) Admit(_ *Job, _ int64, _ *Reservation) bool { return true }

// NewBackfiller creates a Backfiller by name.
// Valid names: "none" (default), "easy", "aggressive". Panics on unrecognized names.
func NewBackfiller(name string) Backfiller {
	if !ValidBackfillers[name] {
		panic(fmt.Sprintf("unknown backfill policy %q", name))
	}
	switch name {
	case "", "none":
		return NoBackfill{}
	case "easy":
		return EASYBackfill{}
	case "aggressive":
		return AggressiveBackfill{}
	default:
		panic(fmt.Sprintf("unhandled backfill policy %q", name))
	}
}
