package sim

import (
	"fmt"
	"sort"
)

// CheckMode selects how much the ConsistencyChecker verifies.
type CheckMode string

const (
	CheckOff    CheckMode = "off"    // no checks
	CheckCounts CheckMode = "counts" // avail + busy == capacity and free-set normal form
	CheckStrict CheckMode = "strict" // counts, plus free and busy ranges tile the pool exactly
)

// ConsistencyChecker verifies that every unit is either free or held by exactly one
// running job. The engine runs it before the first event of each distinct timestamp and
// once more when the queue drains.
type ConsistencyChecker struct {
	Mode   CheckMode
	Checks int // number of checks performed
}

// NewConsistencyChecker returns a checker in the given mode.
func NewConsistencyChecker(mode CheckMode) *ConsistencyChecker {
	return &ConsistencyChecker{Mode: mode}
}

// Check returns an *InvariantViolationError describing the first inconsistency found at
// time now, or nil.
func (c *ConsistencyChecker) Check(now int64, fs *FreeSet, running []*Job) error {
	if c.Mode == CheckOff {
		return nil
	}
	c.Checks++
	avail := fs.Free()
	busy := 0
	for _, j := range running {
		busy += TotalUnits(j.Ranges)
	}
	if avail+busy != fs.Capacity() {
		return &InvariantViolationError{Time: now, Avail: avail, Busy: busy, Capacity: fs.Capacity()}
	}
	if err := fs.Validate(); err != nil {
		return &InvariantViolationError{Time: now, Avail: avail, Busy: busy, Capacity: fs.Capacity(), Detail: err.Error()}
	}
	if c.Mode != CheckStrict {
		return nil
	}
	if detail := tilingError(fs, running); detail != "" {
		return &InvariantViolationError{Time: now, Avail: avail, Busy: busy, Capacity: fs.Capacity(), Detail: detail}
	}
	return nil
}

type ownedRange struct {
	UnitRange
	owner string
}

// tilingError walks free and busy ranges in address order and reports the first overlap
// or gap, naming the owners involved.
func tilingError(fs *FreeSet, running []*Job) string {
	var all []ownedRange
	for _, r := range fs.Ranges() {
		all = append(all, ownedRange{UnitRange: r, owner: "free"})
	}
	for _, j := range running {
		for _, r := range j.Ranges {
			all = append(all, ownedRange{UnitRange: r, owner: "job " + j.ID})
		}
	}
	sort.SliceStable(all, func(i, k int) bool { return all[i].First < all[k].First })
	next := 0
	for i, r := range all {
		switch {
		case r.First < next:
			prev := all[i-1]
			return fmt.Sprintf("%s %s overlaps %s %s", r.owner, r.UnitRange, prev.owner, prev.UnitRange)
		case r.First > next:
			return fmt.Sprintf("units %s are neither free nor allocated", UnitRange{First: next, Last: r.First - 1})
		}
		next = r.Last + 1
	}
	if next != fs.Capacity() {
		return fmt.Sprintf("units %s are neither free nor allocated", UnitRange{First: next, Last: fs.Capacity() - 1})
	}
	return ""
}
