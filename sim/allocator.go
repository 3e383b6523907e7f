package sim

import (
	"sort"

	"github.com/pkg/errors"
)

// FreeSet owns the free-space state of a pool of identical units.
// Free units are kept as two same-length sequences, firsts[i] <= lasts[i], sorted by
// address and never adjacent: lasts[i]+1 < firsts[i+1] always holds after a mutation.
type FreeSet struct {
	capacity int
	firsts   []int
	lasts    []int
	free     int // sum of free range lengths, tracked incrementally
}

// NewFreeSet returns a pool of capacity units, all free.
func NewFreeSet(capacity int) *FreeSet {
	if capacity < 1 {
		panic("NewFreeSet: capacity must be >= 1")
	}
	return &FreeSet{
		capacity: capacity,
		firsts:   []int{0},
		lasts:    []int{capacity - 1},
		free:     capacity,
	}
}

// Capacity returns the total unit count.
func (fs *FreeSet) Capacity() int { return fs.capacity }

// Free returns the number of unallocated units.
func (fs *FreeSet) Free() int { return fs.free }

// Used returns the number of allocated units.
func (fs *FreeSet) Used() int { return fs.capacity - fs.free }

// Len returns the number of free ranges.
func (fs *FreeSet) Len() int { return len(fs.firsts) }

// Ranges returns a copy of the free ranges in address order.
func (fs *FreeSet) Ranges() []UnitRange {
	out := make([]UnitRange, len(fs.firsts))
	for i := range fs.firsts {
		out[i] = UnitRange{First: fs.firsts[i], Last: fs.lasts[i]}
	}
	return out
}

// LargestFree returns the length of the largest free range.
func (fs *FreeSet) LargestFree() int {
	largest := 0
	for i := range fs.firsts {
		if l := fs.lasts[i] - fs.firsts[i] + 1; l > largest {
			largest = l
		}
	}
	return largest
}

// Fragmentation is 1 - largest/free: 0 when all free units are contiguous.
func (fs *FreeSet) Fragmentation() float64 {
	if fs.free == 0 {
		return 0
	}
	return 1 - float64(fs.LargestFree())/float64(fs.free)
}

// Allocate takes size units using best fit and returns the ranges handed out, in the
// order they were taken. A request larger than every free range is split over several
// ranges. On ErrInsufficientCapacity the free set is left unchanged.
func (fs *FreeSet) Allocate(size int) ([]UnitRange, error) {
	if size < 1 {
		return nil, errors.Wrapf(ErrInvalidSize, "size %d", size)
	}
	if size > fs.free {
		return nil, errors.Wrapf(ErrInsufficientCapacity, "missing %d units for a request of %d", size-fs.free, size)
	}
	var out []UnitRange
	remaining := size
	for remaining > 0 {
		best := fs.bestFit(remaining)
		length := fs.lasts[best] - fs.firsts[best] + 1
		take := min(remaining, length)
		out = append(out, UnitRange{First: fs.firsts[best], Last: fs.firsts[best] + take - 1})
		if take == length {
			fs.removeAt(best)
		} else {
			fs.firsts[best] += take
		}
		fs.free -= take
		remaining -= take
	}
	return out, nil
}

// bestFit returns the index of the free range whose length is closest to want.
// The first exact match wins; other ties keep the lowest address.
func (fs *FreeSet) bestFit(want int) int {
	bestInd := -1
	bestFit := fs.capacity + 1
	for i := range fs.firsts {
		fit := fs.lasts[i] - fs.firsts[i] + 1 - want
		if fit < 0 {
			fit = -fit
		}
		if fit < bestFit {
			bestFit = fit
			bestInd = i
			if fit == 0 {
				break
			}
		}
	}
	return bestInd
}

// Release returns ranges to the free set, coalescing with adjacent free ranges.
// Every range is checked before anything is mutated: a range outside the pool fails with
// ErrUnknownRange, one that overlaps free units (or another released range) with
// ErrDoubleRelease, and in both cases the free set is left unchanged.
func (fs *FreeSet) Release(ranges []UnitRange) error {
	if err := fs.checkRelease(ranges); err != nil {
		return err
	}
	for _, r := range ranges {
		fs.insert(r.First, r.Last)
		fs.free += r.Len()
	}
	return nil
}

func (fs *FreeSet) checkRelease(ranges []UnitRange) error {
	sorted := make([]UnitRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].First < sorted[j].First })
	for i, r := range sorted {
		if r.First < 0 || r.Last >= fs.capacity || r.First > r.Last {
			return errors.Wrapf(ErrUnknownRange, "range %s outside pool of %d units", r, fs.capacity)
		}
		if i > 0 && sorted[i-1].Last >= r.First {
			return errors.Wrapf(ErrDoubleRelease, "ranges %s and %s overlap", sorted[i-1], r)
		}
		floc := sort.SearchInts(fs.firsts, r.First)
		if floc > 0 && fs.lasts[floc-1] >= r.First {
			return errors.Wrapf(ErrDoubleRelease, "range %s overlaps free range (%d,%d)", r, fs.firsts[floc-1], fs.lasts[floc-1])
		}
		if floc < len(fs.firsts) && fs.firsts[floc] <= r.Last {
			return errors.Wrapf(ErrDoubleRelease, "range %s overlaps free range (%d,%d)", r, fs.firsts[floc], fs.lasts[floc])
		}
	}
	return nil
}

// insert adds [first, last], known to be disjoint from the free set.
func (fs *FreeSet) insert(first, last int) {
	floc := sort.SearchInts(fs.firsts, first)
	mergePrev := floc > 0 && fs.lasts[floc-1]+1 == first
	mergeNext := floc < len(fs.firsts) && fs.firsts[floc] == last+1
	switch {
	case mergePrev && mergeNext:
		// the released range bridges its two neighbours: keep the predecessor's first
		// and the successor's last
		fs.lasts[floc-1] = fs.lasts[floc]
		fs.removeAt(floc)
	case mergePrev:
		fs.lasts[floc-1] = last
	case mergeNext:
		fs.firsts[floc] = first
	default:
		fs.firsts = append(fs.firsts, 0)
		fs.lasts = append(fs.lasts, 0)
		copy(fs.firsts[floc+1:], fs.firsts[floc:])
		copy(fs.lasts[floc+1:], fs.lasts[floc:])
		fs.firsts[floc] = first
		fs.lasts[floc] = last
	}
}

func (fs *FreeSet) removeAt(i int) {
	fs.firsts = append(fs.firsts[:i], fs.firsts[i+1:]...)
	fs.lasts = append(fs.lasts[:i], fs.lasts[i+1:]...)
}

// Validate checks the normal form: sorted, disjoint, non-adjacent, in bounds, and the
// incremental free counter matching the ranges.
func (fs *FreeSet) Validate() error {
	if len(fs.firsts) != len(fs.lasts) {
		return errors.Wrapf(ErrInvariantViolation, "free set has %d firsts and %d lasts", len(fs.firsts), len(fs.lasts))
	}
	total := 0
	for i := range fs.firsts {
		if fs.firsts[i] > fs.lasts[i] {
			return errors.Wrapf(ErrInvariantViolation, "free range %d is inverted: (%d,%d)", i, fs.firsts[i], fs.lasts[i])
		}
		if fs.firsts[i] < 0 || fs.lasts[i] >= fs.capacity {
			return errors.Wrapf(ErrInvariantViolation, "free range (%d,%d) outside pool", fs.firsts[i], fs.lasts[i])
		}
		if i > 0 && fs.lasts[i-1]+1 >= fs.firsts[i] {
			return errors.Wrapf(ErrInvariantViolation, "free ranges (%d,%d) and (%d,%d) are not coalesced",
				fs.firsts[i-1], fs.lasts[i-1], fs.firsts[i], fs.lasts[i])
		}
		total += fs.lasts[i] - fs.firsts[i] + 1
	}
	if total != fs.free {
		return errors.Wrapf(ErrInvariantViolation, "free counter %d, ranges hold %d", fs.free, total)
	}
	return nil
}
