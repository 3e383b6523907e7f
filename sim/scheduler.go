package sim

import (
	"fmt"
	"sort"
)

// QueueOrder reorders the waiting jobs before each scheduling pass.
// Implementations sort the slice in-place using sort.SliceStable for determinism.
type QueueOrder interface {
	OrderQueue(jobs []*Job, clock int64)
}

// FCFSOrder preserves arrival order (no-op): jobs are enqueued by submit time, then by
// trace end, then by trace position.
type FCFSOrder struct{}

func (f *FCFSOrder) OrderQueue(_ []*Job, _ int64) {
	// No-op: arrival order preserved from enqueue order
}

// SJFOrder sorts jobs by area (size x recorded runtime, ascending), then by submit time,
// then by ID.
// Warning: SJF can starve wide or long jobs under sustained load.
type SJFOrder struct{}

func (s *SJFOrder) OrderQueue(jobs []*Job, _ int64) {
	sort.SliceStable(jobs, func(i, j int) bool {
		ai := int64(jobs[i].Size) * jobs[i].TraceRunTime()
		aj := int64(jobs[j].Size) * jobs[j].TraceRunTime()
		if ai != aj {
			return ai < aj
		}
		if jobs[i].Submit != jobs[j].Submit {
			return jobs[i].Submit < jobs[j].Submit
		}
		return jobs[i].ID < jobs[j].ID
	})
}

// LargestFirstOrder sorts jobs by size (descending), then by submit time, then by ID.
type LargestFirstOrder struct{}

func (l *LargestFirstOrder) OrderQueue(jobs []*Job, _ int64) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].Size != jobs[j].Size {
			return jobs[i].Size > jobs[j].Size
		}
		if jobs[i].Submit != jobs[j].Submit {
			return jobs[i].Submit < jobs[j].Submit
		}
		return jobs[i].ID < jobs[j].ID
	})
}

// PriorityFunc maps a waiting job to a sort key; lower keys are scheduled first.
type PriorityFunc func(j *Job, clock int64) float64

// PriorityOrder sorts jobs by Key (ascending), then by submit time, then by ID.
// The keys are computed once per pass so Key may be expensive.
type PriorityOrder struct {
	Key PriorityFunc
}

func (p *PriorityOrder) OrderQueue(jobs []*Job, clock int64) {
	keys := make(map[*Job]float64, len(jobs))
	for _, j := range jobs {
		keys[j] = p.Key(j, clock)
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		ki, kj := keys[jobs[i]], keys[jobs[j]]
		if ki != kj {
			return ki < kj
		}
		if jobs[i].Submit != jobs[j].Submit {
			return jobs[i].Submit < jobs[j].Submit
		}
		return jobs[i].ID < jobs[j].ID
	})
}

// waitPriority favours the jobs that have waited longest, normalised by their size.
func waitPriority(j *Job, clock int64) float64 {
	return -float64(clock-j.Submit) / float64(j.Size)
}

// NewQueueOrder creates a QueueOrder by name.
// Valid names: "fcfs" (default), "sjf", "lsf", "priority" (longest wait per unit first).
// Empty string defaults to FCFSOrder. Panics on unrecognized names.
func NewQueueOrder(name string) QueueOrder {
	if !ValidQueueOrders[name] {
		panic(fmt.Sprintf("unknown queue order %q", name))
	}
	switch name {
	case "", "fcfs":
		return &FCFSOrder{}
	case "sjf":
		return &SJFOrder{}
	case "lsf":
		return &LargestFirstOrder{}
	case "priority":
		return &PriorityOrder{Key: waitPriority}
	default:
		panic(fmt.Sprintf("unhandled queue order %q", name))
	}
}
