// Implements the WaitQueue, which holds every job that has arrived but not started.
// Jobs are enqueued on arrival, in arrival order.

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue is the waiting set of the engine. Its order is the order of the last
// scheduling pass, so the policy's OrderQueue is applied before every pass.
type WaitQueue struct {
	queue []*Job
}

// Enqueue adds a job to the back of the wait queue.
func (wq *WaitQueue) Enqueue(j *Job) {
	if j == nil {
		panic("Enqueue: job must not be nil")
	}
	wq.queue = append(wq.queue, j)
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, j := range wq.queue {
		sb.WriteString(j.ID)
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of waiting jobs.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Peek returns the job at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Peek() *Job {
	if len(wq.queue) == 0 {
		return nil
	}
	return wq.queue[0]
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage: callers may iterate over it but
// MUST NOT append to or reslice it. For reordering, use Reorder() instead.
func (wq *WaitQueue) Items() []*Job {
	return wq.queue
}

// Reorder applies fn to the queue contents, allowing in-place reordering:
//
//	wq.Reorder(func(jobs []*Job) {
//	    policy.OrderQueue(jobs, now)
//	})
//
// fn MUST NOT change the slice length (no append/delete).
func (wq *WaitQueue) Reorder(fn func([]*Job)) {
	if fn == nil {
		panic("Reorder: fn must not be nil")
	}
	n := len(wq.queue)
	fn(wq.queue)
	if len(wq.queue) != n {
		panic(fmt.Sprintf("Reorder: fn changed queue length from %d to %d", n, len(wq.queue)))
	}
}

// Compact drops the jobs that left the waiting state during a scheduling pass,
// keeping the relative order of the others.
func (wq *WaitQueue) Compact() int {
	kept := wq.queue[:0]
	removed := 0
	for _, j := range wq.queue {
		if j.State == StateWaiting {
			kept = append(kept, j)
		} else {
			removed++
		}
	}
	for i := len(kept); i < len(wq.queue); i++ {
		wq.queue[i] = nil
	}
	wq.queue = kept
	return removed
}
