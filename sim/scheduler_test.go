package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(jobs []*Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

func TestFCFSOrder_KeepsArrivalOrder(t *testing.T) {
	jobs := []*Job{newJob("c", 5, 1, 1), newJob("a", 0, 1, 9), newJob("b", 2, 1, 4)}

	NewQueueOrder("fcfs").OrderQueue(jobs, 10)

	assert.Equal(t, []string{"c", "a", "b"}, ids(jobs))
}

func TestSJFOrder_SmallestAreaFirst(t *testing.T) {
	// areas: a 2x10=20, b 4x3=12, c 1x12=12 (submitted later than b)
	jobs := []*Job{newJob("a", 0, 10, 2), newJob("b", 1, 3, 4), newJob("c", 2, 12, 1)}

	NewQueueOrder("sjf").OrderQueue(jobs, 10)

	assert.Equal(t, []string{"b", "c", "a"}, ids(jobs))
}

func TestLargestFirstOrder_WidestFirst(t *testing.T) {
	jobs := []*Job{newJob("a", 0, 1, 2), newJob("b", 1, 1, 8), newJob("c", 0, 1, 8)}

	NewQueueOrder("lsf").OrderQueue(jobs, 10)

	assert.Equal(t, []string{"c", "b", "a"}, ids(jobs))
}

func TestPriorityOrder_LongestWaitPerUnitFirst(t *testing.T) {
	// at t=20: a waited 20 on 4 units (5/unit), b waited 10 on 1 unit (10/unit)
	jobs := []*Job{newJob("a", 0, 1, 4), newJob("b", 10, 1, 1)}

	NewQueueOrder("priority").OrderQueue(jobs, 20)

	assert.Equal(t, []string{"b", "a"}, ids(jobs))
}

func TestPriorityOrder_TiesBrokenBySubmitThenID(t *testing.T) {
	order := &PriorityOrder{Key: func(*Job, int64) float64 { return 1 }}
	jobs := []*Job{newJob("z", 3, 1, 1), newJob("y", 1, 1, 1), newJob("x", 3, 1, 1)}

	order.OrderQueue(jobs, 0)

	assert.Equal(t, []string{"y", "x", "z"}, ids(jobs))
}

func TestNewQueueOrder_UnknownNamePanics(t *testing.T) {
	assert.Panics(t, func() { NewQueueOrder("random") })
	assert.IsType(t, &FCFSOrder{}, NewQueueOrder(""))
}
