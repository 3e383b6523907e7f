package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitQueue_EnqueuePeekLen(t *testing.T) {
	wq := &WaitQueue{}
	assert.Nil(t, wq.Peek())

	wq.Enqueue(newJob("a", 0, 1, 1))
	wq.Enqueue(newJob("b", 1, 1, 1))

	assert.Equal(t, 2, wq.Len())
	assert.Equal(t, "a", wq.Peek().ID)
	assert.Equal(t, "[a b]", wq.String())
}

func TestWaitQueue_Reorder_PanicsWhenLengthChanges(t *testing.T) {
	wq := &WaitQueue{}
	wq.Enqueue(newJob("a", 0, 1, 1))

	assert.Panics(t, func() {
		wq.Reorder(func(_ []*Job) {
			wq.queue = append(wq.queue, newJob("x", 0, 1, 1))
		})
	})
	assert.Panics(t, func() { wq.Reorder(nil) })
}

func TestWaitQueue_Compact_KeepsWaitingInOrder(t *testing.T) {
	// GIVEN four waiting jobs, two of which were started by a pass
	wq := &WaitQueue{}
	for _, id := range []string{"a", "b", "c", "d"} {
		j := newJob(id, 0, 1, 1)
		j.State = StateWaiting
		wq.Enqueue(j)
	}
	wq.Items()[0].State = StateRunning
	wq.Items()[2].State = StateRunning

	// WHEN compacted
	removed := wq.Compact()

	// THEN the others keep their relative order
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"b", "d"}, ids(wq.Items()))
}
