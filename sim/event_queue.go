package sim

import "container/heap"

// eventKey identifies the live event of an entity: an entity has at most one scheduled
// event per kind.
type eventKey struct {
	kind EventKind
	key  string
}

type queueEntry struct {
	event Event
	seq   uint64 // insertion sequence, the last tie-breaker
	index int    // position in the heap, maintained by Swap/Push/Pop
}

// eventHeap implements heap.Interface with deterministic ordering:
// time -> kind priority -> insertion sequence.
type eventHeap []*queueEntry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	ei, ej := h[i], h[j]
	if ei.event.Time != ej.event.Time {
		return ei.event.Time < ej.event.Time
	}
	if pi, pj := ei.event.Kind.priority(), ej.event.Kind.priority(); pi != pj {
		return pi < pj
	}
	return ei.seq < ej.seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	entry := x.(*queueEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil // avoid memory leak
	entry.index = -1
	*h = old[:n-1]
	return entry
}

// EventQueue is a min-priority queue of events with cancel-and-reinsert by (kind, entity).
// Entries are indexed by key so a rescheduled event is removed from the heap immediately
// instead of being left behind as a tombstone.
type EventQueue struct {
	events  eventHeap
	entries map[eventKey]*queueEntry
	nextSeq uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{
		events:  make(eventHeap, 0),
		entries: make(map[eventKey]*queueEntry),
	}
	heap.Init(&q.events)
	return q
}

// Add schedules kind for entity at time. A live event with the same (kind, entity) is
// replaced, so rescheduling is a plain Add with the new time.
func (q *EventQueue) Add(time int64, kind EventKind, entity Entity) {
	k := eventKey{kind: kind, key: entity.Key()}
	if old, ok := q.entries[k]; ok {
		heap.Remove(&q.events, old.index)
	}
	entry := &queueEntry{
		event: Event{Time: time, Kind: kind, Entity: entity},
		seq:   q.nextSeq,
	}
	q.nextSeq++
	q.entries[k] = entry
	heap.Push(&q.events, entry)
}

// Cancel removes the live (kind, entity) event and reports whether there was one.
func (q *EventQueue) Cancel(kind EventKind, entity Entity) bool {
	k := eventKey{kind: kind, key: entity.Key()}
	entry, ok := q.entries[k]
	if !ok {
		return false
	}
	heap.Remove(&q.events, entry.index)
	delete(q.entries, k)
	return true
}

// Scheduled returns the time of the live (kind, entity) event, if any.
func (q *EventQueue) Scheduled(kind EventKind, entity Entity) (int64, bool) {
	entry, ok := q.entries[eventKey{kind: kind, key: entity.Key()}]
	if !ok {
		return 0, false
	}
	return entry.event.Time, true
}

// Pop removes and returns the next event.
func (q *EventQueue) Pop() (Event, error) {
	if q.events.Len() == 0 {
		return Event{}, ErrEmptyQueue
	}
	entry := heap.Pop(&q.events).(*queueEntry)
	delete(q.entries, eventKey{kind: entry.event.Kind, key: entry.event.Entity.Key()})
	return entry.event, nil
}

// Peek returns the next event without removing it.
func (q *EventQueue) Peek() (Event, bool) {
	if q.events.Len() == 0 {
		return Event{}, false
	}
	return q.events[0].event, true
}

// IsEmpty reports whether no live event remains.
func (q *EventQueue) IsEmpty() bool {
	return q.events.Len() == 0
}

// Len returns the number of live events.
func (q *EventQueue) Len() int {
	return q.events.Len()
}
