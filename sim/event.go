package sim

import "fmt"

// EventKind is the closed set of events the engine dispatches.
type EventKind int

const (
	KindCompletion EventKind = iota
	KindCampaignEnd
	KindArrival
	KindWakeup
)

// EventKindPriority breaks ties between events sharing a timestamp (lower first).
// Completions come first so the units they free are visible to same-instant arrivals.
var EventKindPriority = map[EventKind]int{
	KindCompletion:  0,
	KindCampaignEnd: 1,
	KindArrival:     2,
	KindWakeup:      3,
}

func (k EventKind) priority() int {
	if p, ok := EventKindPriority[k]; ok {
		return p
	}
	return len(EventKindPriority) + int(k)
}

func (k EventKind) String() string {
	switch k {
	case KindCompletion:
		return "completion"
	case KindCampaignEnd:
		return "campaign-end"
	case KindArrival:
		return "arrival"
	case KindWakeup:
		return "wakeup"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entity is the payload of an event. Its key, together with the event kind, identifies the
// event for cancellation and rescheduling.
type Entity interface {
	Key() string
}

// Event is a timestamped (kind, entity) pair.
type Event struct {
	Time   int64
	Kind   EventKind
	Entity Entity
}

func (e Event) String() string {
	key := "<nil>"
	if e.Entity != nil {
		key = e.Entity.Key()
	}
	return fmt.Sprintf("%d: %s %s", e.Time, e.Kind, key)
}
