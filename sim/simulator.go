// sim/simulator.go
package sim

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/trace"
)

// RunState is the lifecycle of a Simulator.
type RunState string

const (
	StateIdle    RunState = "idle"
	StateRun     RunState = "running"
	StateDrained RunState = "drained"
	StateFailed  RunState = "failed"
)

// Simulator is the core object that holds simulation time, the unit pool, the
// running/waiting sets and the event loop.
type Simulator struct {
	Clock int64
	Units *FreeSet
	// EventQueue holds completion, wakeup and policy events. Arrivals are injected
	// lazily from jobs as the clock reaches their submit time.
	EventQueue *EventQueue
	// WaitQ aka the waiting set: arrived jobs that have not started
	WaitQ   *WaitQueue
	Metrics *Metrics
	Trace   *trace.SimulationTrace

	policy  Policy
	checker *ConsistencyChecker

	jobs        []*Job // sorted by (submit, trace end), stable
	nextArrival int
	running     []*Job // in start order
	records     []JobRecord

	state     RunState
	maxEvents int
	hasPrev   bool
	prevTime  int64
	checkedAt int64
	checked   bool
}

// NewSimulator validates jobs against the capacity and prepares a run.
// Jobs are owned by the simulator from here on.
func NewSimulator(cfg SimConfig, jobs []*Job) (*Simulator, error) {
	if cfg.Capacity < 1 {
		return nil, errors.Wrapf(ErrInvalidSize, "capacity %d", cfg.Capacity)
	}
	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if err := j.Validate(cfg.Capacity); err != nil {
			return nil, err
		}
		if seen[j.ID] {
			return nil, errors.Wrapf(ErrInvalidJob, "duplicate job id %s", j.ID)
		}
		seen[j.ID] = true
	}
	policy := cfg.Policy
	if policy == nil {
		policy = &ReplayPolicy{}
	}
	check := cfg.Check
	if check == "" {
		check = CheckCounts
	}
	sorted := make([]*Job, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, k int) bool {
		if sorted[i].Submit != sorted[k].Submit {
			return sorted[i].Submit < sorted[k].Submit
		}
		return sorted[i].TraceEnd < sorted[k].TraceEnd
	})
	for _, j := range sorted {
		j.State = StatePending
		j.Ranges = nil
	}
	if t, ok := policy.(Traceable); ok && cfg.Trace != nil {
		t.SetTrace(cfg.Trace)
	}
	return &Simulator{
		Units:      NewFreeSet(cfg.Capacity),
		EventQueue: NewEventQueue(),
		WaitQ:      &WaitQueue{},
		Metrics:    NewMetrics(),
		Trace:      cfg.Trace,
		policy:     policy,
		checker:    NewConsistencyChecker(check),
		jobs:       sorted,
		state:      StateIdle,
		maxEvents:  cfg.MaxEvents,
	}, nil
}

// State returns the lifecycle state of the run.
func (sim *Simulator) State() RunState { return sim.state }

// Policy returns the policy driving the run.
func (sim *Simulator) Policy() Policy { return sim.policy }

// Records returns the completed jobs in completion order.
func (sim *Simulator) Records() []JobRecord { return sim.records }

// View implementation.

func (sim *Simulator) Now() int64      { return sim.Clock }
func (sim *Simulator) Capacity() int   { return sim.Units.Capacity() }
func (sim *Simulator) Free() int       { return sim.Units.Free() }
func (sim *Simulator) Used() int       { return sim.Units.Used() }
func (sim *Simulator) Running() []*Job { return sim.running }
func (sim *Simulator) Waiting() []*Job { return sim.WaitQ.Items() }

// Scheduler implementation.

func (sim *Simulator) ScheduleSecondary(at int64, entity Entity) {
	if at < sim.Clock {
		at = sim.Clock
	}
	sim.EventQueue.Add(at, KindCampaignEnd, entity)
}

func (sim *Simulator) CancelSecondary(entity Entity) bool {
	return sim.EventQueue.Cancel(KindCampaignEnd, entity)
}

func (sim *Simulator) SecondaryAt(entity Entity) (int64, bool) {
	return sim.EventQueue.Scheduled(KindCampaignEnd, entity)
}

// Run processes every event until the queue drains and returns the completed jobs in
// completion order. It may be called once.
func (sim *Simulator) Run() ([]JobRecord, error) {
	if sim.state != StateIdle {
		return nil, ErrAlreadyRun
	}
	sim.state = StateRun
	logrus.Debugf("[tick %07d] Simulation started: %d jobs, %d units, policy %s",
		sim.Clock, len(sim.jobs), sim.Units.Capacity(), sim.policy.Name())

	dispatched := 0
	for sim.nextArrival < len(sim.jobs) || !sim.EventQueue.IsEmpty() {
		if sim.injectArrivals() {
			continue
		}
		if sim.maxEvents > 0 && dispatched >= sim.maxEvents {
			next, _ := sim.EventQueue.Peek()
			return sim.records, sim.fail(next, errors.Wrapf(ErrBudgetExhausted, "%d events dispatched", dispatched))
		}
		ev, err := sim.EventQueue.Pop()
		if err != nil {
			return sim.records, sim.fail(ev, err)
		}
		if err := sim.step(ev); err != nil {
			return sim.records, sim.fail(ev, err)
		}
		dispatched++
	}

	if err := sim.checker.Check(sim.Clock, sim.Units, sim.running); err != nil {
		return sim.records, sim.fail(Event{Time: sim.Clock}, err)
	}
	sim.Metrics.ConsistencyChecks = sim.checker.Checks
	sim.state = StateDrained
	logrus.Infof("[tick %07d] Simulation ended: %d jobs completed, %d events", sim.Clock, len(sim.records), dispatched)
	return sim.records, nil
}

// injectArrivals adds to the queue every pending job whose submit time is not later than
// the next queued event (or the next arrival when the queue is empty). It reports whether
// anything was added, in which case the caller re-reads the queue minimum.
func (sim *Simulator) injectArrivals() bool {
	if sim.nextArrival >= len(sim.jobs) {
		return false
	}
	limit := sim.jobs[sim.nextArrival].Submit
	if next, ok := sim.EventQueue.Peek(); ok {
		limit = next.Time
	}
	added := false
	for sim.nextArrival < len(sim.jobs) && sim.jobs[sim.nextArrival].Submit <= limit {
		j := sim.jobs[sim.nextArrival]
		sim.EventQueue.Add(j.Submit, KindArrival, j)
		sim.nextArrival++
		added = true
	}
	return added
}

// step runs the consistency check when the clock moves, advances virtual time, then
// dispatches ev and runs the scheduling passes.
func (sim *Simulator) step(ev Event) error {
	if !sim.checked || ev.Time != sim.checkedAt {
		if err := sim.checker.Check(ev.Time, sim.Units, sim.running); err != nil {
			return err
		}
		sim.checked, sim.checkedAt = true, ev.Time
	}
	if sim.hasPrev {
		if elapsed := ev.Time - sim.prevTime; elapsed > 0 {
			sim.Metrics.advance(elapsed, sim.Units.Used())
			sim.policy.Accrue(elapsed, sim)
		}
	} else {
		sim.Metrics.SimStartTime = ev.Time
	}
	sim.hasPrev, sim.prevTime = true, ev.Time
	sim.Clock = ev.Time
	sim.Metrics.SimEndedTime = ev.Time
	sim.Metrics.EventsByKind[ev.Kind]++
	logrus.Debugf("[tick %07d] %s %s", sim.Clock, ev.Kind, ev.Entity.Key())

	switch ev.Kind {
	case KindArrival:
		sim.handleArrival(ev.Entity.(*Job))
	case KindCompletion:
		if err := sim.handleCompletion(ev.Entity.(*Job)); err != nil {
			return err
		}
	case KindCampaignEnd:
		if err := sim.policy.OnSecondary(ev, sim); err != nil {
			return err
		}
	case KindWakeup:
		// readiness changed, the scheduling pass below does the work
	default:
		return errors.Wrapf(ErrUnknownEventKind, "%s", ev)
	}

	// every completion at this instant returns its units before anything starts
	if sim.completionPending() {
		return nil
	}
	if err := sim.schedule(); err != nil {
		return err
	}
	sim.policy.AfterSchedule(sim)
	return nil
}

// completionPending reports whether the next queued event is a completion at the
// current clock.
func (sim *Simulator) completionPending() bool {
	next, ok := sim.EventQueue.Peek()
	return ok && next.Time == sim.Clock && next.Kind == KindCompletion
}

func (sim *Simulator) handleArrival(j *Job) {
	sim.Metrics.JobsArrived++
	sim.policy.OnArrival(j, sim)
	j.State = StateWaiting
	sim.WaitQ.Enqueue(j)
	if ready := sim.policy.ReadyAt(j); ready > sim.Clock {
		sim.EventQueue.Add(ready, KindWakeup, j)
	}
}

func (sim *Simulator) handleCompletion(j *Job) error {
	if err := sim.Units.Release(j.Ranges); err != nil {
		return errors.WithMessagef(err, "releasing units of job %s", j.ID)
	}
	sim.Metrics.recordRelease(sim.Units.Len())
	for i, r := range sim.running {
		if r == j {
			sim.running = append(sim.running[:i], sim.running[i+1:]...)
			break
		}
	}
	ranges := j.Ranges
	j.Ranges = nil
	j.State = StateCompleted
	sim.policy.OnCompletion(j, sim)
	sim.records = append(sim.records, JobRecord{
		ID:         j.ID,
		User:       j.User,
		Submit:     j.Submit,
		Start:      j.Start,
		End:        j.End,
		Size:       j.Size,
		Backfilled: j.Backfilled,
		Ranges:     ranges,
	})
	sim.Metrics.JobsCompleted++
	return nil
}

// schedule is the scheduling pass followed by the backfill pass. Jobs that are not ready
// yet are skipped. The first ready job that does not fit blocks every later job, unless
// the backfill policy admits them.
func (sim *Simulator) schedule() error {
	if sim.WaitQ.Len() == 0 {
		return nil
	}
	sim.WaitQ.Reorder(func(jobs []*Job) {
		sim.policy.OrderQueue(jobs, sim.Clock)
	})

	var res *Reservation
	for _, j := range sim.WaitQ.Items() {
		if sim.policy.ReadyAt(j) > sim.Clock {
			continue
		}
		if res == nil {
			if j.Size <= sim.Units.Free() {
				if err := sim.start(j, false); err != nil {
					return err
				}
				continue
			}
			if sim.policy.Pinned(j) {
				if sim.completionPending() {
					// a zero-length job started in this pass still holds units
					continue
				}
				return errors.Wrapf(ErrInsufficientCapacity, "pinned job %s needs %d units, %d free",
					j.ID, j.Size, sim.Units.Free())
			}
			r := NewReservation(j, sim.Units.Free(), sim.running)
			res = &r
			sim.Trace.RecordBlock(trace.BlockRecord{
				JobID:  j.ID,
				Clock:  sim.Clock,
				Size:   j.Size,
				Free:   sim.Units.Free(),
				Shadow: r.Shadow,
			})
			continue
		}
		if j.Size > sim.Units.Free() {
			continue
		}
		if !sim.policy.CanBackfill(j, sim.Clock+sim.policy.RunTime(j), res) {
			continue
		}
		if err := sim.start(j, true); err != nil {
			return err
		}
	}
	sim.WaitQ.Compact()
	return nil
}

func (sim *Simulator) start(j *Job, backfilled bool) error {
	ranges, err := sim.Units.Allocate(j.Size)
	if err != nil {
		return errors.WithMessagef(err, "starting job %s", j.ID)
	}
	j.Ranges = ranges
	j.State = StateRunning
	j.Start = sim.Clock
	j.End = sim.Clock + sim.policy.RunTime(j)
	j.Backfilled = backfilled
	sim.running = append(sim.running, j)
	sim.EventQueue.Cancel(KindWakeup, j)
	sim.EventQueue.Add(j.End, KindCompletion, j)
	sim.policy.OnStart(j, sim)
	sim.Metrics.recordStart(j, sim.Units.Used(), sim.Units.Len())
	sim.Trace.RecordStart(trace.StartRecord{
		JobID:      j.ID,
		User:       j.User,
		Clock:      sim.Clock,
		Wait:       j.Start - j.Submit,
		Size:       j.Size,
		Backfilled: backfilled,
		Ranges:     FormatRanges(ranges),
	})
	logrus.Debugf("[tick %07d] start %s", sim.Clock, j)
	return nil
}

func (sim *Simulator) fail(ev Event, err error) error {
	sim.state = StateFailed
	sim.Metrics.ConsistencyChecks = sim.checker.Checks
	entity := ""
	if ev.Entity != nil {
		entity = ev.Entity.Key()
	}
	return &RunError{
		Time:   ev.Time,
		Kind:   ev.Kind,
		Entity: entity,
		Free:   sim.Units.Free(),
		Busy:   sim.Units.Used(),
		Err:    err,
	}
}
