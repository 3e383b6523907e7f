package sim

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/procsim/procsim/sim/trace"
)

// View is the read-only engine state handed to policies.
// The slices returned by Running and Waiting are engine storage and must not be modified.
type View interface {
	Now() int64
	Capacity() int
	Free() int
	Used() int
	Running() []*Job
	Waiting() []*Job
}

// Scheduler lets a policy manage its own secondary events (KindCampaignEnd).
// An entity has at most one live secondary event; scheduling it again moves it.
type Scheduler interface {
	View
	ScheduleSecondary(at int64, entity Entity)
	CancelSecondary(entity Entity) bool
	SecondaryAt(entity Entity) (int64, bool)
}

// Policy is the extension point of the engine. The engine owns the event loop, the free
// set and the running/waiting sets; a policy decides order, readiness, runtime and keeps
// whatever virtual-time bookkeeping it needs.
type Policy interface {
	Name() string

	// OnArrival is called before the job joins the waiting set.
	OnArrival(j *Job, s Scheduler)
	// OnStart is called after the job's units are allocated.
	OnStart(j *Job, s Scheduler)
	// OnCompletion is called after the job's units are released.
	OnCompletion(j *Job, s Scheduler)
	// OnSecondary handles a KindCampaignEnd event scheduled by the policy.
	OnSecondary(ev Event, s Scheduler) error
	// Accrue advances virtual time by elapsed, with the allocation state that held
	// during the whole interval. Called once per distinct timestamp, before dispatch.
	Accrue(elapsed int64, v View)

	OrderQueue(jobs []*Job, clock int64)
	// ReadyAt is the earliest time the job may start.
	ReadyAt(j *Job) int64
	RunTime(j *Job) int64
	// Pinned jobs must start as soon as they are ready: failing to fit is fatal.
	Pinned(j *Job) bool
	CanBackfill(j *Job, end int64, r *Reservation) bool
	AfterSchedule(s Scheduler)
}

// Traceable is implemented by policies that record their own decisions. The engine
// hands them the run's trace before the first event.
type Traceable interface {
	SetTrace(t *trace.SimulationTrace)
}

// BasePolicy provides defaults for every hook. Embed it and override what differs.
// A nil Order keeps arrival order and a nil Backfill never backfills.
type BasePolicy struct {
	Order    QueueOrder
	Backfill Backfiller
}

func (b *BasePolicy) Name() string                     { return "base" }
func (b *BasePolicy) OnArrival(_ *Job, _ Scheduler)    {}
func (b *BasePolicy) OnStart(_ *Job, _ Scheduler)      {}
func (b *BasePolicy) OnCompletion(_ *Job, _ Scheduler) {}
func (b *BasePolicy) Accrue(_ int64, _ View)           {}
func (b *BasePolicy) AfterSchedule(_ Scheduler)        {}
func (b *BasePolicy) ReadyAt(j *Job) int64             { return j.Submit }
func (b *BasePolicy) RunTime(j *Job) int64             { return j.TraceRunTime() }
func (b *BasePolicy) Pinned(_ *Job) bool               { return false }

func (b *BasePolicy) OnSecondary(ev Event, _ Scheduler) error {
	return errors.Wrapf(ErrUnknownEventKind, "no secondary handler for %s", ev)
}

func (b *BasePolicy) OrderQueue(jobs []*Job, clock int64) {
	if b.Order != nil {
		b.Order.OrderQueue(jobs, clock)
	}
}

func (b *BasePolicy) CanBackfill(j *Job, end int64, r *Reservation) bool {
	if b.Backfill == nil {
		return false
	}
	return b.Backfill.Admit(j, end, r)
}

// ReplayPolicy reproduces the recorded schedule: every job starts at its trace start
// and ends at its trace end, on whatever units best fit hands out at that moment.
type ReplayPolicy struct {
	BasePolicy
}

func (p *ReplayPolicy) Name() string         { return "replay" }
func (p *ReplayPolicy) ReadyAt(j *Job) int64 { return j.TraceStart }
func (p *ReplayPolicy) Pinned(_ *Job) bool   { return true }

// FCFSPolicy starts jobs as soon as they fit, in the configured queue order, keeping the
// recorded runtimes.
type FCFSPolicy struct {
	BasePolicy
}

func (p *FCFSPolicy) Name() string { return "fcfs" }

// PolicyFactory builds a policy from a validated bundle.
type PolicyFactory func(b *PolicyBundle) (Policy, error)

var policyFactories = map[string]PolicyFactory{}

// RegisterPolicy makes a policy available to NewPolicy and bundle validation.
// Sub-packages call it from init(). Panics on duplicate names.
func RegisterPolicy(name string, f PolicyFactory) {
	if name == "" || f == nil {
		panic("RegisterPolicy: name and factory must be set")
	}
	if _, ok := policyFactories[name]; ok {
		panic(fmt.Sprintf("RegisterPolicy: policy %q registered twice", name))
	}
	policyFactories[name] = f
}

// IsValidPolicy reports whether name is registered. Empty string selects "replay".
func IsValidPolicy(name string) bool {
	if name == "" {
		return true
	}
	_, ok := policyFactories[name]
	return ok
}

// PolicyNames returns the registered policy names, sorted.
func PolicyNames() []string {
	names := maps.Keys(policyFactories)
	sort.Strings(names)
	return names
}

// NewPolicy builds the policy named by the bundle.
func NewPolicy(b *PolicyBundle) (Policy, error) {
	if b == nil {
		b = &PolicyBundle{}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	name := b.Policy
	if name == "" {
		name = "replay"
	}
	return policyFactories[name](b)
}

func init() {
	RegisterPolicy("replay", func(b *PolicyBundle) (Policy, error) {
		return &ReplayPolicy{BasePolicy{Order: NewQueueOrder(b.QueueOrder)}}, nil
	})
	RegisterPolicy("fcfs", func(b *PolicyBundle) (Policy, error) {
		return &FCFSPolicy{BasePolicy{
			Order:    NewQueueOrder(b.QueueOrder),
			Backfill: NewBackfiller(b.Backfill),
		}}, nil
	})
}
