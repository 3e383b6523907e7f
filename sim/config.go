package sim

import "github.com/procsim/procsim/sim/trace"

// SimConfig holds the parameters of one run.
type SimConfig struct {
	Capacity int       // number of units in the pool (must be > 0)
	Policy   Policy    // nil selects ReplayPolicy
	Check    CheckMode // empty selects CheckCounts
	// MaxEvents bounds the number of dispatched events; 0 means unbounded.
	MaxEvents int
	// Trace records scheduling decisions when non-nil.
	Trace *trace.SimulationTrace
}

// NewSimConfig builds the run configuration described by a policy bundle.
// A nil bundle selects the defaults: replay policy, counts check.
func NewSimConfig(capacity int, bundle *PolicyBundle) (SimConfig, error) {
	if bundle == nil {
		bundle = &PolicyBundle{}
	}
	policy, err := NewPolicy(bundle)
	if err != nil {
		return SimConfig{}, err
	}
	return SimConfig{
		Capacity: capacity,
		Policy:   policy,
		Check:    bundle.CheckMode(),
	}, nil
}
