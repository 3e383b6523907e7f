package fairshare

import (
	"sort"

	"github.com/procsim/procsim/sim"
)

// Policy orders waiting jobs by their user's usage normalised by share, so users that
// consumed less than their share go first. Jobs keep their recorded runtime.
type Policy struct {
	sim.BasePolicy
	users *ledger
}

// NewPolicy builds the fairshare policy from a bundle.
func NewPolicy(b *sim.PolicyBundle) (sim.Policy, error) {
	return &Policy{
		BasePolicy: sim.BasePolicy{Backfill: sim.NewBackfiller(b.Backfill)},
		users:      newLedger(b.Fairshare),
	}, nil
}

func (p *Policy) Name() string { return "fairshare" }

func (p *Policy) OnArrival(j *sim.Job, _ sim.Scheduler) {
	u := p.users.get(userName(j))
	u.jobs++
	j.PolicyData = u
}

func (p *Policy) OnCompletion(j *sim.Job, _ sim.Scheduler) {
	j.PolicyData.(*User).jobs--
}

func active(u *User) bool { return u.jobs > 0 }

// Accrue charges raw usage and credits every user with waiting or running jobs its
// share of the used units. Ordering reads only the usage; the credit shows up in Users.
func (p *Policy) Accrue(elapsed int64, v sim.View) {
	p.users.chargeUsage(elapsed, v.Running())
	p.users.credit(elapsed, v.Used(), active, func(u *User, w float64) {
		u.Virtual += w
	})
}

// OrderQueue sorts by usage/share, then submit time, then ID.
func (p *Policy) OrderQueue(jobs []*sim.Job, _ int64) {
	sort.SliceStable(jobs, func(i, k int) bool {
		ui, uk := jobs[i].PolicyData.(*User), jobs[k].PolicyData.(*User)
		pi, pk := ui.Usage/ui.Share, uk.Usage/uk.Share
		if pi != pk {
			return pi < pk
		}
		if jobs[i].Submit != jobs[k].Submit {
			return jobs[i].Submit < jobs[k].Submit
		}
		return jobs[i].ID < jobs[k].ID
	})
}

// Users returns the standing of every user seen so far, sorted by name.
func (p *Policy) Users() []Snapshot {
	return p.users.snapshots()
}
