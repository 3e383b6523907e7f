package fairshare

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/trace"
)

// Campaign groups the jobs a user submits while its previous work is still owed.
// Its workload is the sum of size x runtime of its jobs; it ends once the user's
// virtual credit covers the workload.
type Campaign struct {
	User     *User
	Index    int   // per-user sequence number
	Created  int64 // time of the first job's arrival
	Workload float64
	Virtual  float64 // credit received so far
	Closed   bool
	jobs     int // jobs joined so far, used as the in-campaign index
}

// Key identifies the campaign as an event entity.
func (c *Campaign) Key() string {
	return fmt.Sprintf("campaign/%s/%d", c.User.Name, c.Index)
}

// TimeLeft is the virtual work still owed to the campaign.
func (c *Campaign) TimeLeft() float64 {
	if c.Closed {
		return 0
	}
	return math.Max(0, c.Workload-c.Virtual)
}

type jobData struct {
	camp  *Campaign
	index int
}

// Ostrich is the campaign-based fairshare policy: jobs of the campaign whose virtual end
// (time left divided by share) comes first are scheduled first.
type Ostrich struct {
	sim.BasePolicy
	users *ledger
	trace *trace.SimulationTrace
}

// NewOstrich builds the ostrich policy from a bundle.
func NewOstrich(b *sim.PolicyBundle) (sim.Policy, error) {
	return &Ostrich{
		BasePolicy: sim.BasePolicy{Backfill: sim.NewBackfiller(b.Backfill)},
		users:      newLedger(b.Fairshare),
	}, nil
}

func (o *Ostrich) Name() string { return "ostrich" }

// SetTrace records campaign changes into t.
func (o *Ostrich) SetTrace(t *trace.SimulationTrace) { o.trace = t }

func hasCampaign(u *User) bool { return len(u.campaigns) > 0 }

// OnArrival adds the job to the user's newest campaign while it still owes work,
// otherwise opens a new campaign.
func (o *Ostrich) OnArrival(j *sim.Job, s sim.Scheduler) {
	u := o.users.get(userName(j))
	var camp *Campaign
	if n := len(u.campaigns); n > 0 && u.campaigns[n-1].TimeLeft() > 0 {
		camp = u.campaigns[n-1]
	} else {
		camp = &Campaign{User: u, Index: u.nextCamp, Created: s.Now()}
		u.nextCamp++
		u.campaigns = append(u.campaigns, camp)
		o.trace.RecordCampaign(trace.CampaignRecord{
			User:     u.Name,
			Campaign: camp.Index,
			Clock:    s.Now(),
			Event:    trace.CampaignOpened,
		})
		logrus.Debugf("[tick %07d] %s opened", s.Now(), camp.Key())
	}
	camp.Workload += float64(j.Size) * float64(o.RunTime(j))
	j.PolicyData = &jobData{camp: camp, index: camp.jobs}
	camp.jobs++
}

// Accrue credits active users and pours each user's credit into its campaigns, oldest
// first, carrying any overflow to the next one.
func (o *Ostrich) Accrue(elapsed int64, v sim.View) {
	o.users.chargeUsage(elapsed, v.Running())
	o.users.credit(elapsed, v.Used(), hasCampaign, func(u *User, w float64) {
		u.Virtual += w
		for _, c := range u.campaigns {
			if w <= 0 {
				break
			}
			take := math.Min(w, c.TimeLeft())
			c.Virtual += take
			w -= take
		}
	})
}

// OnSecondary closes the campaign whose end event fired.
func (o *Ostrich) OnSecondary(ev sim.Event, s sim.Scheduler) error {
	c, ok := ev.Entity.(*Campaign)
	if !ok {
		return errors.Wrapf(sim.ErrUnknownEventKind, "ostrich cannot handle %s", ev)
	}
	u := c.User
	for i, open := range u.campaigns {
		if open == c {
			u.campaigns = append(u.campaigns[:i], u.campaigns[i+1:]...)
			break
		}
	}
	c.Virtual = c.Workload
	c.Closed = true
	o.trace.RecordCampaign(trace.CampaignRecord{
		User:     u.Name,
		Campaign: c.Index,
		Clock:    s.Now(),
		Event:    trace.CampaignClosed,
		Workload: c.Workload,
	})
	logrus.Debugf("[tick %07d] %s closed", s.Now(), c.Key())
	return nil
}

// AfterSchedule moves the end event of every user's first open campaign to the time its
// credit will cover it at the current rate.
func (o *Ostrich) AfterSchedule(s sim.Scheduler) {
	for _, u := range o.users.order {
		if !hasCampaign(u) {
			continue
		}
		first := u.campaigns[0]
		left := first.TimeLeft()
		if left <= 0 {
			s.ScheduleSecondary(s.Now(), first)
			continue
		}
		rate := o.users.rate(u, s.Used(), hasCampaign)
		if rate <= 0 {
			s.CancelSecondary(first)
			continue
		}
		s.ScheduleSecondary(s.Now()+int64(math.Ceil(left/rate)), first)
	}
}

// OrderQueue sorts by campaign virtual end (time left / share), campaign creation time,
// index in the campaign, then ID.
func (o *Ostrich) OrderQueue(jobs []*sim.Job, _ int64) {
	sort.SliceStable(jobs, func(i, k int) bool {
		di, dk := jobs[i].PolicyData.(*jobData), jobs[k].PolicyData.(*jobData)
		ei := di.camp.TimeLeft() / di.camp.User.Share
		ek := dk.camp.TimeLeft() / dk.camp.User.Share
		if ei != ek {
			return ei < ek
		}
		if di.camp.Created != dk.camp.Created {
			return di.camp.Created < dk.camp.Created
		}
		if di.index != dk.index {
			return di.index < dk.index
		}
		return jobs[i].ID < jobs[k].ID
	})
}

// Users returns the standing of every user seen so far, sorted by name.
func (o *Ostrich) Users() []Snapshot {
	return o.users.snapshots()
}
