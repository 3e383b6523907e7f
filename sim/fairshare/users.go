// Package fairshare provides scheduling policies that divide the pool between users in
// proportion to their shares: a usage-based fairshare policy and the campaign-based
// ostrich policy.
package fairshare

import (
	"sort"

	"github.com/procsim/procsim/sim"
)

// DefaultUser owns the jobs whose trace record has no user.
const DefaultUser = "default"

// User is the standing of one user in a share-based policy.
type User struct {
	Name  string
	Share float64
	// Usage is the unit-time held by the user's running jobs.
	Usage float64
	// Virtual is the unit-time the user was entitled to: while active, the user is
	// credited its share of the used units. The fairshare policy only reports it;
	// ostrich hands it on to the user's campaigns.
	Virtual float64

	jobs      int         // jobs arrived and not completed
	campaigns []*Campaign // open campaigns, oldest first (ostrich only)
	nextCamp  int
}

// Snapshot is a read-only copy of a User for reporting.
type Snapshot struct {
	Name          string
	Share         float64
	Usage         float64
	Virtual       float64
	OpenCampaigns int
}

// ledger keeps users in first-seen order so iteration is deterministic.
type ledger struct {
	cfg   sim.FairshareConfig
	byKey map[string]*User
	order []*User
}

func newLedger(cfg sim.FairshareConfig) *ledger {
	return &ledger{cfg: cfg, byKey: make(map[string]*User)}
}

func userName(j *sim.Job) string {
	if j.User == "" {
		return DefaultUser
	}
	return j.User
}

func (l *ledger) get(name string) *User {
	if u, ok := l.byKey[name]; ok {
		return u
	}
	u := &User{Name: name, Share: l.cfg.Share(name)}
	l.byKey[name] = u
	l.order = append(l.order, u)
	return u
}

func (l *ledger) activeShares(active func(*User) bool) float64 {
	total := 0.0
	for _, u := range l.order {
		if active(u) {
			total += u.Share
		}
	}
	return total
}

// credit hands out elapsed x used unit-time to the users for which active returns
// true, in proportion to their shares, and calls fn with each user's portion.
func (l *ledger) credit(elapsed int64, used int, active func(*User) bool, fn func(*User, float64)) {
	total := l.activeShares(active)
	if total == 0 || used == 0 {
		return
	}
	work := float64(elapsed) * float64(used)
	for _, u := range l.order {
		if active(u) {
			fn(u, work*u.Share/total)
		}
	}
}

// rate returns the unit-time per time unit u currently receives.
func (l *ledger) rate(u *User, used int, active func(*User) bool) float64 {
	total := l.activeShares(active)
	if total == 0 {
		return 0
	}
	return float64(used) * u.Share / total
}

// chargeUsage adds the unit-time held by running jobs over elapsed.
func (l *ledger) chargeUsage(elapsed int64, running []*sim.Job) {
	for _, j := range running {
		l.get(userName(j)).Usage += float64(elapsed) * float64(j.Size)
	}
}

func (l *ledger) snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(l.order))
	for _, u := range l.order {
		out = append(out, Snapshot{
			Name:          u.Name,
			Share:         u.Share,
			Usage:         u.Usage,
			Virtual:       u.Virtual,
			OpenCampaigns: len(u.campaigns),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
