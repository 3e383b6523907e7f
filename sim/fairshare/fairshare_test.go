package fairshare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim"
)

// fakeView is a fixed engine state.
type fakeView struct {
	now     int64
	used    int
	running []*sim.Job
}

func (v fakeView) Now() int64          { return v.now }
func (v fakeView) Capacity() int       { return 16 }
func (v fakeView) Free() int           { return 16 - v.used }
func (v fakeView) Used() int           { return v.used }
func (v fakeView) Running() []*sim.Job { return v.running }
func (v fakeView) Waiting() []*sim.Job { return nil }

func job(id, user string, submit, runtime int64, size int) *sim.Job {
	return &sim.Job{ID: id, User: user, Submit: submit, TraceStart: submit, TraceEnd: submit + runtime, Size: size}
}

func byID(records []sim.JobRecord) map[string]sim.JobRecord {
	out := make(map[string]sim.JobRecord, len(records))
	for _, r := range records {
		out[r.ID] = r
	}
	return out
}

func newBundle(policy string, shares map[string]float64) *sim.PolicyBundle {
	return &sim.PolicyBundle{Policy: policy, Fairshare: sim.FairshareConfig{Shares: shares}}
}

func run(t *testing.T, capacity int, b *sim.PolicyBundle, jobs []*sim.Job) ([]sim.JobRecord, sim.Policy) {
	t.Helper()
	cfg, err := sim.NewSimConfig(capacity, b)
	require.NoError(t, err)
	cfg.Check = sim.CheckStrict
	s, err := sim.NewSimulator(cfg, jobs)
	require.NoError(t, err)
	records, err := s.Run()
	require.NoError(t, err)
	return records, cfg.Policy
}

func TestPolicy_Accrue_SplitsUsedUnitsByShareAmongActiveUsers(t *testing.T) {
	// GIVEN alice (share 2) and bob (share 1) with waiting jobs, and carol whose only
	// job already completed
	p, err := NewPolicy(newBundle("fairshare", map[string]float64{"alice": 2, "bob": 1}))
	require.NoError(t, err)
	fs := p.(*Policy)
	carolJob := job("c1", "carol", 0, 1, 1)
	fs.OnArrival(carolJob, nil)
	fs.OnCompletion(carolJob, nil)
	fs.OnArrival(job("a1", "alice", 0, 1, 1), nil)
	fs.OnArrival(job("b1", "bob", 0, 1, 1), nil)

	// WHEN 6 units were used for 10 time units
	fs.Accrue(10, fakeView{used: 6})

	// THEN alice is credited 40, bob 20 and carol nothing
	users := map[string]Snapshot{}
	for _, u := range fs.Users() {
		users[u.Name] = u
	}
	assert.Equal(t, 40.0, users["alice"].Virtual)
	assert.Equal(t, 20.0, users["bob"].Virtual)
	assert.Zero(t, users["carol"].Virtual)
}

func TestPolicy_Accrue_ChargesRunningJobs(t *testing.T) {
	p, err := NewPolicy(newBundle("fairshare", nil))
	require.NoError(t, err)
	fs := p.(*Policy)
	running := []*sim.Job{job("a1", "alice", 0, 5, 3), job("x", "", 0, 5, 1)}
	for _, j := range running {
		fs.OnArrival(j, nil)
	}

	fs.Accrue(5, fakeView{used: 4, running: running})

	snaps := fs.Users()
	require.Len(t, snaps, 2)
	assert.Equal(t, "alice", snaps[0].Name)
	assert.Equal(t, 15.0, snaps[0].Usage)
	assert.Equal(t, DefaultUser, snaps[1].Name)
	assert.Equal(t, 5.0, snaps[1].Usage)
}

func TestPolicy_LightUserOvertakesHeavyUser(t *testing.T) {
	// GIVEN alice holding the whole pool, then queueing a second job before bob's
	jobs := []*sim.Job{
		job("a1", "alice", 0, 10, 4),
		job("a2", "alice", 1, 10, 4),
		job("b1", "bob", 2, 10, 4),
	}

	// WHEN scheduled by fairshare
	records, p := run(t, 4, newBundle("fairshare", nil), jobs)

	// THEN bob, who used nothing, goes before alice's second job
	got := byID(records)
	assert.Equal(t, int64(10), got["b1"].Start)
	assert.Equal(t, int64(20), got["a2"].Start)
	users := p.(*Policy).Users()
	assert.Equal(t, 80.0, users[0].Usage)
	assert.Equal(t, 40.0, users[1].Usage)
}

func TestPolicy_FCFSWouldKeepArrivalOrder(t *testing.T) {
	jobs := []*sim.Job{
		job("a1", "alice", 0, 10, 4),
		job("a2", "alice", 1, 10, 4),
		job("b1", "bob", 2, 10, 4),
	}

	records, _ := run(t, 4, &sim.PolicyBundle{Policy: "fcfs"}, jobs)

	assert.Equal(t, int64(10), byID(records)["a2"].Start)
}

func TestRegister_PoliciesAvailableByName(t *testing.T) {
	assert.True(t, sim.IsValidPolicy("fairshare"))
	assert.True(t, sim.IsValidPolicy("ostrich"))
	assert.Contains(t, sim.PolicyNames(), "ostrich")
}
