package instrument

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim"
)

func finishedRun() Run {
	m := sim.NewMetrics()
	m.EventsByKind[sim.KindArrival] = 3
	m.EventsByKind[sim.KindCompletion] = 3
	m.JobsArrived, m.JobsStarted, m.JobsCompleted, m.JobsBackfilled = 3, 3, 3, 1
	m.PeakUsedUnits = 8
	m.PeakFreeRanges = 2
	m.SimStartTime, m.SimEndedTime = 0, 40
	m.UnitTime = 160
	m.Waits = []int64{0, 10, 20}
	return Run{ID: "r1", Policy: "fcfs", Capacity: 8, Metrics: m}
}

func TestCollector_ExposesRunGauges(t *testing.T) {
	// GIVEN a collector holding one finished run
	c := NewCollector()
	c.Add(finishedRun())

	// WHEN collected
	expected := `
# HELP procsim_makespan Time between the first and the last event
# TYPE procsim_makespan gauge
procsim_makespan{policy="fcfs",run="r1"} 40
# HELP procsim_peak_used_units Max number of simultaneously allocated units
# TYPE procsim_peak_used_units gauge
procsim_peak_used_units{policy="fcfs",run="r1"} 8
# HELP procsim_utilization_ratio Fraction of unit-time spent allocated
# TYPE procsim_utilization_ratio gauge
procsim_utilization_ratio{policy="fcfs",run="r1"} 0.5
`
	// THEN the gauges match the metrics
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"procsim_makespan", "procsim_peak_used_units", "procsim_utilization_ratio")
	assert.NoError(t, err)
}

func TestCollector_EventsPerKind(t *testing.T) {
	c := NewCollector()
	c.Add(finishedRun())

	expected := `
# HELP procsim_events_total Events dispatched by the engine
# TYPE procsim_events_total counter
procsim_events_total{kind="arrival",policy="fcfs",run="r1"} 3
procsim_events_total{kind="completion",policy="fcfs",run="r1"} 3
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "procsim_events_total"))
}

func TestCollector_MultipleRuns(t *testing.T) {
	// GIVEN two runs
	c := NewCollector()
	c.Add(finishedRun())
	second := finishedRun()
	second.ID = "r2"
	c.Add(second)

	// THEN every metric family repeats per run: 2 kinds + 4 transitions + 6 singles
	assert.Equal(t, 2*(2+4+6), testutil.CollectAndCount(c))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.Add(finishedRun())
	path := filepath.Join(t.TempDir(), "procsim.prom")

	require.NoError(t, WriteTextfile(path, c))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `procsim_jobs_total{policy="fcfs",run="r1",transition="backfilled"} 1`)
	assert.Contains(t, string(data), `procsim_job_wait_count{policy="fcfs",run="r1"} 3`)
}
