// Tracks run-wide statistics: events per kind, job counts, unit usage over time and
// waiting times.

package sim

import (
	"fmt"
	"io"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	EventsByKind map[EventKind]int // events dispatched, per kind

	JobsArrived    int
	JobsStarted    int
	JobsCompleted  int
	JobsBackfilled int

	PeakUsedUnits  int   // max number of simultaneously allocated units
	UnitTime       int64 // integral of allocated units over time
	PeakFreeRanges int   // max number of free ranges, a fragmentation indicator

	ConsistencyChecks int

	SimStartTime int64 // time of the first event
	SimEndedTime int64 // time of the last event

	Waits []int64 // start - submit of every started job, in start order
}

// NewMetrics returns empty metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsByKind: make(map[EventKind]int),
		Waits:        make([]int64, 0),
	}
}

// EventsProcessed is the total number of dispatched events.
func (m *Metrics) EventsProcessed() int {
	total := 0
	for _, n := range m.EventsByKind {
		total += n
	}
	return total
}

// advance accounts for used units held over elapsed time.
func (m *Metrics) advance(elapsed int64, used int) {
	m.UnitTime += elapsed * int64(used)
}

func (m *Metrics) recordStart(j *Job, used, freeRanges int) {
	m.JobsStarted++
	if j.Backfilled {
		m.JobsBackfilled++
	}
	m.Waits = append(m.Waits, j.Start-j.Submit)
	m.PeakUsedUnits = max(m.PeakUsedUnits, used)
	m.PeakFreeRanges = max(m.PeakFreeRanges, freeRanges)
}

func (m *Metrics) recordRelease(freeRanges int) {
	m.PeakFreeRanges = max(m.PeakFreeRanges, freeRanges)
}

// Makespan is the span between the first and the last event.
func (m *Metrics) Makespan() int64 {
	return m.SimEndedTime - m.SimStartTime
}

// Utilization is the fraction of unit-time spent allocated over the makespan.
func (m *Metrics) Utilization(capacity int) float64 {
	span := m.Makespan()
	if span <= 0 || capacity <= 0 {
		return 0
	}
	return float64(m.UnitTime) / (float64(span) * float64(capacity))
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(w io.Writer, capacity int) {
	s := m.Summarize(capacity)
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Events Processed     : %d\n", m.EventsProcessed())
	for _, k := range []EventKind{KindCompletion, KindCampaignEnd, KindArrival, KindWakeup} {
		if n := m.EventsByKind[k]; n > 0 {
			fmt.Fprintf(w, "  %-18s : %d\n", k, n)
		}
	}
	fmt.Fprintf(w, "Completed Jobs       : %d\n", m.JobsCompleted)
	fmt.Fprintf(w, "Backfilled Jobs      : %d\n", m.JobsBackfilled)
	fmt.Fprintf(w, "Makespan             : %d\n", s.Makespan)
	fmt.Fprintf(w, "Utilization          : %.4f\n", s.Utilization)
	fmt.Fprintf(w, "Peak Used Units      : %d / %d\n", m.PeakUsedUnits, capacity)
	fmt.Fprintf(w, "Peak Free Ranges     : %d\n", m.PeakFreeRanges)
	if m.JobsStarted > 0 {
		fmt.Fprintf(w, "Mean Wait            : %.2f\n", s.MeanWait)
		fmt.Fprintf(w, "Wait StdDev          : %.2f\n", s.StdDevWait)
		fmt.Fprintf(w, "P50 / P90 / P99 Wait : %.0f / %.0f / %.0f\n", s.P50Wait, s.P90Wait, s.P99Wait)
		fmt.Fprintf(w, "Max Wait             : %d\n", s.MaxWait)
	}
}
