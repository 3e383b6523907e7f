// Package instrument exposes the metrics of finished runs to Prometheus, either through a
// registry or as a node-exporter textfile.
package instrument

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/maps"

	"github.com/procsim/procsim/sim"
)

const prefix = "procsim_"

var runLabels = []string{"run", "policy"}

var (
	eventsDesc = prometheus.NewDesc(prefix+"events_total",
		"Events dispatched by the engine", append(runLabels, "kind"), nil)
	jobsDesc = prometheus.NewDesc(prefix+"jobs_total",
		"Jobs by lifecycle transition", append(runLabels, "transition"), nil)
	makespanDesc = prometheus.NewDesc(prefix+"makespan",
		"Time between the first and the last event", runLabels, nil)
	utilizationDesc = prometheus.NewDesc(prefix+"utilization_ratio",
		"Fraction of unit-time spent allocated", runLabels, nil)
	peakUsedDesc = prometheus.NewDesc(prefix+"peak_used_units",
		"Max number of simultaneously allocated units", runLabels, nil)
	peakFreeRangesDesc = prometheus.NewDesc(prefix+"peak_free_ranges",
		"Max number of disjoint free ranges", runLabels, nil)
	checksDesc = prometheus.NewDesc(prefix+"consistency_checks_total",
		"Consistency checks performed", runLabels, nil)
	waitDesc = prometheus.NewDesc(prefix+"job_wait",
		"Time jobs spent between submission and start", runLabels, nil)
)

// Run is one finished simulation as seen by the collector.
type Run struct {
	ID       string
	Policy   string
	Capacity int
	Metrics  *sim.Metrics
}

// Collector is a prometheus.Collector over the metrics of finished runs. Runs are added
// once they are drained; their metrics must not change afterwards.
type Collector struct {
	mu   sync.Mutex
	runs []Run
}

func NewCollector() *Collector {
	return &Collector{}
}

// Add registers a finished run.
func (c *Collector) Add(r Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, r)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		eventsDesc, jobsDesc, makespanDesc, utilizationDesc,
		peakUsedDesc, peakFreeRangesDesc, checksDesc, waitDesc,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	runs := append([]Run(nil), c.runs...)
	c.mu.Unlock()
	for _, r := range runs {
		collectRun(ch, r)
	}
}

func collectRun(ch chan<- prometheus.Metric, r Run) {
	m := r.Metrics
	s := m.Summarize(r.Capacity)
	labels := []string{r.ID, r.Policy}

	kinds := maps.Keys(m.EventsByKind)
	sort.Slice(kinds, func(i, k int) bool { return kinds[i] < kinds[k] })
	for _, k := range kinds {
		ch <- prometheus.MustNewConstMetric(eventsDesc, prometheus.CounterValue,
			float64(m.EventsByKind[k]), append(labels, k.String())...)
	}
	for transition, n := range map[string]int{
		"arrived":    m.JobsArrived,
		"started":    m.JobsStarted,
		"completed":  m.JobsCompleted,
		"backfilled": m.JobsBackfilled,
	} {
		ch <- prometheus.MustNewConstMetric(jobsDesc, prometheus.CounterValue,
			float64(n), append(labels, transition)...)
	}
	ch <- prometheus.MustNewConstMetric(makespanDesc, prometheus.GaugeValue, float64(s.Makespan), labels...)
	ch <- prometheus.MustNewConstMetric(utilizationDesc, prometheus.GaugeValue, s.Utilization, labels...)
	ch <- prometheus.MustNewConstMetric(peakUsedDesc, prometheus.GaugeValue, float64(m.PeakUsedUnits), labels...)
	ch <- prometheus.MustNewConstMetric(peakFreeRangesDesc, prometheus.GaugeValue, float64(m.PeakFreeRanges), labels...)
	ch <- prometheus.MustNewConstMetric(checksDesc, prometheus.CounterValue, float64(m.ConsistencyChecks), labels...)

	var sum float64
	for _, w := range m.Waits {
		sum += float64(w)
	}
	ch <- prometheus.MustNewConstSummary(waitDesc, uint64(len(m.Waits)), sum,
		map[float64]float64{0.5: s.P50Wait, 0.9: s.P90Wait, 0.99: s.P99Wait}, labels...)
}

// WriteTextfile writes the collected runs in the text exposition format to path, as read
// by the node exporter textfile collector.
func WriteTextfile(path string, c *Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return fmt.Errorf("registering run collector: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
