// sim/metrics_utils.go
package sim

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary is the statistical digest of a Metrics instance.
type Summary struct {
	Jobs        int
	Backfilled  int
	Makespan    int64
	Utilization float64
	MeanWait    float64
	StdDevWait  float64
	P50Wait     float64
	P90Wait     float64
	P99Wait     float64
	MaxWait     int64
}

// Summarize computes wait-time statistics. Safe on empty metrics.
func (m *Metrics) Summarize(capacity int) Summary {
	s := Summary{
		Jobs:        m.JobsCompleted,
		Backfilled:  m.JobsBackfilled,
		Makespan:    m.Makespan(),
		Utilization: m.Utilization(capacity),
	}
	if len(m.Waits) == 0 {
		return s
	}
	waits := make([]float64, len(m.Waits))
	for i, w := range m.Waits {
		waits[i] = float64(w)
		s.MaxWait = max(s.MaxWait, w)
	}
	sort.Float64s(waits)
	s.MeanWait, s.StdDevWait = stat.MeanStdDev(waits, nil)
	if len(waits) == 1 {
		s.StdDevWait = 0
	}
	s.P50Wait = CalculatePercentile(waits, 50)
	s.P90Wait = CalculatePercentile(waits, 90)
	s.P99Wait = CalculatePercentile(waits, 99)
	return s
}

// CalculatePercentile returns the p-th percentile (0-100) of sorted data using the
// empirical CDF. Returns 0 for empty data.
func CalculatePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p/100, stat.Empirical, sorted, nil)
}
