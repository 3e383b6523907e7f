package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalStarts     int
	BackfilledCount int
	BackfillRatio   float64
	MeanWait        float64
	MaxWait         int64
	BlockedPasses   int
	CampaignsOpened int
	CampaignsClosed int
	UserStarts      map[string]int // user -> number of jobs started
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		UserStarts: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalStarts = len(st.Starts)
	if len(st.Starts) > 0 {
		totalWait := int64(0)
		for _, s := range st.Starts {
			summary.UserStarts[s.User]++
			totalWait += s.Wait
			if s.Wait > summary.MaxWait {
				summary.MaxWait = s.Wait
			}
			if s.Backfilled {
				summary.BackfilledCount++
			}
		}
		summary.MeanWait = float64(totalWait) / float64(len(st.Starts))
		summary.BackfillRatio = float64(summary.BackfilledCount) / float64(len(st.Starts))
	}

	summary.BlockedPasses = len(st.Blocks)
	for _, c := range st.Campaigns {
		switch c.Event {
		case CampaignOpened:
			summary.CampaignsOpened++
		case CampaignClosed:
			summary.CampaignsClosed++
		}
	}

	return summary
}
