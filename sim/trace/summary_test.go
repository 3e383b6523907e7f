package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	// GIVEN no trace
	// WHEN summarized
	summary := Summarize(nil)

	// THEN all counts are zero
	if summary.TotalStarts != 0 || summary.BackfilledCount != 0 || summary.BlockedPasses != 0 {
		t.Errorf("expected zero counts, got %+v", summary)
	}
	if summary.MeanWait != 0 || summary.MaxWait != 0 || summary.BackfillRatio != 0 {
		t.Errorf("expected zero wait statistics, got %+v", summary)
	}
	if len(summary.UserStarts) != 0 {
		t.Error("expected empty user distribution")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with starts, a blocked pass and campaign changes
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordStart(StartRecord{JobID: "j1", User: "alice", Wait: 0})
	st.RecordStart(StartRecord{JobID: "j2", User: "bob", Wait: 30, Backfilled: true})
	st.RecordStart(StartRecord{JobID: "j3", User: "alice", Wait: 60})
	st.RecordBlock(BlockRecord{JobID: "j4"})
	st.RecordCampaign(CampaignRecord{User: "alice", Event: CampaignOpened})
	st.RecordCampaign(CampaignRecord{User: "bob", Event: CampaignOpened})
	st.RecordCampaign(CampaignRecord{User: "alice", Event: CampaignClosed})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts and wait statistics match
	if summary.TotalStarts != 3 {
		t.Errorf("expected 3 starts, got %d", summary.TotalStarts)
	}
	if summary.BackfilledCount != 1 {
		t.Errorf("expected 1 backfilled, got %d", summary.BackfilledCount)
	}
	if summary.MeanWait != 30 {
		t.Errorf("expected mean wait 30, got %f", summary.MeanWait)
	}
	if summary.MaxWait != 60 {
		t.Errorf("expected max wait 60, got %d", summary.MaxWait)
	}
	if summary.BlockedPasses != 1 {
		t.Errorf("expected 1 blocked pass, got %d", summary.BlockedPasses)
	}
	if summary.CampaignsOpened != 2 || summary.CampaignsClosed != 1 {
		t.Errorf("expected 2 opened and 1 closed, got %d and %d", summary.CampaignsOpened, summary.CampaignsClosed)
	}
	if summary.UserStarts["alice"] != 2 || summary.UserStarts["bob"] != 1 {
		t.Errorf("unexpected user distribution %v", summary.UserStarts)
	}
}

func TestSummarize_BackfillRatio(t *testing.T) {
	// GIVEN four starts, one of them backfilled
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	for i, bf := range []bool{false, true, false, false} {
		st.RecordStart(StartRecord{JobID: string(rune('a' + i)), Backfilled: bf})
	}

	// WHEN summarized
	summary := Summarize(st)

	// THEN a quarter of the starts were backfilled
	if summary.BackfillRatio != 0.25 {
		t.Errorf("expected backfill ratio 0.25, got %f", summary.BackfillRatio)
	}
}
