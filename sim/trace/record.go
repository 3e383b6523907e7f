// Package trace provides decision-trace recording for scheduling policy analysis.
// This package has no dependencies on sim/ or its sub-packages: it stores pure data types.
package trace

// StartRecord captures a job being started by a scheduling or backfill pass.
type StartRecord struct {
	JobID      string
	User       string
	Clock      int64
	Wait       int64 // Clock - submit time
	Size       int
	Backfilled bool
	Ranges     string // allocated ranges, "(0,3) (8,9)"
}

// BlockRecord captures the first ready job of a pass that did not fit.
type BlockRecord struct {
	JobID  string
	Clock  int64
	Size   int
	Free   int
	Shadow int64 // earliest time the job fits if running jobs end on schedule
}

// CampaignEvent is the lifecycle step recorded by a CampaignRecord.
type CampaignEvent string

const (
	CampaignOpened CampaignEvent = "opened"
	CampaignClosed CampaignEvent = "closed"
)

// CampaignRecord captures a campaign opening or closing in a campaign-based policy.
type CampaignRecord struct {
	User     string
	Campaign int // per-user sequence number
	Clock    int64
	Event    CampaignEvent
	Workload float64 // virtual work the campaign was charged when the record was taken
}
