package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures job starts, blocked heads and campaign changes.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a simulation.
// A nil *SimulationTrace is valid and records nothing.
type SimulationTrace struct {
	Config    TraceConfig
	Starts    []StartRecord
	Blocks    []BlockRecord
	Campaigns []CampaignRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
// Returns nil for TraceLevelNone.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	if config.Level == "" || config.Level == TraceLevelNone {
		return nil
	}
	return &SimulationTrace{
		Config:    config,
		Starts:    make([]StartRecord, 0),
		Blocks:    make([]BlockRecord, 0),
		Campaigns: make([]CampaignRecord, 0),
	}
}

// RecordStart appends a job start record.
func (st *SimulationTrace) RecordStart(record StartRecord) {
	if st == nil {
		return
	}
	st.Starts = append(st.Starts, record)
}

// RecordBlock appends a blocked-head record.
func (st *SimulationTrace) RecordBlock(record BlockRecord) {
	if st == nil {
		return
	}
	st.Blocks = append(st.Blocks, record)
}

// RecordCampaign appends a campaign record.
func (st *SimulationTrace) RecordCampaign(record CampaignRecord) {
	if st == nil {
		return
	}
	st.Campaigns = append(st.Campaigns, record)
}
