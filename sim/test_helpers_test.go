package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/procsim/procsim/sim/internal/testutil"
)

// stubEntity is an event payload identified by its own value.
type stubEntity string

func (s stubEntity) Key() string { return string(s) }

// newJob builds a trace record that starts at submit and runs for runtime.
func newJob(id string, submit, runtime int64, size int) *Job {
	return &Job{ID: id, Submit: submit, TraceStart: submit, TraceEnd: submit + runtime, Size: size}
}

// jobsFromRows converts shared test rows into jobs.
func jobsFromRows(rows []testutil.Row) []*Job {
	jobs := make([]*Job, len(rows))
	for i, r := range rows {
		jobs[i] = &Job{ID: r.ID, User: r.User, Submit: r.Submit, TraceStart: r.Start, TraceEnd: r.End, Size: r.Size}
	}
	return jobs
}

// recordsByID indexes run output for lookups in assertions.
func recordsByID(records []JobRecord) map[string]JobRecord {
	out := make(map[string]JobRecord, len(records))
	for _, r := range records {
		out[r.ID] = r
	}
	return out
}

// writeTempYAML writes content to a temporary YAML file and returns its path.
func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
